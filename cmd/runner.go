package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kxo/internal/dashboard"
	"github.com/desertthunder/kxo/internal/repositories"
	"github.com/desertthunder/kxo/internal/services"
	"github.com/desertthunder/kxo/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, session and API client are opened lazily by [Runner.connect] so that commands like
// "setup database" and "stub" work without them.
type Runner struct {
	config   *shared.Config
	logger   *log.Logger
	output   io.Writer
	input    io.Reader
	db       *sql.DB
	sessions *repositories.SessionRepository
	exports  *repositories.ExportRepository
	session  *services.CookieSession
	api      *services.WaitlistService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	Input  io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		input:  opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand, waitlistCommand,
		exportsCommand, joinCommand, sessionCommand, tuiCommand, stubCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the config file named by --config, applies KXO_* overrides and sets the log level.
// A missing config file is not an error; defaults are used.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	configPath := cmd.String("config")
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return ctx, err
		}
		r.logger.Debug("loaded config", "path", configPath)
	}
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config = config
	return ctx, nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// connect opens the database, runs pending migrations and binds the stored session to an API client.
func (r *Runner) connect() error {
	if r.api != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	applied, err := shared.RunMigrations(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied > 0 {
		r.logger.Debug("applied migrations", "count", applied)
	}

	sessions := repositories.NewSessionRepository(db)
	baseURL := strings.TrimRight(r.config.API.BaseURL, "/")

	session, err := services.OpenSession(sessions, baseURL)
	if err != nil {
		db.Close()
		return err
	}

	client := session.NewHTTPClient()
	client.Timeout = r.config.API.Timeout.Duration

	r.db = db
	r.sessions = sessions
	r.exports = repositories.NewExportRepository(db)
	r.session = session
	r.api = services.NewWaitlistService(services.NewAPIService(baseURL, client, r.logger))

	r.logger.Debug("session opened", "id", session.ID(), "base_url", baseURL, "admin", session.IsAdmin())
	return nil
}

// Close releases the database connection if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// controller builds a [dashboard.Controller] over the connected API and session.
func (r *Runner) controller() *dashboard.Controller {
	return dashboard.NewController(r.api, r.session, dashboard.Options{
		Timeout:         r.config.API.Timeout.Duration,
		RefreshInterval: r.config.Refresh.Interval.Duration,
		RefreshBurst:    r.config.Refresh.Burst,
		ExportPrefix:    r.config.Export.Prefix,
		Exports:         r.exports,
		Logger:          r.logger,
	})
}

// readPassword prompts for a password, hiding input when stdin is a terminal.
func (r *Runner) readPassword(prompt string) (string, error) {
	r.writePlain("%s", prompt)

	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

// writeBytes writes b followed by a newline.
func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
