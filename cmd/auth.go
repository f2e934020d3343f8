package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/kxo/internal/services"
	"github.com/desertthunder/kxo/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login exchanges the admin password for a session cookie and stores it.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.readPassword("Admin password: "); err != nil {
			return err
		}
	}

	r.logger.Info("logging in", "base_url", r.api.BaseURL())

	if _, err := r.api.Login(ctx, password); err != nil {
		var apiErr *shared.APIError
		switch {
		case errors.As(err, &apiErr):
			return fmt.Errorf("%w: %s", shared.ErrAuthFailed, apiErr.MessageOr(services.MsgInvalidPassword))
		case errors.Is(err, shared.ErrMissingArgument):
			return fmt.Errorf("%w: password required", shared.ErrMissingArgument)
		default:
			return fmt.Errorf("%s: %w", services.MsgNetworkError, err)
		}
	}

	if err := r.session.MarkAdmin(true); err != nil {
		return err
	}

	r.logger.Info("authentication successful", "session", r.session.ID())
	return r.writePlain("✓ Logged in to %s\n", r.api.BaseURL())
}

// Logout ends the admin session. The local session is cleared even when the API cannot be reached.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	if err := r.controller().Logout(ctx); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}

// Status checks API health and whether the stored session is still an admin session.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	r.logger.Info("checking API status", "base_url", r.api.BaseURL())

	health, err := r.api.Health(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ API is %s\n", health.Status)
	if health.Message != "" {
		r.writePlain("Message: %s\n", health.Message)
	}

	authenticated, err := r.api.VerifySession(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify session: %w", err)
	}
	if err := r.session.MarkAdmin(authenticated); err != nil {
		r.logger.Warn("failed to save admin hint", "error", err)
	}

	if authenticated {
		return r.writePlain("Session: ✓ Admin\n")
	}
	return r.writePlain("Session: ✗ Not logged in (run 'kxo login')\n")
}
