package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/kxo/internal/dashboard"
	"github.com/desertthunder/kxo/internal/formatter"
	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadWaitlist verifies the session and loads the waitlist into a fresh controller with search applied.
func (r *Runner) loadWaitlist(ctx context.Context, search string) (*dashboard.Controller, error) {
	if err := r.connect(); err != nil {
		return nil, err
	}

	ctrl := r.controller()
	if err := ctrl.Activate(ctx); err != nil {
		if errors.Is(err, dashboard.ErrAuthenticationFailed) {
			return nil, fmt.Errorf("%w: run 'kxo login' first", shared.ErrNotAuthenticated)
		}
		if msg := dashboard.MessageOf(err); msg != "" {
			return nil, fmt.Errorf("%s: %w", msg, err)
		}
		return nil, err
	}

	ctrl.SetSearch(search)
	return ctrl, nil
}

// WaitlistList prints waitlist members as a table or JSON.
func (r *Runner) WaitlistList(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.loadWaitlist(ctx, cmd.String("search"))
	if err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	r.logger.Info("loaded waitlist", "count", len(snap.Entries), "shown", len(snap.Filtered))

	if cmd.Bool("json") {
		data, err := formatter.ExportToJSON(snap.Filtered)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	if len(snap.Filtered) == 0 {
		return r.writePlain("%s\n", dashboard.EmptyMessage(snap.Search))
	}

	r.writePlain("Total: %d • Beta testers: %d • Ambassadors: %d\n",
		snap.Summary.Total, snap.Summary.BetaTesters, snap.Summary.Ambassadors)
	if err := r.writePlain("%s", formatter.ExportToText(snap.Filtered)); err != nil {
		return err
	}
	return r.writePlain("%s\n", snap.Showing())
}

// WaitlistExport writes the (optionally filtered) waitlist to a dated CSV file and records the export.
func (r *Runner) WaitlistExport(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.loadWaitlist(ctx, cmd.String("search"))
	if err != nil {
		return err
	}

	dir := cmd.String("output")
	if dir == "" {
		dir = r.config.Export.Dir
	}

	path, err := ctrl.Export(dir)
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d members to %s\n", len(ctrl.Filtered()), path)

	if cmd.Bool("open") {
		if err := shared.Open(path); err != nil {
			r.logger.Warn("failed to open export", "path", path, "error", err)
		}
	}
	return nil
}

// Exports lists recent CSV exports, newest first.
func (r *Runner) Exports(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	records, err := r.exports.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return r.writePlain("No exports yet.\n")
	}

	for _, rec := range records {
		r.writePlain("%s  %4d rows  %s%s\n",
			rec.CreatedAt().Local().Format(time.DateTime), rec.Rows(), filepath.Clean(rec.Path()), searchSuffix(rec))
	}
	return nil
}

func searchSuffix(rec *models.ExportRecord) string {
	if rec.SearchTerm() == "" {
		return ""
	}
	return fmt.Sprintf("  (search %q)", rec.SearchTerm())
}

// Join submits a waitlist signup.
func (r *Runner) Join(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	req := models.JoinRequest{
		Name:       cmd.String("name"),
		Email:      cmd.String("email"),
		Phone:      cmd.String("phone"),
		BetaTester: cmd.Bool("beta"),
		Ambassador: cmd.Bool("ambassador"),
	}

	resp, err := r.api.Join(ctx, req)
	if err != nil {
		return err
	}

	r.logger.Info("joined waitlist", "email", req.Email)
	return r.writePlain("✓ %s\n", resp.Message)
}
