package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/kxo/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionImport stores the cookies from a browser "Copy as cURL" command so an existing browser login can be reused.
func (r *Runner) SessionImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error

	if curlFile != "" {
		if req, err = shared.ParseCurlFile(curlFile); err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		if req, err = shared.ParseCurlCommand(curlCmd); err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	cookies, err := req.Cookies()
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return fmt.Errorf("%w: cURL command carries no cookies", shared.ErrInvalidInput)
	}

	if err := r.connect(); err != nil {
		return err
	}

	if origin := req.Origin(); origin != "" && origin != r.api.BaseURL() {
		r.logger.Warn("cURL target differs from api.base_url", "curl", origin, "base_url", r.api.BaseURL())
	}

	if err := r.session.ImportCookies(cookies); err != nil {
		return err
	}
	r.logger.Info("imported cookies", "count", len(cookies))

	authenticated, err := r.api.VerifySession(ctx)
	if err != nil {
		r.writePlain("✓ Imported %d cookies\n", len(cookies))
		return fmt.Errorf("failed to verify imported session: %w", err)
	}
	if err := r.session.MarkAdmin(authenticated); err != nil {
		return err
	}

	if !authenticated {
		return fmt.Errorf("%w: imported cookies are not an admin session", shared.ErrNotAuthenticated)
	}
	return r.writePlain("✓ Imported %d cookies, session is an admin session\n", len(cookies))
}

// SessionShow prints the stored session. Cookie values are never printed.
func (r *Runner) SessionShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	s := r.session.Session()

	verified := "never"
	if at := s.VerifiedAt(); at != nil {
		verified = at.Local().Format(time.DateTime)
	}

	names := make([]string, 0, len(s.Cookies()))
	for _, c := range s.Cookies() {
		names = append(names, c.Name)
	}
	cookies := "none"
	if len(names) > 0 {
		cookies = strings.Join(names, ", ")
	}

	r.writePlain("Session:  %s\n", s.ID())
	r.writePlain("API:      %s\n", s.BaseURL())
	r.writePlain("Admin:    %s\n", shared.YesNo(s.IsAdmin()))
	r.writePlain("Verified: %s\n", verified)
	return r.writePlain("Cookies:  %s\n", cookies)
}
