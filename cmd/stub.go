package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/desertthunder/kxo/internal/models"
	"github.com/desertthunder/kxo/internal/server"
	"github.com/urfave/cli/v3"
)

// Stub runs the in-memory waitlist API until interrupted.
func (r *Runner) Stub(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	if host == "" {
		host = r.config.Stub.Host
	}
	port := int(cmd.Int("port"))
	if port == 0 {
		port = r.config.Stub.Port
	}
	password := cmd.String("password")
	if password == "" {
		password = r.config.Stub.Password
	}

	api := server.NewStubAPI(password, r.logger)
	if cmd.Bool("seed") {
		api.Seed(demoMembers()...)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	r.writePlain("Stub API listening on http://%s (admin password %q)\n", addr, password)

	if err := server.ListenAndServe(ctx, addr, server.NewStubRouter(api, r.logger), r.logger); err != nil {
		return fmt.Errorf("stub server failed: %w", err)
	}
	return nil
}

func demoMembers() []models.WaitlistEntry {
	return []models.WaitlistEntry{
		{Name: "Amina Bello", Email: "amina@example.com", BetaTester: true},
		{Name: "Chidi Okafor", Email: "chidi@example.com", Phone: "+234 803 555 0101", Ambassador: true},
		{Name: "Zainab Musa", Email: "zainab@example.com", Phone: "+234 802 555 0199", BetaTester: true, Ambassador: true},
	}
}
