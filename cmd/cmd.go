// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// loginCommand exchanges the admin password for a session cookie.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in as the waitlist admin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Admin password (prompted for when omitted)",
				Sources: cli.EnvVars("KXO_ADMIN_PASSWORD"),
			},
		},
		Action: r.Login,
	}
}

// logoutCommand ends the admin session.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "End the admin session and forget its cookies",
		Action: r.Logout,
	}
}

// statusCommand reports API health and whether the stored session is an admin.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check API health and admin session state",
		Action: r.Status,
	}
}

// waitlistCommand handles waitlist listing and export.
func waitlistCommand(r *Runner) *cli.Command {
	searchFlag := &cli.StringFlag{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Only include members whose name, email or phone contains this text",
	}

	return &cli.Command{
		Name:    "waitlist",
		Aliases: []string{"wl"},
		Usage:   "Waitlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List waitlist members",
				Flags: []cli.Flag{
					searchFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.WaitlistList,
			},
			{
				Name:  "export",
				Usage: "Export waitlist members to CSV",
				Flags: []cli.Flag{
					searchFlag,
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory to write the CSV into (default: export.dir)",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the CSV with the default application",
					},
				},
				Action: r.WaitlistExport,
			},
		},
	}
}

// exportsCommand lists previously written CSV exports.
func exportsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "exports",
		Usage: "List recent CSV exports",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of exports to show",
				Value: 20,
			},
		},
		Action: r.Exports,
	}
}

// joinCommand submits a signup the way the landing page form does.
func joinCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "join",
		Usage: "Add someone to the waitlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Full name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Email address",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "phone",
				Usage: "Phone number",
			},
			&cli.BoolFlag{
				Name:  "beta",
				Usage: "Sign up as a beta tester",
			},
			&cli.BoolFlag{
				Name:  "ambassador",
				Usage: "Sign up as an ambassador",
			},
		},
		Action: r.Join,
	}
}

// sessionCommand inspects or imports the stored admin session.
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage the stored admin session",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Reuse a browser login from a DevTools \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SessionImport,
			},
			{
				Name:   "show",
				Usage:  "Show the stored session",
				Action: r.SessionShow,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive admin dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI is running",
				Value: "./tmp/kxo-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// stubCommand runs an in-memory waitlist API for local demos.
func stubCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Run a local stub of the waitlist API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on (default: stub.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default: stub.port)",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Admin password (default: stub.password)",
				Sources: cli.EnvVars("KXO_STUB_PASSWORD"),
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Start with a few demo members",
				Value: true,
			},
		},
		Action: r.Stub,
	}
}
