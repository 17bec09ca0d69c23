// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, libraryCommand, traktCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Configured user name (default: all users)",
		Required: required,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles Trakt authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Trakt authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate a user with Trakt using OAuth2",
				Flags:  []cli.Flag{configFlag(), userFlag(true)},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check token validity against the Trakt API",
				Flags:  []cli.Flag{userFlag(false)},
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand handles library synchronization runs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize library watch state and collection with Trakt",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a full two-way sync for configured users",
				Flags: []cli.Flag{
					userFlag(false),
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Reconcile only, send nothing and change nothing",
					},
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"o"},
						Usage:   "Write JSON and Markdown reports with this base path",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run report as JSON",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:    "ui",
				Aliases: []string{"interactive", "tui"},
				Usage:   "Interactive TUI for running a sync",
				Flags:   []cli.Flag{userFlag(false)},
				Action:  r.SyncUI,
			},
		},
	}
}

// libraryCommand handles local library operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Local media library operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import a library export file (movies, series, episodes)",
				Flags: []cli.Flag{
					userFlag(true),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to library export JSON",
						Required: true,
					},
				},
				Action: r.LibraryImport,
			},
			{
				Name:  "list",
				Usage: "List library items visible to a user",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "kind",
					},
				},
				Flags: []cli.Flag{
					userFlag(true),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:   "stats",
				Usage:  "Show item counts per library table",
				Action: r.LibraryStats,
			},
		},
	}
}

// traktCommand handles direct Trakt API inspection
func traktCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trakt",
		Usage: "Inspect remote Trakt state",
		Commands: []*cli.Command{
			{
				Name:  "watched",
				Usage: "Show the watched snapshot for a user",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "kind",
					},
				},
				Flags: []cli.Flag{
					userFlag(true),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TraktWatched,
			},
			{
				Name:  "collection",
				Usage: "Show the collected snapshot for a user",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "kind",
					},
				},
				Flags: []cli.Flag{
					userFlag(true),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TraktCollection,
			},
		},
	}
}
