// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/flix/internal/formatter"
	"github.com/urfave/cli/v3"
)

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: pretty,
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the session database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml with default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:  "api-url",
						Usage: "Base URL of the myFlix API",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and inspect the session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with a username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("FLIX_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("FLIX_PASSWORD"),
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "birthday",
						Usage: "Birthday (YYYY-MM-DD)",
					},
					&cli.BoolFlag{
						Name:  "login",
						Usage: "Sign in after registering",
						Value: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "status",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Verify the token against the API",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a bearer token from a browser request (DevTools → Copy as cURL)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Username (default: read from the token)",
					},
					&cli.BoolFlag{
						Name:  "save-url",
						Usage: "Store the request's host as api.base_url in the config file",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:  "history",
				Usage: "Show recent sign-in and sign-out events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to show",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "prune",
						Usage: "Delete events older than this age (e.g. 720h)",
					},
				},
				Action: r.AuthHistory,
			},
		},
	}
}

// moviesCommand handles catalog operations
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every movie",
				Flags: append(outputFlags(false),
					&cli.BoolFlag{
						Name:  "featured",
						Usage: "Only featured movies",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "Only movies of this genre",
					},
				),
				Action: r.MoviesList,
			},
			{
				Name:      "show",
				Usage:     "Show one movie by title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: append(outputFlags(true),
					&cli.BoolFlag{Name: "open", Usage: "Open the poster in the browser"},
				),
				Action: r.MoviesShow,
			},
			{
				Name:      "director",
				Usage:     "Show a director by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     outputFlags(true),
				Action:    r.MoviesDirector,
			},
			{
				Name:      "genre",
				Usage:     "Show a genre by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     outputFlags(true),
				Action:    r.MoviesGenre,
			},
		},
	}
}

// favoritesCommand handles the signed-in user's favorites
func favoritesCommand(r *Runner) *cli.Command {
	movieArg := []cli.Argument{&cli.StringArg{Name: "movie"}}

	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage your favorite movies",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage: "List your favorites in the order you added them",
				Flags: append(outputFlags(false),
					&cli.BoolFlag{Name: "ids", Usage: "Only list the stored movie IDs, without the catalog"},
				),
				Action: r.FavoritesList,
			},
			{
				Name:      "add",
				Usage:     "Add a movie (title or ID) to your favorites",
				Arguments: movieArg,
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a movie (title or ID) from your favorites",
				Arguments: movieArg,
				Action:    r.FavoritesRemove,
			},
			{
				Name:      "toggle",
				Usage:     "Add a movie if it is not a favorite, remove it otherwise",
				Arguments: movieArg,
				Action:    r.FavoritesToggle,
			},
			{
				Name:  "export",
				Usage: "Export your favorites to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: favorites_export_{epoch})",
					},
					&cli.BoolFlag{
						Name:  "posters",
						Usage: "Download poster images",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent poster downloads",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Poster requests per second",
						Value: 5,
					},
				},
				Action: r.FavoritesExport,
			},
		},
	}
}

// userCommand handles profile operations
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "View and edit your profile",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a user record (default: yours)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     outputFlags(true),
				Action:    r.UserShow,
			},
			{
				Name:  "update",
				Usage: "Update your profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "New username"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringFlag{Name: "email", Usage: "New email address"},
					&cli.StringFlag{Name: "birthday", Usage: "New birthday (YYYY-MM-DD)"},
				},
				Action: r.UserUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm deletion",
					},
				},
				Action: r.UserDelete,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the myFlix API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send, or @file to read it from a file",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand starts the local stub backend.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a local myFlix API with a sample catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "TOML seed file (default: built-in sample)",
			},
			&cli.DurationFlag{
				Name:  "token-ttl",
				Usage: "Lifetime of issued tokens (default: server.token_ttl_hours)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.TUI,
	}
}
