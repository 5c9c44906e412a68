package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	session    *session.Manager
	history    *repositories.SessionRepository
	flix       services.Service
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Session    *session.Manager
	History    *repositories.SessionRepository // Optional sign-in audit trail
	Flix       services.Service
	API        *services.APIService // Raw client for `flix api`; built per call when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Session == nil {
		opts.Session = session.NewManager(nil, opts.Logger)
	}
	if opts.Flix == nil {
		opts.Flix = services.NewFlixService(services.Options{
			BaseURL:           opts.Config.API.BaseURL,
			Tokens:            opts.Session.TokenSource(),
			Transport:         opts.HTTPClient.Transport,
			Timeout:           opts.Config.API.Timeout(),
			RequestsPerSecond: opts.Config.API.RequestsPerSecond,
			Logger:            opts.Logger,
		})
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		session:    opts.Session,
		history:    opts.History,
		flix:       opts.Flix,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, favoritesCommand, userCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSession returns the signed-in username.
func (r *Runner) requireSession() (string, error) {
	username, ok := r.session.Username()
	if !ok {
		return "", fmt.Errorf("%w: run 'flix auth login' first", shared.ErrNotAuthenticated)
	}
	return username, nil
}

// newSynchronizer creates a favorites synchronizer whose rejected sessions sign the profile out.
func (r *Runner) newSynchronizer(opts tasks.SyncOptions) *tasks.Synchronizer {
	if opts.Logger == nil {
		opts.Logger = shared.WithLogger(r.logger, "component", "favorites")
	}
	if opts.Notifier == nil {
		opts.Notifier = tasks.LogNotifier{Logger: opts.Logger}
	}

	logger := opts.Logger
	opts.OnUnauthorized = func(ctx context.Context, err error) {
		if rerr := r.session.Revoke(ctx, err.Error()); rerr != nil {
			logger.Warn("failed to clear rejected session", "error", rerr)
		}
	}
	return tasks.NewSynchronizer(r.flix, opts)
}

// rawAPI returns the raw client, sending the bearer token only while signed in.
func (r *Runner) rawAPI() *services.APIService {
	if r.api != nil {
		return r.api
	}

	var tokens oauth2.TokenSource
	if _, ok := r.session.Token(); ok {
		tokens = r.session.TokenSource()
	}
	client := services.NewHTTPClient(tokens, r.httpClient.Transport, r.config.API.Timeout())
	return services.NewAPIService(r.config.API.BaseURL, client)
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

	if _, err := r.output.Write(output); err != nil {
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
