package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/library"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/tasks"
	"github.com/desertthunder/tsync/internal/trakt"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     trakt.Client
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     trakt.Client
	DB         *sql.DB
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, for commands that own the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// database lazily opens the configured SQLite database.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)

	r.db = db
	return r.db, nil
}

// store returns a library store backed by the configured database.
func (r *Runner) store() (*library.Store, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return library.NewStore(db, r.logger), nil
}

// traktClient lazily constructs the Trakt API client from configuration.
func (r *Runner) traktClient() (trakt.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	client, err := trakt.New(r.config.Trakt, r.logger)
	if err != nil {
		return nil, err
	}

	r.client = client
	return r.client, nil
}

// httpTrakt returns the concrete client needed for the OAuth login flow.
func (r *Runner) httpTrakt() (*trakt.HTTPClient, error) {
	client, err := r.traktClient()
	if err != nil {
		return nil, err
	}
	httpClient, ok := client.(*trakt.HTTPClient)
	if !ok {
		return nil, fmt.Errorf("%w: OAuth login requires the HTTP client", shared.ErrInvalidConfig)
	}
	return httpClient, nil
}

// engine builds a sync engine from the runner's store and Trakt client.
func (r *Runner) engine() (*tasks.Engine, error) {
	store, err := r.store()
	if err != nil {
		return nil, err
	}
	client, err := r.traktClient()
	if err != nil {
		return nil, err
	}
	return tasks.NewEngine(store, client, r.logger), nil
}

// users resolves a --user flag value to configured sync users. An empty
// name selects every configured user. Returned pointers alias the config
// so token updates survive a SaveConfig.
func (r *Runner) users(name string) ([]*models.SyncUser, error) {
	if name != "" {
		user, err := r.config.User(name)
		if err != nil {
			return nil, err
		}
		return []*models.SyncUser{user}, nil
	}

	if len(r.config.Users) == 0 {
		return nil, fmt.Errorf("%w: no users configured", shared.ErrMissingConfig)
	}

	users := make([]*models.SyncUser, len(r.config.Users))
	for i := range r.config.Users {
		users[i] = &r.config.Users[i]
	}
	return users, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
