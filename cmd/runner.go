package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/qbz/internal/qobuz"
	"github.com/desertthunder/qbz/internal/repositories"
	"github.com/desertthunder/qbz/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	client     *qobuz.Client
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Client     *qobuz.Client
	HTTPClient *http.Client
	BaseURL    string
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

	return &Runner{
		config:     opts.Config,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		baseURL:    opts.BaseURL,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, trackCommand, searchCommand, favoritesCommand, suggestCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the command's --config flag
// when it exists. Missing files keep the current config.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current", "path", path, "error", err)
		return
	}
	r.config = config
}

// provider returns an authenticated client, logging in on first use.
func (r *Runner) provider(ctx context.Context) (*qobuz.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	if r.config.Qobuz.Email == "" || r.config.Qobuz.PasswordHash == "" {
		return nil, fmt.Errorf("%w: set qobuz.email and qobuz.password_hash in config.toml", shared.ErrMissingConfig)
	}

	client, err := qobuz.NewClient(r.config.Qobuz, qobuz.ClientOpts{
		BaseURL:    r.baseURL,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := client.Login(ctx, r.config.Qobuz.Email, r.config.Qobuz.PasswordHash); err != nil {
		return nil, err
	}

	r.client = client
	return client, nil
}

// streamingProvider returns an authenticated client with a validated app
// secret, as required by signed stream-URL requests.
func (r *Runner) streamingProvider(ctx context.Context) (*qobuz.Client, error) {
	client, err := r.provider(ctx)
	if err != nil {
		return nil, err
	}

	if err := client.SelectSecret(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// trackRepo opens the configured database and returns the track cache over
// it. The caller owns closing the returned handle.
func (r *Runner) trackRepo() (*repositories.TrackRepository, *sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return repositories.NewTrackRepository(db), db, nil
}

// cacheTracks best-effort persists fetched metadata; listings still render
// when the database is unavailable.
func (r *Runner) cacheTracks(tracks ...qobuz.Track) {
	repo, db, err := r.trackRepo()
	if err != nil {
		r.logger.Warn("skipping track cache", "error", err)
		return
	}
	defer db.Close()

	if err := repo.UpsertAll(tracks); err != nil {
		r.logger.Warn("failed to cache tracks", "error", err)
	}
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
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeTrackListing(tracks []qobuz.Track) {
	for i, track := range tracks {
		artist := ""
		if track.Performer != nil {
			artist = track.Performer.Name
		}
		r.writePlainln("%d. %s - %s [%s] (id %d)", i+1, artist, track.Title, shared.FormatDuration(track.Duration), track.ID)
	}
}
