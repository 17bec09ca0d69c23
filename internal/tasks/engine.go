package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/library"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/trakt"
)

// UserReport aggregates one user's sync outcome for diagnostics and reporting.
type UserReport struct {
	User        string            `json:"user"`
	Movies      *MovieDecisions   `json:"movies,omitempty"`
	Episodes    *EpisodeDecisions `json:"episodes,omitempty"`
	Results     []OpResult        `json:"results,omitempty"`
	LocalResets int               `json:"local_resets"`
	Error       string            `json:"error,omitempty"`
	Err         error             `json:"-"`
}

// RunReport aggregates a full sync run across users.
type RunReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DryRun     bool         `json:"dry_run,omitempty"`
	Users      []UserReport `json:"users"`
}

// Engine orchestrates sync runs: fetch frozen remote snapshots, reconcile
// against the local catalog, apply local watch-state resets, then dispatch the
// decision sets. Users are processed strictly sequentially.
//
// A run never returns an error to the caller. Failures are logged and recorded
// in the report; only cancellation cuts a run short, leaving completed users'
// work intact.
type Engine struct {
	library    library.Service
	client     trakt.Client
	dispatcher *Dispatcher
	logger     *log.Logger
	dryRun     bool
}

// NewEngine creates an Engine over the given collaborators.
func NewEngine(lib library.Service, client trakt.Client, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		library:    lib,
		client:     client,
		dispatcher: NewDispatcher(client, logger),
		logger:     logger,
	}
}

// SetDryRun makes subsequent runs compute decisions without dispatching or
// mutating local state.
func (e *Engine) SetDryRun(dry bool) {
	e.dryRun = dry
}

// SetLogger swaps the engine's logger, for callers that own the terminal.
func (e *Engine) SetLogger(logger *log.Logger) {
	e.logger = logger
	e.dispatcher.logger = logger
}

// SyncAll runs a full sync for every user in order. Progress is reported
// through the optional channel, weighted per user and per item.
func (e *Engine) SyncAll(ctx context.Context, users []*models.SyncUser, progress chan<- ProgressUpdate) *RunReport {
	report := &RunReport{StartedAt: time.Now(), DryRun: e.dryRun}

	tracker := NewTracker(progress)
	userNodes := tracker.Root().Split(len(users))

	for i, user := range users {
		if ctx.Err() != nil {
			e.logger.Warn("sync run cancelled", "remaining_users", len(users)-i)
			break
		}

		userReport := e.syncUser(ctx, user, tracker, userNodes[i])
		report.Users = append(report.Users, userReport)
		tracker.Send(userDoneUpdate(user.Name, 0, &userReport))

		if errors.Is(userReport.Err, context.Canceled) || errors.Is(userReport.Err, context.DeadlineExceeded) {
			break
		}
	}

	report.FinishedAt = time.Now()
	tracker.send(runDoneUpdate(report))
	return report
}

// syncUser drives one user's sync through its four phases: fetch, movie
// reconciliation, show reconciliation, dispatch.
func (e *Engine) syncUser(ctx context.Context, user *models.SyncUser, tracker *Tracker, node *Node) UserReport {
	report := UserReport{User: user.Name}
	logger := e.logger.With("user", user.Name)

	fail := func(err error) UserReport {
		report.Err = err
		report.Error = err.Error()
		node.Complete()
		return report
	}

	if !user.Authenticated() {
		logger.Warn("user has no Trakt tokens, skipping")
		return fail(fmt.Errorf("%w: run `tsync auth login --user %s`", shared.ErrNotAuthenticated, user.Name))
	}

	phases := node.Split(4)
	fetchPhase, moviePhase, showPhase, dispatchPhase := phases[0], phases[1], phases[2], phases[3]

	tracker.Send(fetchRemoteUpdate(user.Name, 0))

	snap, err := e.fetchSnapshots(ctx, user, fetchPhase)
	if err != nil {
		logger.Error("failed to build sync snapshots", "err", err)
		moviePhase.Complete()
		showPhase.Complete()
		dispatchPhase.Complete()
		report.Err = err
		report.Error = err.Error()
		return report
	}

	logger.Info("snapshots ready",
		"movies", len(snap.movies), "episodes", len(snap.episodes), "series", len(snap.series),
		"watched_movies", len(snap.watchedMovies), "collected_movies", len(snap.collectedMovies),
		"watched_shows", len(snap.watchedShows), "collected_shows", len(snap.collectedShows))

	tracker.Send(reconcileMoviesUpdate(user.Name, 0, len(snap.movies)))
	movieDecisions, err := ReconcileMovies(ctx, user, snap.movies, snap.watchedMovies, snap.collectedMovies, moviePhase, logger)
	if err != nil {
		showPhase.Complete()
		dispatchPhase.Complete()
		return fail(err)
	}
	report.Movies = movieDecisions

	tracker.Send(reconcileShowsUpdate(user.Name, 0, len(snap.episodes)))
	episodeDecisions, err := ReconcileEpisodes(ctx, user, snap.episodes, snap.series, snap.watchedShows, snap.collectedShows, showPhase, logger)
	if err != nil {
		dispatchPhase.Complete()
		return fail(err)
	}
	report.Episodes = episodeDecisions

	resets := append(append([]string{}, movieDecisions.LocalResets...), episodeDecisions.LocalResets...)
	report.LocalResets = len(resets)
	if len(resets) > 0 {
		tracker.Send(applyLocalUpdate(user.Name, 0, len(resets)))
	}
	if !e.dryRun {
		for _, itemID := range resets {
			if err := e.library.SetPlayed(ctx, user, itemID, false); err != nil {
				logger.Error("failed to reset local watch state", "item", itemID, "err", err)
			}
		}
	}

	report.Results = e.dispatch(ctx, user, movieDecisions, episodeDecisions, tracker, dispatchPhase, logger)

	logger.Info("sync finished",
		"collect_movies", len(movieDecisions.Collect), "uncollect_movies", len(movieDecisions.Uncollect),
		"collect_shows", len(episodeDecisions.Collect), "uncollect_shows", len(episodeDecisions.Uncollect),
		"local_resets", report.LocalResets)
	return report
}

// operation pairs a payload with the dispatcher call that sends it.
type operation struct {
	name  string
	items trakt.SyncItems
	run   func(context.Context, *models.SyncUser, trakt.SyncItems) OpResult
}

// dispatch sends every applicable decision set. Collection operations honor
// the user's sync_collection flag; watched-history operations always run.
func (e *Engine) dispatch(ctx context.Context, user *models.SyncUser,
	movies *MovieDecisions, episodes *EpisodeDecisions,
	tracker *Tracker, node *Node, logger *log.Logger) []OpResult {

	var ops []operation
	if user.SyncCollection {
		ops = append(ops,
			operation{"collection add", trakt.SyncItems{Movies: movies.Collect, Shows: episodes.Collect}, e.dispatcher.AddToCollection},
			operation{"collection remove", trakt.SyncItems{Movies: movies.Uncollect, Shows: episodes.Uncollect}, e.dispatcher.RemoveFromCollection},
		)
	} else {
		logger.Info("collection sync disabled, skipping collection operations")
	}
	ops = append(ops,
		operation{"history add", trakt.SyncItems{Movies: movies.MarkWatched, Shows: episodes.MarkWatched}, e.dispatcher.AddToHistory},
		operation{"history remove", trakt.SyncItems{Movies: movies.MarkUnwatched, Shows: episodes.MarkUnwatched}, e.dispatcher.RemoveFromHistory},
	)

	opNodes := node.Split(len(ops))
	results := make([]OpResult, 0, len(ops))

	for i, op := range ops {
		if e.dryRun {
			results = append(results, OpResult{
				Op:      op.name,
				Skipped: true,
				Movies:  len(op.items.Movies),
				Shows:   len(op.items.Shows),
			})
			opNodes[i].Complete()
			continue
		}
		if ctx.Err() != nil {
			opNodes[i].Complete()
			continue
		}

		tracker.Send(dispatchUpdate(user.Name, 0, op.name))
		results = append(results, op.run(ctx, user, op.items))
		opNodes[i].Complete()
	}

	return results
}

// snapshot is the frozen input pair for one user's run: the local catalog
// lists and the four remote snapshots, all fetched before any decision.
type snapshot struct {
	movies   []models.Movie
	episodes []models.Episode
	series   []models.Series

	watchedMovies   []trakt.WatchedMovie
	collectedMovies []trakt.CollectedMovie
	watchedShows    []trakt.WatchedShow
	collectedShows  []trakt.CollectedShow
}

// fetchSnapshots builds the frozen snapshot pair. Any failure aborts the
// user's run; deciding against a partial snapshot risks mass removals.
func (e *Engine) fetchSnapshots(ctx context.Context, user *models.SyncUser, node *Node) (*snapshot, error) {
	snap := &snapshot{}
	steps := []struct {
		name string
		run  func() error
	}{
		{"local movies", func() (err error) { snap.movies, err = e.library.ListMovies(ctx, user); return }},
		{"local episodes", func() (err error) { snap.episodes, err = e.library.ListEpisodes(ctx, user); return }},
		{"local series", func() (err error) { snap.series, err = e.library.ListSeries(ctx, user); return }},
		{"watched movies", func() (err error) { snap.watchedMovies, err = e.client.WatchedMovies(ctx, user); return }},
		{"collected movies", func() (err error) { snap.collectedMovies, err = e.client.CollectedMovies(ctx, user); return }},
		{"watched shows", func() (err error) { snap.watchedShows, err = e.client.WatchedShows(ctx, user); return }},
		{"collected shows", func() (err error) { snap.collectedShows, err = e.client.CollectedShows(ctx, user); return }},
	}

	nodes := node.Split(len(steps))
	for i, step := range steps {
		if err := step.run(); err != nil {
			for _, n := range nodes[i:] {
				n.Complete()
			}
			return nil, fmt.Errorf("failed to fetch %s: %w", step.name, err)
		}
		nodes[i].Complete()
	}

	return snap, nil
}
