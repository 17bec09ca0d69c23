package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/trakt"
)

// OpResult summarizes one dispatched operation.
type OpResult struct {
	Op       string              `json:"op"`
	Skipped  bool                `json:"skipped"`
	Movies   int                 `json:"movies"`
	Shows    int                 `json:"shows"`
	Added    trakt.SyncCounts    `json:"added"`
	Existing trakt.SyncCounts    `json:"existing"`
	Deleted  trakt.SyncCounts    `json:"deleted"`
	NotFound trakt.NotFoundItems `json:"not_found"`
	Err      error               `json:"-"`
}

// Dispatcher submits decision sets to the remote client.
//
// Each operation is an independent call: a failure is logged and recorded on
// its result, never propagated, so the remaining operations still run. Empty
// payloads are skipped without touching the client. Nothing is retried within
// a run; the next scheduled run picks up whatever a failed batch left behind.
type Dispatcher struct {
	client trakt.Client
	logger *log.Logger
}

// NewDispatcher creates a Dispatcher sending through the given client.
func NewDispatcher(client trakt.Client, logger *log.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

type submitFunc func(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) ([]trakt.SyncResponse, error)

// AddToCollection dispatches collection additions.
func (d *Dispatcher) AddToCollection(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) OpResult {
	return d.send(ctx, user, "collection add", items, d.client.AddToCollection)
}

// RemoveFromCollection dispatches the structured collection-removal payload.
func (d *Dispatcher) RemoveFromCollection(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) OpResult {
	return d.send(ctx, user, "collection remove", items, d.client.RemoveFromCollection)
}

// AddToHistory dispatches watched-history additions.
func (d *Dispatcher) AddToHistory(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) OpResult {
	return d.send(ctx, user, "history add", items, d.client.AddToHistory)
}

// RemoveFromHistory dispatches watched-history removals.
func (d *Dispatcher) RemoveFromHistory(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) OpResult {
	return d.send(ctx, user, "history remove", items, d.client.RemoveFromHistory)
}

// send submits one operation and decomposes every batch response into the
// result's counts. Items the remote could not resolve are logged at error
// level with their identity; they signal an id worth investigating, not a
// condition to correct automatically.
func (d *Dispatcher) send(ctx context.Context, user *models.SyncUser, op string, items trakt.SyncItems, submit submitFunc) OpResult {
	result := OpResult{
		Op:     op,
		Movies: len(items.Movies),
		Shows:  len(items.Shows),
	}

	if items.Empty() {
		result.Skipped = true
		return result
	}

	logger := d.logger.With("user", user.Name, "op", op)
	logger.Info("dispatching", "movies", result.Movies, "shows", result.Shows)

	responses, err := submit(ctx, user, items)
	if err != nil {
		logger.Error("dispatch failed", "err", err)
		result.Err = err
	}

	for _, resp := range responses {
		result.Added = addCounts(result.Added, resp.Added)
		result.Existing = addCounts(result.Existing, resp.Existing)
		result.Deleted = addCounts(result.Deleted, resp.Deleted)

		notFound := resp.NotFound()
		for _, m := range notFound.Movies {
			logger.Error("remote could not resolve movie", "title", m.Title, "year", m.Year, "ids", m.IDs)
		}
		for _, s := range notFound.Shows {
			logger.Error("remote could not resolve show", "title", s.Title, "year", s.Year, "ids", s.IDs)
		}
		for _, s := range notFound.Seasons {
			logger.Error("remote could not resolve season", "number", s.Number)
		}
		for _, e := range notFound.Episodes {
			logger.Error("remote could not resolve episode", "number", e.Number)
		}

		result.NotFound.Movies = append(result.NotFound.Movies, notFound.Movies...)
		result.NotFound.Shows = append(result.NotFound.Shows, notFound.Shows...)
		result.NotFound.Seasons = append(result.NotFound.Seasons, notFound.Seasons...)
		result.NotFound.Episodes = append(result.NotFound.Episodes, notFound.Episodes...)
	}

	logger.Debug("dispatch response",
		"added", result.Added, "existing", result.Existing, "deleted", result.Deleted)

	return result
}

// addCounts accumulates an optional response section into a running total.
func addCounts(total trakt.SyncCounts, section *trakt.SyncCounts) trakt.SyncCounts {
	if section == nil {
		return total
	}
	total.Movies += section.Movies
	total.Shows += section.Shows
	total.Seasons += section.Seasons
	total.Episodes += section.Episodes
	return total
}
