package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/trakt"
)

// mockClient implements trakt.Client with per-operation hooks and call recording.
type mockClient struct {
	watchedMovies   []trakt.WatchedMovie
	collectedMovies []trakt.CollectedMovie
	watchedShows    []trakt.WatchedShow
	collectedShows  []trakt.CollectedShow

	fetchErr error
	calls    []string

	addCollectionFn    func(items trakt.SyncItems) ([]trakt.SyncResponse, error)
	removeCollectionFn func(items trakt.SyncItems) ([]trakt.SyncResponse, error)
	addHistoryFn       func(items trakt.SyncItems) ([]trakt.SyncResponse, error)
	removeHistoryFn    func(items trakt.SyncItems) ([]trakt.SyncResponse, error)
}

func okResponse(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
	return []trakt.SyncResponse{{
		Added: &trakt.SyncCounts{Movies: len(items.Movies), Shows: len(items.Shows)},
	}}, nil
}

func (m *mockClient) WatchedMovies(ctx context.Context, user *models.SyncUser) ([]trakt.WatchedMovie, error) {
	m.calls = append(m.calls, "watched movies")
	return m.watchedMovies, m.fetchErr
}

func (m *mockClient) CollectedMovies(ctx context.Context, user *models.SyncUser) ([]trakt.CollectedMovie, error) {
	m.calls = append(m.calls, "collected movies")
	return m.collectedMovies, m.fetchErr
}

func (m *mockClient) WatchedShows(ctx context.Context, user *models.SyncUser) ([]trakt.WatchedShow, error) {
	m.calls = append(m.calls, "watched shows")
	return m.watchedShows, m.fetchErr
}

func (m *mockClient) CollectedShows(ctx context.Context, user *models.SyncUser) ([]trakt.CollectedShow, error) {
	m.calls = append(m.calls, "collected shows")
	return m.collectedShows, m.fetchErr
}

func (m *mockClient) AddToCollection(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) ([]trakt.SyncResponse, error) {
	m.calls = append(m.calls, "collection add")
	if m.addCollectionFn != nil {
		return m.addCollectionFn(items)
	}
	return okResponse(items)
}

func (m *mockClient) RemoveFromCollection(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) ([]trakt.SyncResponse, error) {
	m.calls = append(m.calls, "collection remove")
	if m.removeCollectionFn != nil {
		return m.removeCollectionFn(items)
	}
	return okResponse(items)
}

func (m *mockClient) AddToHistory(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) ([]trakt.SyncResponse, error) {
	m.calls = append(m.calls, "history add")
	if m.addHistoryFn != nil {
		return m.addHistoryFn(items)
	}
	return okResponse(items)
}

func (m *mockClient) RemoveFromHistory(ctx context.Context, user *models.SyncUser, items trakt.SyncItems) ([]trakt.SyncResponse, error) {
	m.calls = append(m.calls, "history remove")
	if m.removeHistoryFn != nil {
		return m.removeHistoryFn(items)
	}
	return okResponse(items)
}

func testUser(name string) *models.SyncUser {
	return &models.SyncUser{
		Name:               name,
		AccessToken:        "token",
		SyncCollection:     true,
		PostWatchedHistory: true,
	}
}

func TestDispatcherSkipsEmptyPayload(t *testing.T) {
	client := &mockClient{}
	dispatcher := NewDispatcher(client, quietLogger())

	result := dispatcher.AddToCollection(context.Background(), testUser("alice"), trakt.SyncItems{})

	if !result.Skipped {
		t.Error("empty payload should be skipped")
	}
	if len(client.calls) != 0 {
		t.Errorf("client was called for an empty payload: %v", client.calls)
	}
}

func TestDispatcherDecomposesResponses(t *testing.T) {
	client := &mockClient{
		addCollectionFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
			return []trakt.SyncResponse{
				{Added: &trakt.SyncCounts{Movies: 1}},
				{Added: &trakt.SyncCounts{Movies: 2}, Existing: &trakt.SyncCounts{Movies: 1}},
			}, nil
		},
	}
	dispatcher := NewDispatcher(client, quietLogger())

	items := trakt.SyncItems{Movies: make([]trakt.SyncMovie, 4)}
	result := dispatcher.AddToCollection(context.Background(), testUser("alice"), items)

	if result.Err != nil {
		t.Fatalf("dispatch error = %v", result.Err)
	}
	if result.Added.Movies != 3 || result.Existing.Movies != 1 {
		t.Errorf("counts = added %d existing %d, want 3 and 1", result.Added.Movies, result.Existing.Movies)
	}
}

func TestDispatcherRecordsNotFound(t *testing.T) {
	client := &mockClient{
		addHistoryFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
			return []trakt.SyncResponse{{
				Added:       &trakt.SyncCounts{Movies: 1},
				NotFoundRaw: []byte(`{"movies":[{"ids":{"imdb":"tt404"}}],"shows":[],"seasons":[],"episodes":[]}`),
			}}, nil
		},
	}
	dispatcher := NewDispatcher(client, quietLogger())

	items := trakt.SyncItems{Movies: make([]trakt.SyncMovie, 2)}
	result := dispatcher.AddToHistory(context.Background(), testUser("alice"), items)

	if len(result.NotFound.Movies) != 1 || result.NotFound.Movies[0].IDs.IMDB != "tt404" {
		t.Errorf("NotFound = %+v, want one movie tt404", result.NotFound)
	}
}

func TestDispatcherIsolatesFailure(t *testing.T) {
	client := &mockClient{
		addCollectionFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
			return nil, fmt.Errorf("%w: status 503", shared.ErrRemoteUnavailable)
		},
	}
	dispatcher := NewDispatcher(client, quietLogger())
	user := testUser("alice")
	items := trakt.SyncItems{Movies: make([]trakt.SyncMovie, 1)}

	failed := dispatcher.AddToCollection(context.Background(), user, items)
	if !errors.Is(failed.Err, shared.ErrRemoteUnavailable) {
		t.Errorf("failed op error = %v, want ErrRemoteUnavailable", failed.Err)
	}

	// The failure is recorded on the result, and a subsequent op still works.
	next := dispatcher.AddToHistory(context.Background(), user, items)
	if next.Err != nil || next.Added.Movies != 1 {
		t.Errorf("subsequent op = %+v, want clean success", next)
	}
}

func TestDispatcherKeepsPartialResponsesOnFailure(t *testing.T) {
	client := &mockClient{
		addCollectionFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
			return []trakt.SyncResponse{{Added: &trakt.SyncCounts{Movies: 100}}},
				fmt.Errorf("%w: status 502", shared.ErrRemoteUnavailable)
		},
	}
	dispatcher := NewDispatcher(client, quietLogger())

	items := trakt.SyncItems{Movies: make([]trakt.SyncMovie, 150)}
	result := dispatcher.AddToCollection(context.Background(), testUser("alice"), items)

	if result.Err == nil {
		t.Error("expected the chunk failure to be recorded")
	}
	if result.Added.Movies != 100 {
		t.Errorf("Added.Movies = %d, want the successful chunk's 100", result.Added.Movies)
	}
}
