package tasks

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/trakt"
)

// mockLibrary implements library.Service in memory.
type mockLibrary struct {
	movies   []models.Movie
	episodes []models.Episode
	series   []models.Series

	listErr error
	resets  []string
}

func (m *mockLibrary) ListMovies(ctx context.Context, user *models.SyncUser) ([]models.Movie, error) {
	return m.movies, m.listErr
}

func (m *mockLibrary) ListEpisodes(ctx context.Context, user *models.SyncUser) ([]models.Episode, error) {
	return m.episodes, m.listErr
}

func (m *mockLibrary) ListSeries(ctx context.Context, user *models.SyncUser) ([]models.Series, error) {
	return m.series, m.listErr
}

func (m *mockLibrary) SetPlayed(ctx context.Context, user *models.SyncUser, itemID string, played bool) error {
	m.resets = append(m.resets, itemID)
	return nil
}

func TestEngineSyncAll(t *testing.T) {
	t.Run("Dispatches Collection Add For Unmatched Movie", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, false)}}
		var sent trakt.SyncItems
		client := &mockClient{
			addCollectionFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
				sent = items
				return okResponse(items)
			},
		}
		engine := NewEngine(lib, client, quietLogger())

		report := engine.SyncAll(context.Background(), []*models.SyncUser{testUser("alice")}, nil)

		if len(report.Users) != 1 || report.Users[0].Err != nil {
			t.Fatalf("report = %+v, want one clean user", report.Users)
		}
		if len(sent.Movies) != 1 || sent.Movies[0].Title != "Heat" {
			t.Errorf("collection add payload = %+v, want exactly Heat", sent.Movies)
		}
	})

	t.Run("Collection Failure Does Not Stop History Dispatch", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, true)}}
		client := &mockClient{
			addCollectionFn: func(items trakt.SyncItems) ([]trakt.SyncResponse, error) {
				return nil, fmt.Errorf("%w: status 503", shared.ErrRemoteUnavailable)
			},
		}
		engine := NewEngine(lib, client, quietLogger())

		report := engine.SyncAll(context.Background(), []*models.SyncUser{testUser("alice")}, nil)

		if report.Users[0].Err != nil {
			t.Errorf("dispatch failures must not escalate to the user report, got %v", report.Users[0].Err)
		}

		var historyCalled bool
		for _, call := range client.calls {
			if call == "history add" {
				historyCalled = true
			}
		}
		if !historyCalled {
			t.Errorf("history add never ran after collection failure: calls = %v", client.calls)
		}
	})

	t.Run("Applies Local Resets Before Dispatch", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, true)}}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())

		user := testUser("alice")
		user.PostWatchedHistory = false
		user.SkipUnwatchedImport = false

		report := engine.SyncAll(context.Background(), []*models.SyncUser{user}, nil)

		if report.Users[0].LocalResets != 1 {
			t.Errorf("LocalResets = %d, want 1", report.Users[0].LocalResets)
		}
		if len(lib.resets) != 1 || lib.resets[0] != "tt1" {
			t.Errorf("library resets = %v, want [tt1]", lib.resets)
		}
	})

	t.Run("Dry Run Touches Nothing", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, true)}}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())
		engine.SetDryRun(true)

		user := testUser("alice")
		user.PostWatchedHistory = false

		report := engine.SyncAll(context.Background(), []*models.SyncUser{user}, nil)

		if len(lib.resets) != 0 {
			t.Errorf("dry run reset local state: %v", lib.resets)
		}
		for _, call := range client.calls {
			if strings.Contains(call, "add") || strings.Contains(call, "remove") {
				t.Errorf("dry run dispatched %q", call)
			}
		}
		if !report.DryRun || len(report.Users[0].Results) == 0 {
			t.Errorf("dry run report should still record planned operations, got %+v", report.Users[0])
		}
		if report.Users[0].Movies == nil {
			t.Error("dry run report should carry the computed decisions")
		}
	})

	t.Run("Skips Collection Ops When Disabled", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, true)}}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())

		user := testUser("alice")
		user.SyncCollection = false

		engine.SyncAll(context.Background(), []*models.SyncUser{user}, nil)

		for _, call := range client.calls {
			if strings.HasPrefix(call, "collection") {
				t.Errorf("collection op %q dispatched with sync_collection disabled", call)
			}
		}

		var historyCalled bool
		for _, call := range client.calls {
			if call == "history add" {
				historyCalled = true
			}
		}
		if !historyCalled {
			t.Errorf("watched-history ops should run regardless: calls = %v", client.calls)
		}
	})

	t.Run("Unauthenticated User Is Recorded And Skipped", func(t *testing.T) {
		lib := &mockLibrary{}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())

		report := engine.SyncAll(context.Background(), []*models.SyncUser{{Name: "bob"}}, nil)

		if report.Users[0].Error == "" {
			t.Error("unauthenticated user should carry an error in the report")
		}
		if len(client.calls) != 0 {
			t.Errorf("client was called for unauthenticated user: %v", client.calls)
		}
	})

	t.Run("Fetch Failure Is Isolated Per User", func(t *testing.T) {
		lib := &mockLibrary{}
		client := &mockClient{fetchErr: fmt.Errorf("%w: status 500", shared.ErrRemoteUnavailable)}
		engine := NewEngine(lib, client, quietLogger())

		users := []*models.SyncUser{testUser("alice"), testUser("bob")}
		report := engine.SyncAll(context.Background(), users, nil)

		if len(report.Users) != 2 {
			t.Fatalf("report covers %d users, want 2", len(report.Users))
		}
		for _, u := range report.Users {
			if u.Error == "" {
				t.Errorf("user %s should record the fetch failure", u.User)
			}
		}
	})

	t.Run("Cancellation Stops The Run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		lib := &mockLibrary{}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())

		report := engine.SyncAll(ctx, []*models.SyncUser{testUser("alice"), testUser("bob")}, nil)

		if len(report.Users) != 0 {
			t.Errorf("cancelled run processed %d users, want 0", len(report.Users))
		}
	})

	t.Run("Progress Reaches Completion", func(t *testing.T) {
		lib := &mockLibrary{movies: []models.Movie{localMovie("tt1", "Heat", 1995, false)}}
		client := &mockClient{}
		engine := NewEngine(lib, client, quietLogger())

		progress := make(chan ProgressUpdate, 256)
		engine.SyncAll(context.Background(), []*models.SyncUser{testUser("alice")}, progress)
		close(progress)

		var last ProgressUpdate
		var sawRunDone bool
		for update := range progress {
			last = update
			if update.Phase == RunDone {
				sawRunDone = true
			}
		}
		if !sawRunDone {
			t.Error("no RunDone update emitted")
		}
		if last.Percent < 99.9 {
			t.Errorf("final percent = %v, want ~100", last.Percent)
		}
	})
}
