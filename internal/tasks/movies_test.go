package tasks

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/trakt"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func localMovie(id, title string, year int, played bool) models.Movie {
	return models.Movie{
		ID:     id,
		Title:  title,
		Year:   year,
		IDs:    models.ProviderIDs{"imdb": id},
		Played: played,
	}
}

func remoteWatchedMovie(imdb, title string, year, plays int) trakt.WatchedMovie {
	return trakt.WatchedMovie{
		Plays: plays,
		Movie: trakt.Movie{Title: title, Year: year, IDs: trakt.ItemIDs{IMDB: imdb}},
	}
}

func remoteCollectedMovie(imdb, title string, year int) trakt.CollectedMovie {
	return trakt.CollectedMovie{
		Movie: trakt.Movie{Title: title, Year: year, IDs: trakt.ItemIDs{IMDB: imdb}},
	}
}

func TestReconcileMoviesCollection(t *testing.T) {
	ctx := context.Background()
	user := &models.SyncUser{Name: "alice", SyncCollection: true}

	local := []models.Movie{
		localMovie("tt1", "Heat", 1995, false),
		localMovie("tt2", "Alien", 1979, false),
	}
	collected := []trakt.CollectedMovie{
		remoteCollectedMovie("tt2", "Alien", 1979),
		remoteCollectedMovie("tt9", "Orphan Remote", 2001),
	}

	decisions, err := ReconcileMovies(ctx, user, local, nil, collected, nil, quietLogger())
	if err != nil {
		t.Fatalf("ReconcileMovies() error = %v", err)
	}

	if len(decisions.Collect) != 1 || decisions.Collect[0].Title != "Heat" {
		t.Errorf("Collect = %+v, want only Heat", decisions.Collect)
	}
	if len(decisions.Uncollect) != 1 || decisions.Uncollect[0].Title != "Orphan Remote" {
		t.Errorf("Uncollect = %+v, want only Orphan Remote", decisions.Uncollect)
	}
}

func TestReconcileMoviesMetadataRecollect(t *testing.T) {
	ctx := context.Background()
	local := []models.Movie{
		{
			ID: "m1", Title: "Heat", Year: 1995,
			IDs:   models.ProviderIDs{"imdb": "tt1"},
			Media: models.MediaInfo{Resolution: "uhd_4k"},
		},
	}
	collected := []trakt.CollectedMovie{
		{
			Movie:    trakt.Movie{Title: "Heat", Year: 1995, IDs: trakt.ItemIDs{IMDB: "tt1"}},
			Metadata: &trakt.CollectionMetadata{Resolution: "hd_1080p"},
		},
	}

	t.Run("export enabled recollects on difference", func(t *testing.T) {
		user := &models.SyncUser{Name: "alice", ExportMediaInfo: true}
		decisions, err := ReconcileMovies(ctx, user, local, nil, collected, nil, quietLogger())
		if err != nil {
			t.Fatalf("ReconcileMovies() error = %v", err)
		}
		if len(decisions.Collect) != 1 {
			t.Fatalf("Collect = %+v, want the upgraded movie", decisions.Collect)
		}
		if decisions.Collect[0].Resolution != "uhd_4k" {
			t.Errorf("Collect metadata = %+v, want resolution uhd_4k", decisions.Collect[0].CollectionMetadata)
		}
	})

	t.Run("export disabled leaves match alone", func(t *testing.T) {
		user := &models.SyncUser{Name: "alice"}
		decisions, err := ReconcileMovies(ctx, user, local, nil, collected, nil, quietLogger())
		if err != nil {
			t.Fatalf("ReconcileMovies() error = %v", err)
		}
		if len(decisions.Collect) != 0 {
			t.Errorf("Collect = %+v, want empty", decisions.Collect)
		}
	})

	t.Run("one agreeing duplicate suppresses recollect", func(t *testing.T) {
		user := &models.SyncUser{Name: "alice", ExportMediaInfo: true}
		dupes := append([]trakt.CollectedMovie{}, collected...)
		dupes = append(dupes, trakt.CollectedMovie{
			Movie:    trakt.Movie{Title: "Heat", Year: 1995, IDs: trakt.ItemIDs{IMDB: "tt1"}},
			Metadata: &trakt.CollectionMetadata{Resolution: "uhd_4k"},
		})
		decisions, err := ReconcileMovies(ctx, user, local, nil, dupes, nil, quietLogger())
		if err != nil {
			t.Fatalf("ReconcileMovies() error = %v", err)
		}
		if len(decisions.Collect) != 0 {
			t.Errorf("Collect = %+v, want empty when any remote copy matches", decisions.Collect)
		}
	})
}

func TestReconcileMoviesWatchedState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		user          models.SyncUser
		played        bool
		remotePlays   int
		remoteEntry   bool
		wantWatched   int
		wantUnwatched int
		wantResets    int
	}{
		{
			name:        "played locally posts history when enabled",
			user:        models.SyncUser{PostWatchedHistory: true},
			played:      true,
			remoteEntry: false,
			wantWatched: 1,
		},
		{
			name:       "played locally resets when remote is authoritative",
			user:       models.SyncUser{PostWatchedHistory: false, SkipUnwatchedImport: false},
			played:     true,
			wantResets: 1,
		},
		{
			name:   "skip unwatched import leaves local state alone",
			user:   models.SyncUser{PostWatchedHistory: false, SkipUnwatchedImport: true},
			played: true,
		},
		{
			name:          "unplayed locally removes remote history",
			user:          models.SyncUser{PostWatchedHistory: true},
			played:        false,
			remoteEntry:   true,
			remotePlays:   3,
			wantUnwatched: 1,
		},
		{
			name:        "zero plays counts as unwatched remotely",
			user:        models.SyncUser{PostWatchedHistory: false, SkipUnwatchedImport: false},
			played:      true,
			remoteEntry: true,
			remotePlays: 0,
			wantResets:  1,
		},
		{
			name:        "states already agree",
			user:        models.SyncUser{PostWatchedHistory: true},
			played:      true,
			remoteEntry: true,
			remotePlays: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			user.Name = "alice"

			local := []models.Movie{localMovie("tt1", "Heat", 1995, tt.played)}
			var watched []trakt.WatchedMovie
			if tt.remoteEntry {
				watched = append(watched, remoteWatchedMovie("tt1", "Heat", 1995, tt.remotePlays))
			}
			collected := []trakt.CollectedMovie{remoteCollectedMovie("tt1", "Heat", 1995)}

			decisions, err := ReconcileMovies(ctx, &user, local, watched, collected, nil, quietLogger())
			if err != nil {
				t.Fatalf("ReconcileMovies() error = %v", err)
			}

			if got := len(decisions.MarkWatched); got != tt.wantWatched {
				t.Errorf("MarkWatched = %d entries, want %d", got, tt.wantWatched)
			}
			if got := len(decisions.MarkUnwatched); got != tt.wantUnwatched {
				t.Errorf("MarkUnwatched = %d entries, want %d", got, tt.wantUnwatched)
			}
			if got := len(decisions.LocalResets); got != tt.wantResets {
				t.Errorf("LocalResets = %d entries, want %d", got, tt.wantResets)
			}
		})
	}
}

func TestReconcileMoviesIdempotence(t *testing.T) {
	ctx := context.Background()
	user := &models.SyncUser{Name: "alice", PostWatchedHistory: true, ExportMediaInfo: true}

	local := []models.Movie{
		localMovie("tt1", "Heat", 1995, true),
		localMovie("tt2", "Alien", 1979, false),
		localMovie("tt3", "Dune", 2021, true),
	}
	watched := []trakt.WatchedMovie{remoteWatchedMovie("tt2", "Alien", 1979, 2)}
	collected := []trakt.CollectedMovie{remoteCollectedMovie("tt1", "Heat", 1995)}

	first, err := ReconcileMovies(ctx, user, local, watched, collected, nil, quietLogger())
	if err != nil {
		t.Fatalf("ReconcileMovies() error = %v", err)
	}
	second, err := ReconcileMovies(ctx, user, local, watched, collected, nil, quietLogger())
	if err != nil {
		t.Fatalf("ReconcileMovies() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconciliation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReconcileMoviesPartition(t *testing.T) {
	ctx := context.Background()
	user := &models.SyncUser{Name: "alice", PostWatchedHistory: true}

	local := []models.Movie{
		localMovie("tt1", "Heat", 1995, true),
		localMovie("tt2", "Alien", 1979, false),
	}
	watched := []trakt.WatchedMovie{remoteWatchedMovie("tt2", "Alien", 1979, 1)}
	collected := []trakt.CollectedMovie{
		remoteCollectedMovie("tt1", "Heat", 1995),
		remoteCollectedMovie("tt9", "Orphan", 2001),
	}

	decisions, err := ReconcileMovies(ctx, user, local, watched, collected, nil, quietLogger())
	if err != nil {
		t.Fatalf("ReconcileMovies() error = %v", err)
	}

	inSet := func(items []trakt.SyncMovie) map[string]bool {
		set := map[string]bool{}
		for _, m := range items {
			set[m.IDs.IMDB] = true
		}
		return set
	}

	collect, uncollect := inSet(decisions.Collect), inSet(decisions.Uncollect)
	for id := range collect {
		if uncollect[id] {
			t.Errorf("item %s appears in both Collect and Uncollect", id)
		}
	}
	markW, markU := inSet(decisions.MarkWatched), inSet(decisions.MarkUnwatched)
	for id := range markW {
		if markU[id] {
			t.Errorf("item %s appears in both MarkWatched and MarkUnwatched", id)
		}
	}
}

func TestReconcileMoviesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user := &models.SyncUser{Name: "alice"}
	local := []models.Movie{localMovie("tt1", "Heat", 1995, false)}

	if _, err := ReconcileMovies(ctx, user, local, nil, nil, nil, quietLogger()); err == nil {
		t.Error("ReconcileMovies() should return the cancellation error")
	}
}
