package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/match"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/trakt"
)

// MovieDecisions is the outcome of one movie reconciliation pass.
//
// The four payload sets are disjoint per axis: a movie never appears in both
// Collect and Uncollect, nor in both MarkWatched and MarkUnwatched.
// LocalResets lists catalog item ids whose played flag should be cleared
// locally; the caller applies them before dispatching anything.
type MovieDecisions struct {
	Collect       []trakt.SyncMovie
	Uncollect     []trakt.SyncMovie
	MarkWatched   []trakt.SyncMovie
	MarkUnwatched []trakt.SyncMovie
	LocalResets   []string
}

// syncMovieFromLocal builds a sync payload item from a catalog movie,
// attaching file metadata only when the user exports it.
func syncMovieFromLocal(m models.Movie, exportMediaInfo bool) trakt.SyncMovie {
	item := trakt.SyncMovie{
		Title: m.Title,
		Year:  m.Year,
		IDs:   trakt.IDsFromProvider(m.IDs),
	}
	if exportMediaInfo {
		item.CollectionMetadata = trakt.CollectionMetadata{
			Resolution:    m.Media.Resolution,
			HDR:           m.Media.HDR,
			Audio:         m.Media.Audio,
			AudioChannels: m.Media.AudioChannels,
		}
	}
	return item
}

// syncMovieFromRemote builds a sync payload item addressing a remote entry by
// its own ids, used for removals.
func syncMovieFromRemote(m trakt.Movie) trakt.SyncMovie {
	return trakt.SyncMovie{Title: m.Title, Year: m.Year, IDs: m.IDs}
}

// ReconcileMovies computes the collection and watched-history changes that
// bring the remote state in line with the local catalog.
//
// The function is pure apart from debug logging and progress accounting:
// identical snapshots always produce identical decisions. Cancellation is
// checked once per local movie. progress may be nil.
func ReconcileMovies(ctx context.Context, user *models.SyncUser, local []models.Movie,
	watched []trakt.WatchedMovie, collected []trakt.CollectedMovie,
	progress *Node, logger *log.Logger) (*MovieDecisions, error) {

	decisions := &MovieDecisions{}

	var itemNodes []*Node
	if progress != nil {
		itemNodes = progress.Split(len(local))
	}

	for i, movie := range local {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		collectedMatches := match.FindAll(movie, collected)
		needsCollect := len(collectedMatches) == 0
		if !needsCollect && user.ExportMediaInfo {
			// Re-collect only when every remote copy disagrees with the local file.
			needsCollect = true
			for _, entry := range collectedMatches {
				if !entry.MetadataDiffers(movie.Media) {
					needsCollect = false
					break
				}
			}
		}
		if needsCollect {
			if len(collectedMatches) == 0 {
				logger.Debug("movie not collected remotely", "title", movie.Title, "year", movie.Year)
			}
			decisions.Collect = append(decisions.Collect, syncMovieFromLocal(movie, user.ExportMediaInfo))
		}

		remoteWatched := false
		for _, entry := range match.FindAll(movie, watched) {
			if entry.Plays > 0 {
				remoteWatched = true
				break
			}
		}

		switch {
		case movie.Played && !remoteWatched:
			if user.PostWatchedHistory {
				decisions.MarkWatched = append(decisions.MarkWatched, syncMovieFromLocal(movie, false))
			} else if !user.SkipUnwatchedImport {
				// Remote is authoritative: clear the local played flag instead.
				decisions.LocalResets = append(decisions.LocalResets, movie.ID)
			}
		case !movie.Played && remoteWatched:
			decisions.MarkUnwatched = append(decisions.MarkUnwatched, syncMovieFromLocal(movie, false))
		}

		if itemNodes != nil {
			itemNodes[i].Complete()
		}
	}

	for _, entry := range collected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := match.Find(entry, local); !ok {
			logger.Debug("remote movie has no local match", "title", entry.Movie.Title, "year", entry.Movie.Year)
			decisions.Uncollect = append(decisions.Uncollect, syncMovieFromRemote(entry.Movie))
		}
	}

	return decisions, nil
}
