package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/match"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/trakt"
)

// EpisodeDecisions is the outcome of one show reconciliation pass.
//
// Every payload set is grouped show by show, season by season, because the
// remote add and remove calls are structured rather than itemized. A show in
// Uncollect with no seasons addresses the entire show.
type EpisodeDecisions struct {
	Collect       []trakt.SyncShow
	Uncollect     []trakt.SyncShow
	MarkWatched   []trakt.SyncShow
	MarkUnwatched []trakt.SyncShow
	LocalResets   []string
}

// showAccumulator groups per-episode payload items into the nested
// show > season > episode shape, preserving first-seen order.
type showAccumulator struct {
	shows []trakt.SyncShow
	index map[string]int
}

func newShowAccumulator() *showAccumulator {
	return &showAccumulator{index: map[string]int{}}
}

func (a *showAccumulator) add(series models.Series, season int, episode trakt.SyncEpisode) {
	i, ok := a.index[series.ID]
	if !ok {
		i = len(a.shows)
		a.index[series.ID] = i
		a.shows = append(a.shows, trakt.SyncShow{
			Title: series.Title,
			Year:  series.Year,
			IDs:   trakt.IDsFromProvider(series.IDs),
		})
	}

	show := &a.shows[i]
	for j := range show.Seasons {
		if show.Seasons[j].Number == season {
			show.Seasons[j].Episodes = append(show.Seasons[j].Episodes, episode)
			return
		}
	}
	show.Seasons = append(show.Seasons, trakt.SyncSeason{
		Number:   season,
		Episodes: []trakt.SyncEpisode{episode},
	})
}

// syncEpisode builds a payload episode, attaching file metadata only when the
// user exports it.
func syncEpisode(e models.Episode, exportMediaInfo bool) trakt.SyncEpisode {
	item := trakt.SyncEpisode{Number: e.Number}
	if exportMediaInfo {
		item.CollectionMetadata = trakt.CollectionMetadata{
			Resolution:    e.Media.Resolution,
			HDR:           e.Media.HDR,
			Audio:         e.Media.Audio,
			AudioChannels: e.Media.AudioChannels,
		}
	}
	return item
}

// ReconcileEpisodes computes the collection and watched-history changes for
// the show hierarchy.
//
// The per-episode pass mirrors the movie rules, with remote truth looked up
// inside the show matched to the episode's owning series. The uncollect pass
// then walks the remote collected shows and builds the structured removal
// payload: whole show when the series has no local match, otherwise only the
// unmatched episodes grouped under their seasons.
func ReconcileEpisodes(ctx context.Context, user *models.SyncUser,
	episodes []models.Episode, series []models.Series,
	watched []trakt.WatchedShow, collected []trakt.CollectedShow,
	progress *Node, logger *log.Logger) (*EpisodeDecisions, error) {

	decisions := &EpisodeDecisions{}

	var itemNodes []*Node
	if progress != nil {
		itemNodes = progress.Split(len(episodes))
	}

	seriesByID := make(map[string]models.Series, len(series))
	for _, s := range series {
		seriesByID[s.ID] = s
	}

	// Remote matches are resolved once per series, not once per episode.
	watchedBySeries := make(map[string][]trakt.WatchedShow, len(series))
	collectedBySeries := make(map[string][]trakt.CollectedShow, len(series))
	for _, s := range series {
		watchedBySeries[s.ID] = match.FindAll(s, watched)
		collectedBySeries[s.ID] = match.FindAll(s, collected)
	}

	collect := newShowAccumulator()
	markWatched := newShowAccumulator()
	markUnwatched := newShowAccumulator()

	for i, episode := range episodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if itemNodes != nil {
			itemNodes[i].Complete()
		}

		owner, ok := seriesByID[episode.SeriesID]
		if !ok {
			logger.Debug("episode has no local series, skipping",
				"title", episode.Title, "season", episode.Season, "number", episode.Number)
			continue
		}

		var listings []*trakt.CollectionMetadata
		for _, show := range collectedBySeries[owner.ID] {
			if show.EpisodeCollected(episode.Season, episode.Number) {
				listings = append(listings, show.EpisodeMetadata(episode.Season, episode.Number))
			}
		}

		needsCollect := len(listings) == 0
		if !needsCollect && user.ExportMediaInfo {
			needsCollect = true
			for _, meta := range listings {
				if !episode.Media.Differs(meta.MediaInfo()) {
					needsCollect = false
					break
				}
			}
		}
		if needsCollect {
			if len(listings) == 0 {
				logger.Debug("episode not collected remotely",
					"series", owner.Title, "season", episode.Season, "number", episode.Number)
			}
			collect.add(owner, episode.Season, syncEpisode(episode, user.ExportMediaInfo))
		}

		remoteWatched := false
		for _, show := range watchedBySeries[owner.ID] {
			if show.EpisodeWatched(episode.Season, episode.Number) {
				remoteWatched = true
				break
			}
		}

		switch {
		case episode.Played && !remoteWatched:
			if user.PostWatchedHistory {
				markWatched.add(owner, episode.Season, syncEpisode(episode, false))
			} else if !user.SkipUnwatchedImport {
				decisions.LocalResets = append(decisions.LocalResets, episode.ID)
			}
		case !episode.Played && remoteWatched:
			markUnwatched.add(owner, episode.Season, syncEpisode(episode, false))
		}
	}

	decisions.Collect = collect.shows
	decisions.MarkWatched = markWatched.shows
	decisions.MarkUnwatched = markUnwatched.shows

	// Local episode index for the uncollect pass: series id > season > number.
	localEpisodes := make(map[string]map[int]map[int]bool)
	for _, episode := range episodes {
		if _, ok := seriesByID[episode.SeriesID]; !ok {
			continue
		}
		seasons := localEpisodes[episode.SeriesID]
		if seasons == nil {
			seasons = map[int]map[int]bool{}
			localEpisodes[episode.SeriesID] = seasons
		}
		if seasons[episode.Season] == nil {
			seasons[episode.Season] = map[int]bool{}
		}
		seasons[episode.Season][episode.Number] = true
	}

	for _, remote := range collected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		localSeries, ok := match.Find(remote, series)
		if !ok {
			logger.Debug("remote show has no local match", "title", remote.Show.Title, "year", remote.Show.Year)
			decisions.Uncollect = append(decisions.Uncollect, trakt.SyncShow{
				Title: remote.Show.Title,
				Year:  remote.Show.Year,
				IDs:   remote.Show.IDs,
			})
			continue
		}

		owned := localEpisodes[localSeries.ID]
		var removal []trakt.SyncSeason
		for _, season := range remote.Seasons {
			var missing []trakt.SyncEpisode
			for _, episode := range season.Episodes {
				if !owned[season.Number][episode.Number] {
					missing = append(missing, trakt.SyncEpisode{Number: episode.Number})
				}
			}
			if len(missing) > 0 {
				removal = append(removal, trakt.SyncSeason{Number: season.Number, Episodes: missing})
			}
		}
		if len(removal) > 0 {
			decisions.Uncollect = append(decisions.Uncollect, trakt.SyncShow{
				Title:   remote.Show.Title,
				Year:    remote.Show.Year,
				IDs:     remote.Show.IDs,
				Seasons: removal,
			})
		}
	}

	return decisions, nil
}
