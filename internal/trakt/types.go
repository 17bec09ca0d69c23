package trakt

import (
	"encoding/json"
	"strconv"

	"github.com/desertthunder/tsync/internal/models"
)

// ItemIDs is the wire form of a title's external provider ids.
type ItemIDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
	TVDB  int    `json:"tvdb,omitempty"`
}

// Provider converts wire ids to the matcher's provider map, skipping zero values.
func (i ItemIDs) Provider() models.ProviderIDs {
	ids := models.ProviderIDs{}
	if i.Trakt != 0 {
		ids["trakt"] = strconv.Itoa(i.Trakt)
	}
	if i.Slug != "" {
		ids["slug"] = i.Slug
	}
	if i.IMDB != "" {
		ids["imdb"] = i.IMDB
	}
	if i.TMDB != 0 {
		ids["tmdb"] = strconv.Itoa(i.TMDB)
	}
	if i.TVDB != 0 {
		ids["tvdb"] = strconv.Itoa(i.TVDB)
	}
	return ids
}

// IDsFromProvider converts a provider map back to wire form for sync payloads.
func IDsFromProvider(ids models.ProviderIDs) ItemIDs {
	out := ItemIDs{
		Slug: ids["slug"],
		IMDB: ids["imdb"],
	}
	if v, err := strconv.Atoi(ids["trakt"]); err == nil {
		out.Trakt = v
	}
	if v, err := strconv.Atoi(ids["tmdb"]); err == nil {
		out.TMDB = v
	}
	if v, err := strconv.Atoi(ids["tvdb"]); err == nil {
		out.TVDB = v
	}
	return out
}

// Movie is the wire form of a movie title.
type Movie struct {
	Title string  `json:"title"`
	Year  int     `json:"year"`
	IDs   ItemIDs `json:"ids"`
}

func (m Movie) Ident() models.Ident {
	return models.Ident{Title: m.Title, Year: m.Year, IDs: m.IDs.Provider()}
}

// Show is the wire form of a show title.
type Show struct {
	Title string  `json:"title"`
	Year  int     `json:"year"`
	IDs   ItemIDs `json:"ids"`
}

func (s Show) Ident() models.Ident {
	return models.Ident{Title: s.Title, Year: s.Year, IDs: s.IDs.Provider()}
}

// CollectionMetadata carries the file attributes Trakt stores per collected item.
type CollectionMetadata struct {
	MediaType     string `json:"media_type,omitempty"`
	Resolution    string `json:"resolution,omitempty"`
	HDR           string `json:"hdr,omitempty"`
	Audio         string `json:"audio,omitempty"`
	AudioChannels string `json:"audio_channels,omitempty"`
}

// MediaInfo converts the wire metadata into the local comparison form.
func (m *CollectionMetadata) MediaInfo() models.MediaInfo {
	if m == nil {
		return models.MediaInfo{}
	}
	return models.MediaInfo{
		Resolution:    m.Resolution,
		HDR:           m.HDR,
		Audio:         m.Audio,
		AudioChannels: m.AudioChannels,
	}
}

// WatchedMovie is one entry of the watched-movies snapshot.
type WatchedMovie struct {
	Plays         int    `json:"plays"`
	LastWatchedAt string `json:"last_watched_at,omitempty"`
	Movie         Movie  `json:"movie"`
}

func (w WatchedMovie) Ident() models.Ident { return w.Movie.Ident() }

// CollectedMovie is one entry of the collected-movies snapshot.
type CollectedMovie struct {
	CollectedAt string              `json:"collected_at,omitempty"`
	Movie       Movie               `json:"movie"`
	Metadata    *CollectionMetadata `json:"metadata,omitempty"`
}

func (c CollectedMovie) Ident() models.Ident { return c.Movie.Ident() }

// MetadataDiffers reports whether the local file attributes differ from what Trakt has collected.
func (c CollectedMovie) MetadataDiffers(local models.MediaInfo) bool {
	return local.Differs(c.Metadata.MediaInfo())
}

// WatchedShow is one entry of the watched-shows snapshot, nested by season and episode.
type WatchedShow struct {
	Plays   int             `json:"plays,omitempty"`
	Show    Show            `json:"show"`
	Seasons []WatchedSeason `json:"seasons,omitempty"`
}

type WatchedSeason struct {
	Number   int              `json:"number"`
	Episodes []WatchedEpisode `json:"episodes,omitempty"`
}

type WatchedEpisode struct {
	Number int `json:"number"`
	Plays  int `json:"plays"`
}

func (w WatchedShow) Ident() models.Ident { return w.Show.Ident() }

// EpisodeWatched reports whether some season entry lists the episode with plays > 0.
func (w WatchedShow) EpisodeWatched(season, number int) bool {
	for _, s := range w.Seasons {
		if s.Number != season {
			continue
		}
		for _, e := range s.Episodes {
			if e.Number == number && e.Plays > 0 {
				return true
			}
		}
	}
	return false
}

// CollectedShow is one entry of the collected-shows snapshot, nested by season and episode.
type CollectedShow struct {
	LastCollectedAt string            `json:"last_collected_at,omitempty"`
	Show            Show              `json:"show"`
	Seasons         []CollectedSeason `json:"seasons,omitempty"`
}

type CollectedSeason struct {
	Number   int                `json:"number"`
	Episodes []CollectedEpisode `json:"episodes,omitempty"`
}

type CollectedEpisode struct {
	Number      int                 `json:"number"`
	CollectedAt string              `json:"collected_at,omitempty"`
	Metadata    *CollectionMetadata `json:"metadata,omitempty"`
}

func (c CollectedShow) Ident() models.Ident { return c.Show.Ident() }

// EpisodeCollected reports whether the show lists the episode under the given season.
func (c CollectedShow) EpisodeCollected(season, number int) bool {
	for _, s := range c.Seasons {
		if s.Number != season {
			continue
		}
		for _, e := range s.Episodes {
			if e.Number == number {
				return true
			}
		}
	}
	return false
}

// EpisodeMetadata returns the collected file metadata for an episode, or nil
// when the episode is not listed.
func (c CollectedShow) EpisodeMetadata(season, number int) *CollectionMetadata {
	for _, s := range c.Seasons {
		if s.Number != season {
			continue
		}
		for _, e := range s.Episodes {
			if e.Number == number {
				return e.Metadata
			}
		}
	}
	return nil
}

// SyncMovie is one movie in a sync request payload. Collection metadata fields are
// flattened onto the item as the API expects.
type SyncMovie struct {
	Title       string  `json:"title,omitempty"`
	Year        int     `json:"year,omitempty"`
	IDs         ItemIDs `json:"ids"`
	WatchedAt   string  `json:"watched_at,omitempty"`
	CollectedAt string  `json:"collected_at,omitempty"`
	CollectionMetadata
}

// SyncShow is one show in a sync request payload. An empty Seasons slice addresses
// the entire show; otherwise only the listed season/episode numbers are affected.
type SyncShow struct {
	Title   string       `json:"title,omitempty"`
	Year    int          `json:"year,omitempty"`
	IDs     ItemIDs      `json:"ids"`
	Seasons []SyncSeason `json:"seasons,omitempty"`
}

type SyncSeason struct {
	Number   int           `json:"number"`
	Episodes []SyncEpisode `json:"episodes,omitempty"`
}

type SyncEpisode struct {
	Number      int    `json:"number"`
	WatchedAt   string `json:"watched_at,omitempty"`
	CollectedAt string `json:"collected_at,omitempty"`
	CollectionMetadata
}

// SyncItems is the body of every collection/history add or remove call.
type SyncItems struct {
	Movies []SyncMovie `json:"movies,omitempty"`
	Shows  []SyncShow  `json:"shows,omitempty"`
}

// Empty reports whether the payload carries no items at all.
func (s SyncItems) Empty() bool {
	return len(s.Movies) == 0 && len(s.Shows) == 0
}

// SyncCounts is the per-kind item tally in a sync response section.
type SyncCounts struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows"`
	Seasons  int `json:"seasons"`
	Episodes int `json:"episodes"`
}

// NotFoundItems lists the payload items Trakt could not resolve.
type NotFoundItems struct {
	Movies   []SyncMovie   `json:"movies"`
	Shows    []SyncShow    `json:"shows"`
	Seasons  []SyncSeason  `json:"seasons"`
	Episodes []SyncEpisode `json:"episodes"`
}

// SyncResponse summarizes one batch submission.
//
// The not_found section is kept raw and decoded lazily: a missing or malformed
// section must not fail the batch.
type SyncResponse struct {
	Added       *SyncCounts     `json:"added,omitempty"`
	Existing    *SyncCounts     `json:"existing,omitempty"`
	Deleted     *SyncCounts     `json:"deleted,omitempty"`
	NotFoundRaw json.RawMessage `json:"not_found,omitempty"`
}

// NotFound decodes the not_found section, returning an empty value when the
// section is absent or cannot be interpreted.
func (r *SyncResponse) NotFound() NotFoundItems {
	var items NotFoundItems
	if len(r.NotFoundRaw) == 0 {
		return items
	}
	if err := json.Unmarshal(r.NotFoundRaw, &items); err != nil {
		return NotFoundItems{}
	}
	return items
}
