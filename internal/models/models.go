// package models defines the data model for the library sync service
package models

import "strings"

// MediaKind is the closed set of media types the sync engine handles.
type MediaKind int

const (
	KindMovie MediaKind = iota
	KindEpisode
)

func (k MediaKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindEpisode:
		return "episode"
	default:
		return ""
	}
}

// ProviderIDs maps an external metadata provider name (imdb, tmdb, tvdb, slug)
// to that provider's identifier for a title.
type ProviderIDs map[string]string

// Overlaps reports whether any non-empty provider id is shared by both sets.
func (p ProviderIDs) Overlaps(other ProviderIDs) bool {
	for provider, id := range p {
		if id == "" {
			continue
		}
		if otherID, ok := other[provider]; ok && otherID == id {
			return true
		}
	}
	return false
}

// Ident is the identity key used to pair a local item with its remote counterpart.
type Ident struct {
	Title string
	Year  int
	IDs   ProviderIDs
}

// MediaInfo holds the file-level attributes compared when export_media_info is enabled.
// Field names mirror Trakt collection metadata.
type MediaInfo struct {
	Resolution    string `json:"resolution,omitempty"`
	HDR           string `json:"hdr,omitempty"`
	Audio         string `json:"audio,omitempty"`
	AudioChannels string `json:"audio_channels,omitempty"`
}

// Differs reports whether the local media attributes materially differ from remote.
//
// An empty local field compares equal: unknown local metadata never forces a re-collect.
func (m MediaInfo) Differs(remote MediaInfo) bool {
	if m.Resolution != "" && m.Resolution != remote.Resolution {
		return true
	}
	if m.HDR != "" && m.HDR != remote.HDR {
		return true
	}
	if m.Audio != "" && m.Audio != remote.Audio {
		return true
	}
	if m.AudioChannels != "" && m.AudioChannels != remote.AudioChannels {
		return true
	}
	return false
}

// Movie is a local library movie with its per-user watch state.
type Movie struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Year   int         `json:"year"`
	IDs    ProviderIDs `json:"ids"`
	Path   string      `json:"path,omitempty"`
	Played bool        `json:"played"`
	Media  MediaInfo   `json:"media"`
}

// Ident returns the identity key for matching against remote entries.
func (m Movie) Ident() Ident {
	return Ident{Title: m.Title, Year: m.Year, IDs: m.IDs}
}

// Series is a local library show.
type Series struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Year  int         `json:"year"`
	IDs   ProviderIDs `json:"ids"`
	Path  string      `json:"path,omitempty"`
}

func (s Series) Ident() Ident {
	return Ident{Title: s.Title, Year: s.Year, IDs: s.IDs}
}

// Episode is a local library episode with its per-user watch state.
// Season and Number locate it within its owning series.
type Episode struct {
	ID       string    `json:"id"`
	SeriesID string    `json:"series_id"`
	Title    string    `json:"title"`
	Season   int       `json:"season"`
	Number   int       `json:"number"`
	Path     string    `json:"path,omitempty"`
	Played   bool      `json:"played"`
	Media    MediaInfo `json:"media"`
}

// SyncUser holds one media-server user's Trakt tokens and sync policy flags.
type SyncUser struct {
	Name                string   `toml:"name"`
	AccessToken         string   `toml:"access_token"`
	RefreshToken        string   `toml:"refresh_token"`
	SyncCollection      bool     `toml:"sync_collection"`
	PostWatchedHistory  bool     `toml:"post_watched_history"`
	SkipUnwatchedImport bool     `toml:"skip_unwatched_import"`
	ExportMediaInfo     bool     `toml:"export_media_info"`
	ExcludedLocations   []string `toml:"excluded_locations"`
}

// Authenticated reports whether the user has completed the OAuth flow.
func (u *SyncUser) Authenticated() bool {
	return u.AccessToken != ""
}

// Eligible reports whether an item at the given path participates in sync for this user.
func (u *SyncUser) Eligible(path string) bool {
	for _, loc := range u.ExcludedLocations {
		if loc != "" && strings.HasPrefix(path, loc) {
			return false
		}
	}
	return true
}
