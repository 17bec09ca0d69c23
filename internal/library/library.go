package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
)

// Service exposes the local catalog to the sync engine.
//
// List operations return only items eligible for the user (excluded locations
// filtered out) in a stable order, so repeated runs see identical snapshots.
type Service interface {
	ListMovies(ctx context.Context, user *models.SyncUser) ([]models.Movie, error)
	ListEpisodes(ctx context.Context, user *models.SyncUser) ([]models.Episode, error)
	ListSeries(ctx context.Context, user *models.SyncUser) ([]models.Series, error)
	SetPlayed(ctx context.Context, user *models.SyncUser, itemID string, played bool) error
}

// Store implements [Service] over the SQLite catalog database.
//
// Titles are stored once; per-user watch state lives in the watch_state table
// keyed by (user_name, item_id).
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// NewStore creates a Store with the given database connection.
func NewStore(db *sql.DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{db: db, logger: logger}
}

// providerIDs assembles a provider map from the catalog's id columns.
func providerIDs(imdb, tmdb, tvdb string) models.ProviderIDs {
	ids := models.ProviderIDs{}
	if imdb != "" {
		ids["imdb"] = imdb
	}
	if tmdb != "" {
		ids["tmdb"] = tmdb
	}
	if tvdb != "" {
		ids["tvdb"] = tvdb
	}
	return ids
}

// ListMovies returns the user's eligible movies with their watch state,
// ordered by title, year, then id.
func (s *Store) ListMovies(ctx context.Context, user *models.SyncUser) ([]models.Movie, error) {
	query := `
		SELECT m.id, m.title, m.year, m.imdb_id, m.tmdb_id, m.tvdb_id, m.path,
		       m.resolution, m.hdr, m.audio, m.audio_channels,
		       COALESCE(w.played, 0)
		FROM movies m
		LEFT JOIN watch_state w ON w.item_id = m.id AND w.user_name = ?
		ORDER BY m.title, m.year, m.id
	`

	rows, err := s.db.QueryContext(ctx, query, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		var imdb, tmdb, tvdb string
		if err := rows.Scan(&m.ID, &m.Title, &m.Year, &imdb, &tmdb, &tvdb, &m.Path,
			&m.Media.Resolution, &m.Media.HDR, &m.Media.Audio, &m.Media.AudioChannels,
			&m.Played); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		m.IDs = providerIDs(imdb, tmdb, tvdb)
		if user.Eligible(m.Path) {
			movies = append(movies, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return movies, nil
}

// ListSeries returns the user's eligible series ordered by title, year, then id.
func (s *Store) ListSeries(ctx context.Context, user *models.SyncUser) ([]models.Series, error) {
	query := `
		SELECT id, title, year, imdb_id, tmdb_id, tvdb_id, path
		FROM series
		ORDER BY title, year, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var series []models.Series
	for rows.Next() {
		var sr models.Series
		var imdb, tmdb, tvdb string
		if err := rows.Scan(&sr.ID, &sr.Title, &sr.Year, &imdb, &tmdb, &tvdb, &sr.Path); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		sr.IDs = providerIDs(imdb, tmdb, tvdb)
		if user.Eligible(sr.Path) {
			series = append(series, sr)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return series, nil
}

// ListEpisodes returns the user's eligible episodes with their watch state,
// ordered by series, season, then episode number.
func (s *Store) ListEpisodes(ctx context.Context, user *models.SyncUser) ([]models.Episode, error) {
	query := `
		SELECT e.id, e.series_id, e.title, e.season, e.number, e.path,
		       e.resolution, e.hdr, e.audio, e.audio_channels,
		       COALESCE(w.played, 0)
		FROM episodes e
		LEFT JOIN watch_state w ON w.item_id = e.id AND w.user_name = ?
		ORDER BY e.series_id, e.season, e.number, e.id
	`

	rows, err := s.db.QueryContext(ctx, query, user.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []models.Episode
	for rows.Next() {
		var e models.Episode
		if err := rows.Scan(&e.ID, &e.SeriesID, &e.Title, &e.Season, &e.Number, &e.Path,
			&e.Media.Resolution, &e.Media.HDR, &e.Media.Audio, &e.Media.AudioChannels,
			&e.Played); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		if user.Eligible(e.Path) {
			episodes = append(episodes, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return episodes, nil
}

// SetPlayed records the user's watch state for a catalog item.
func (s *Store) SetPlayed(ctx context.Context, user *models.SyncUser, itemID string, played bool) error {
	query := `
		INSERT INTO watch_state (user_name, item_id, played)
		VALUES (?, ?, ?)
		ON CONFLICT(user_name, item_id) DO UPDATE
		SET played = excluded.played, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, user.Name, itemID, played); err != nil {
		return fmt.Errorf("failed to set watch state: %w", err)
	}

	return nil
}

// AddMovie inserts or replaces a movie in the catalog, generating an id when absent.
func (s *Store) AddMovie(ctx context.Context, m *models.Movie) error {
	if m.ID == "" {
		m.ID = shared.GenerateID()
	}

	query := `
		INSERT OR REPLACE INTO movies
			(id, title, year, imdb_id, tmdb_id, tvdb_id, path, resolution, hdr, audio, audio_channels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Title, m.Year, m.IDs["imdb"], m.IDs["tmdb"], m.IDs["tvdb"], m.Path,
		m.Media.Resolution, m.Media.HDR, m.Media.Audio, m.Media.AudioChannels)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}

	return nil
}

// AddSeries inserts or replaces a series in the catalog, generating an id when absent.
func (s *Store) AddSeries(ctx context.Context, sr *models.Series) error {
	if sr.ID == "" {
		sr.ID = shared.GenerateID()
	}

	query := `
		INSERT OR REPLACE INTO series (id, title, year, imdb_id, tmdb_id, tvdb_id, path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sr.ID, sr.Title, sr.Year, sr.IDs["imdb"], sr.IDs["tmdb"], sr.IDs["tvdb"], sr.Path)
	if err != nil {
		return fmt.Errorf("failed to insert series: %w", err)
	}

	return nil
}

// AddEpisode inserts or replaces an episode in the catalog, generating an id when absent.
func (s *Store) AddEpisode(ctx context.Context, e *models.Episode) error {
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}
	if e.SeriesID == "" {
		return fmt.Errorf("%w: episode %s has no series", shared.ErrInvalidInput, e.Title)
	}

	query := `
		INSERT OR REPLACE INTO episodes
			(id, series_id, title, season, number, path, resolution, hdr, audio, audio_channels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.SeriesID, e.Title, e.Season, e.Number, e.Path,
		e.Media.Resolution, e.Media.HDR, e.Media.Audio, e.Media.AudioChannels)
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}

	return nil
}

// Stats summarizes catalog contents.
type Stats struct {
	Movies   int `json:"movies"`
	Series   int `json:"series"`
	Episodes int `json:"episodes"`
}

// Stats counts catalog rows per kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		table string
		dest  *int
	}{
		{"movies", &stats.Movies},
		{"series", &stats.Series},
		{"episodes", &stats.Episodes},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	return stats, nil
}
