package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
)

// ImportSeries is a series entry of a catalog export with its episodes nested.
type ImportSeries struct {
	models.Series
	Episodes []models.Episode `json:"episodes"`
}

// ImportFile is the JSON export format produced by a media server.
// The Played flags apply to the importing user.
type ImportFile struct {
	Movies []models.Movie `json:"movies"`
	Series []ImportSeries `json:"series"`
}

// Import loads a catalog export into the store and records the user's watch
// state for every imported item.
func (s *Store) Import(ctx context.Context, user *models.SyncUser, r io.Reader) (Stats, error) {
	var stats Stats

	var file ImportFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return stats, fmt.Errorf("%w: %v", shared.ErrDecodeFailure, err)
	}

	for i := range file.Movies {
		movie := &file.Movies[i]
		if err := s.AddMovie(ctx, movie); err != nil {
			return stats, err
		}
		if err := s.SetPlayed(ctx, user, movie.ID, movie.Played); err != nil {
			return stats, err
		}
		stats.Movies++
	}

	for i := range file.Series {
		series := &file.Series[i]
		if err := s.AddSeries(ctx, &series.Series); err != nil {
			return stats, err
		}
		stats.Series++

		for j := range series.Episodes {
			episode := &series.Episodes[j]
			episode.SeriesID = series.ID
			if err := s.AddEpisode(ctx, episode); err != nil {
				return stats, err
			}
			if err := s.SetPlayed(ctx, user, episode.ID, episode.Played); err != nil {
				return stats, err
			}
			stats.Episodes++
		}
	}

	s.logger.Info("imported catalog",
		"user", user.Name,
		"movies", stats.Movies,
		"series", stats.Series,
		"episodes", stats.Episodes)

	return stats, nil
}
