package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryImport loads a media-server export file into the catalog and records
// the user's watch state for every imported item.
func (r *Runner) LibraryImport(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.String("file")

	user, err := r.config.User(cmd.String("user"))
	if err != nil {
		return err
	}

	store, err := r.store()
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	r.logger.Info("importing library export", "file", filePath, "user", user.Name)

	stats, err := store.Import(ctx, user, f)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Imported %d movies, %d series, %d episodes for %s\n",
		stats.Movies, stats.Series, stats.Episodes, user.Name)
}

// LibraryList lists the catalog items visible to a user.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.StringArg("kind")

	user, err := r.config.User(cmd.String("user"))
	if err != nil {
		return err
	}

	store, err := r.store()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	switch kind {
	case "movies":
		movies, err := store.ListMovies(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(movies, pretty)
		}
		for _, movie := range movies {
			marker := " "
			if movie.Played {
				marker = "✓"
			}
			r.writePlain("%s %s (%d)\n", marker, movie.Title, movie.Year)
		}
		return nil

	case "series":
		series, err := store.ListSeries(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(series, pretty)
		}
		for _, sr := range series {
			r.writePlain("%s (%d)\n", sr.Title, sr.Year)
		}
		return nil

	case "episodes":
		episodes, err := store.ListEpisodes(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(episodes, pretty)
		}
		for _, episode := range episodes {
			marker := " "
			if episode.Played {
				marker = "✓"
			}
			r.writePlain("%s S%02dE%02d %s\n", marker, episode.Season, episode.Number, episode.Title)
		}
		return nil

	default:
		return fmt.Errorf("%w: kind must be 'movies', 'series' or 'episodes'", shared.ErrInvalidArgument)
	}
}

// LibraryStats prints catalog row counts per kind.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store()
	if err != nil {
		return err
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Library")
	r.writePlain("Movies:   %d\n", stats.Movies)
	r.writePlain("Series:   %d\n", stats.Series)
	r.writePlain("Episodes: %d\n", stats.Episodes)
	return nil
}
