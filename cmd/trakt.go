package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// TraktWatched prints the remote watched snapshot for a user.
func (r *Runner) TraktWatched(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.StringArg("kind")

	user, err := r.config.User(cmd.String("user"))
	if err != nil {
		return err
	}

	client, err := r.traktClient()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	switch kind {
	case "movies":
		movies, err := client.WatchedMovies(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(movies, pretty)
		}
		for _, entry := range movies {
			r.writePlain("%s (%d) plays=%d\n", entry.Movie.Title, entry.Movie.Year, entry.Plays)
		}
		return nil

	case "shows":
		shows, err := client.WatchedShows(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(shows, pretty)
		}
		for _, entry := range shows {
			episodes := 0
			for _, season := range entry.Seasons {
				episodes += len(season.Episodes)
			}
			r.writePlain("%s (%d) episodes=%d\n", entry.Show.Title, entry.Show.Year, episodes)
		}
		return nil

	default:
		return fmt.Errorf("%w: kind must be 'movies' or 'shows'", shared.ErrInvalidArgument)
	}
}

// TraktCollection prints the remote collected snapshot for a user.
func (r *Runner) TraktCollection(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.StringArg("kind")

	user, err := r.config.User(cmd.String("user"))
	if err != nil {
		return err
	}

	client, err := r.traktClient()
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	switch kind {
	case "movies":
		movies, err := client.CollectedMovies(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(movies, pretty)
		}
		for _, entry := range movies {
			r.writePlain("%s (%d)\n", entry.Movie.Title, entry.Movie.Year)
		}
		return nil

	case "shows":
		shows, err := client.CollectedShows(ctx, user)
		if err != nil {
			return err
		}
		if asJSON {
			return r.writeJSON(shows, pretty)
		}
		for _, entry := range shows {
			episodes := 0
			for _, season := range entry.Seasons {
				episodes += len(season.Episodes)
			}
			r.writePlain("%s (%d) episodes=%d\n", entry.Show.Title, entry.Show.Year, episodes)
		}
		return nil

	default:
		return fmt.Errorf("%w: kind must be 'movies' or 'shows'", shared.ErrInvalidArgument)
	}
}
