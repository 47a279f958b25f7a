package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Search queries the metadata service for tracks matching the query string.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: a search query is required", shared.ErrMissingArgument)
	}
	if r.config.Credentials.LastFM.APIKey == "" {
		return fmt.Errorf("%w: LASTFM_API_KEY not configured", shared.ErrMissingCredentials)
	}

	r.logger.Info("searching tracks", "query", query)

	results, err := r.metadata.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	for _, t := range results {
		r.writePlainln("%s — %s (%d listeners)", t.Title, t.Artist, t.Listeners)
	}
	if len(results) == 0 {
		r.writePlainln("no tracks found")
	}

	return nil
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the metadata service for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output results as JSON",
			},
		},
		Action: r.Search,
	}
}
