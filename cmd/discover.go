package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Discover generates a verified playlist from a free-text intention.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	intention := cmd.StringArg("intention")
	if intention == "" {
		return fmt.Errorf("%w: an intention is required", shared.ErrMissingArgument)
	}
	if r.config.Credentials.LastFM.APIKey == "" || r.config.Credentials.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: LASTFM_API_KEY and OPENAI_API_KEY must be configured", shared.ErrMissingCredentials)
	}

	r.logger.Info("discovering playlist", "intention", intention, "surprise", cmd.Bool("surprise"))

	result, err := r.assembler().Assemble(ctx, playlist.Request{
		Mode:      playlist.ModeIntention,
		Intention: intention,
		Genres:    cmd.String("genres"),
		Surprise:  cmd.Bool("surprise"),
		Size:      int(cmd.Int("size")),
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	for i, t := range result {
		r.writePlainln("%2d. %s — %s", i+1, t.Title, t.Artist)
	}

	return nil
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Generate a verified playlist from a free-text intention",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "intention"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "genres",
				Usage: "Preferred genres, comma separated",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Playlist size (clamped to 10-50)",
			},
			&cli.BoolFlag{
				Name:  "surprise",
				Usage: "Surprise mode: no genre or reference context",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the playlist as JSON",
			},
		},
		Action: r.Discover,
	}
}
