package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Setup writes an example config file for the user to fill in.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlainln("✓ Config written to %s", path)
	r.writePlainln("  Fill in your Last.fm, OpenAI, and YouTube API keys.")

	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config.toml to fill in",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
