package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/services"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	// A local .env can stand in for config.toml credentials.
	_ = godotenv.Load()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	config.ApplyEnv()

	metadata := services.NewLastFMService(config.Credentials.LastFM.APIKey, services.LastFMOpts{
		RateLimit: config.Limits.MetadataRateLimit,
		Logger:    logger,
	})
	llm := services.NewOpenAIService(config.Credentials.OpenAI.APIKey, services.OpenAIOpts{
		Model:  config.Credentials.OpenAI.Model,
		Logger: logger,
	})
	video := services.NewYouTubeService(config.Credentials.YouTube.APIKey, services.YouTubeOpts{
		Logger: logger,
	})

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Metadata: metadata,
		LLM:      llm,
		Video:    video,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "sonder",
		Usage:    "Curate playlists from seed songs or a free-text intention",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
