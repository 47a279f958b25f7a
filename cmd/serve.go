package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/server"
)

// Serve starts the HTTP JSON API.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	port := r.config.Server.Port
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	if cmd.Int("port") != 0 {
		port = int(cmd.Int("port"))
	}

	api := server.NewAPI(server.APIOpts{
		Assembler: r.assembler(),
		Refiner:   r.controller(),
		Analyzer:  r.engine,
		Search:    r.metadata,
		Video:     r.video,
		Logger:    r.logger,

		HasMetadata:   r.config.Credentials.LastFM.APIKey != "",
		HasCompletion: r.config.Credentials.OpenAI.APIKey != "",
		HasVideo:      r.config.Credentials.YouTube.APIKey != "",
	})

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.RequestLogger(r.logger))
	api.Register(router)

	srv := server.NewServer(host, port, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the playlist curation HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
