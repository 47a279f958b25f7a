package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/services"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	metadata *services.LastFMService
	llm      *services.OpenAIService
	video    *services.YouTubeService
	engine   *playlist.Engine
	pool     *playlist.PoolBuilder
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Metadata *services.LastFMService
	LLM      *services.OpenAIService
	Video    *services.YouTubeService
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	engine := playlist.NewEngine(opts.LLM, opts.Logger)
	pool := playlist.NewPoolBuilder(opts.Metadata, opts.Logger)

	return &Runner{
		config:   opts.Config,
		metadata: opts.Metadata,
		llm:      opts.LLM,
		video:    opts.Video,
		engine:   engine,
		pool:     pool,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, searchCommand, discoverCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// assembler builds the playlist assembler over the runner's services.
func (r *Runner) assembler() *playlist.Assembler {
	return playlist.NewAssembler(r.metadata, r.engine, r.pool, r.logger)
}

// controller builds the refinement/substitution controller over the runner's services.
func (r *Runner) controller() *playlist.Controller {
	return playlist.NewController(r.metadata, r.engine, r.pool, r.logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlainln(format string, args ...any) {
	fmt.Fprintf(r.output, format+"\n", args...)
}
