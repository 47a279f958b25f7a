package playlist

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
)

// Context carries everything the completion prompts may need. Which fields
// matter depends on Mode; the rest stay zero.
type Context struct {
	Mode     Mode
	Surprise bool

	// Seeded mode
	Seeds      []Track
	QA         []QA
	Analysis   string // internal analysis text, opaque, never shown to the user
	Candidates []Track

	// Intention mode
	Intention  string
	Genres     string
	References []Track
}

// Suggester is the Engine's contract, split out so the assembler and the
// refinement controller can be tested against scripted doubles.
type Suggester interface {
	// GenerateBatch returns a batch of unverified suggestions, empty on any
	// transport or parse failure.
	GenerateBatch(ctx context.Context, pc Context, target int) []Track

	// GenerateReplacement returns one unverified suggestion matching the
	// context and avoiding every label in excluded, or nil.
	GenerateReplacement(ctx context.Context, pc Context, excluded []string) *Track

	// RefineBatch returns an evolved playlist honoring the feedback, empty
	// on any failure.
	RefineBatch(ctx context.Context, pc Context, current []Track, feedback string, target int) []Track

	// SubstituteOne returns one unverified replacement for a discarded
	// track, or nil.
	SubstituteOne(ctx context.Context, pc Context, current []Track, discarded Track, reason string, excluded []string) *Track
}

// Engine wraps the completion service. Every method swallows transport and
// parse failures and degrades to an empty or nil result: the completion
// service is treated as unreliable and rate-sensitive, and callers branch on
// what they got back, never on what went wrong.
type Engine struct {
	llm    Completer
	logger *log.Logger
}

// NewEngine creates an Engine on top of the given completion client.
func NewEngine(llm Completer, logger *log.Logger) *Engine {
	return &Engine{llm: llm, logger: logger}
}

// batchResponse is the structured shape every multi-song completion returns.
type batchResponse struct {
	Songs []Track `json:"songs"`
}

// GenerateBatch sends one completion request for an exact-count batch of
// suggestions. The prompt encodes the operating mode, the per-artist cap,
// and the minimum discovery fraction; none of those are re-verified here.
func (e *Engine) GenerateBatch(ctx context.Context, pc Context, target int) []Track {
	var system, user string
	switch pc.Mode {
	case ModeSeeded:
		system, user = seededBatchPrompt(pc, target)
	default:
		system, user = intentionBatchPrompt(pc, target)
	}

	songs := e.completeBatch(ctx, system, user)
	e.logger.Info("batch generation", "mode", pc.Mode, "requested", target, "returned", len(songs))
	return songs
}

// GenerateReplacement asks for exactly one song matching the context,
// excluding every label in excluded. Nil means no usable suggestion this
// attempt, not a fatal condition.
func (e *Engine) GenerateReplacement(ctx context.Context, pc Context, excluded []string) *Track {
	return e.completeSingle(ctx, replacementPrompt(pc, excluded), "")
}

// RefineBatch asks the model to evolve the current playlist according to the
// feedback, choosing substitutions from pc.Candidates.
func (e *Engine) RefineBatch(ctx context.Context, pc Context, current []Track, feedback string, target int) []Track {
	system, user := refinePrompt(pc, current, feedback, target)
	songs := e.completeBatch(ctx, system, user)
	e.logger.Info("refine generation", "requested", target, "returned", len(songs))
	return songs
}

// SubstituteOne asks for one replacement for a discarded track, excluding
// every label in excluded and every artist already in current.
func (e *Engine) SubstituteOne(ctx context.Context, pc Context, current []Track, discarded Track, reason string, excluded []string) *Track {
	prompt := substitutePrompt(pc, current, discarded, reason)
	if len(excluded) > 0 {
		prompt += "\n\nYou must NOT suggest any of these songs: " + strings.Join(excluded, ", ")
	}
	return e.completeSingle(ctx, prompt, "")
}

func (e *Engine) completeBatch(ctx context.Context, system, user string) []Track {
	content, err := e.llm.Complete(ctx, system, user)
	if err != nil {
		e.logger.Warn("completion request failed", "error", err)
		return nil
	}
	return parseSongs(content)
}

func (e *Engine) completeSingle(ctx context.Context, system, user string) *Track {
	content, err := e.llm.Complete(ctx, system, user)
	if err != nil {
		e.logger.Warn("completion request failed", "error", err)
		return nil
	}
	return parseSong(content)
}

// parseSongs extracts the {"songs": [...]} shape. Anything else, including
// entries missing a title or artist, is dropped rather than surfaced.
func parseSongs(content string) []Track {
	var parsed batchResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}
	songs := make([]Track, 0, len(parsed.Songs))
	for _, s := range parsed.Songs {
		if s.Title == "" || s.Artist == "" {
			continue
		}
		songs = append(songs, s)
	}
	return songs
}

// parseSong extracts the single {"title", "artist"} shape, nil when either
// field is missing or the content is not JSON.
func parseSong(content string) *Track {
	var parsed Track
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}
	if parsed.Title == "" || parsed.Artist == "" {
		return nil
	}
	return &parsed
}
