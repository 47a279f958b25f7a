package playlist

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Request describes one playlist-generation call. A Request is built per
// HTTP call and consumed once; the service keeps no session state for the
// resulting playlist.
type Request struct {
	Mode Mode

	// Seeded mode
	Seeds        []Track
	QA           []QA
	Analysis     string
	IncludeSeeds bool

	// Intention mode
	Intention  string
	Genres     string
	References []Track
	Surprise   bool

	// Size is clamped into [MinSize, MaxSize]; zero means DefaultSize.
	Size int
}

// replacementBudget bounds the top-up loop in the intention flow. Chosen to
// bound worst-case latency against an unreliable upstream, not to guarantee
// success.
const replacementBudget = 10

// Assembler reconciles the candidate pool and the suggestion engine into a
// playlist of exact target size.
type Assembler struct {
	meta    Metadata
	suggest Suggester
	pool    *PoolBuilder
	logger  *log.Logger
}

// NewAssembler creates an Assembler from its three collaborators.
func NewAssembler(meta Metadata, suggest Suggester, pool *PoolBuilder, logger *log.Logger) *Assembler {
	return &Assembler{meta: meta, suggest: suggest, pool: pool, logger: logger}
}

// Assemble produces a playlist for the request.
//
// Returns [shared.ErrNoCandidates] when the seeded flow finds an empty
// candidate pool and [shared.ErrEmptyPlaylist] when no verified track
// survives all recovery steps.
//
// The result never exceeds the clamped target size unless
// Request.IncludeSeeds is set, which weaves the seed tracks back in
// additively.
func (a *Assembler) Assemble(ctx context.Context, req Request) ([]Track, error) {
	target := ClampSize(req.Size)

	if req.Mode == ModeIntention {
		return a.assembleIntention(ctx, req, target)
	}
	return a.assembleSeeded(ctx, req, target)
}

// assembleSeeded builds a candidate pool from the seeds, asks the model to
// curate over it, and falls back to the raw pool when curation fails.
func (a *Assembler) assembleSeeded(ctx context.Context, req Request, target int) ([]Track, error) {
	candidates := a.pool.Build(ctx, req.Seeds, target)
	if len(candidates) == 0 {
		return nil, shared.ErrNoCandidates
	}

	pc := Context{
		Mode:       ModeSeeded,
		Seeds:      req.Seeds,
		QA:         req.QA,
		Analysis:   req.Analysis,
		Candidates: candidates,
	}

	playlist := a.suggest.GenerateBatch(ctx, pc, target)

	// Fill up from unused candidates when curation came back short (or
	// failed entirely and came back empty).
	if len(playlist) < target && len(candidates) > len(playlist) {
		a.logger.Info("backfilling playlist from candidates", "have", len(playlist), "target", target)
		existing := newTrackSet(playlist...)
		for _, t := range candidates {
			if len(playlist) >= target {
				break
			}
			if existing.has(t) {
				continue
			}
			existing.add(t)
			playlist = append(playlist, t)
		}
	}

	if len(playlist) > target {
		playlist = playlist[:target]
	}

	// Last resort: the raw pool, uncurated.
	if len(playlist) == 0 {
		playlist = candidates
		if len(playlist) > target {
			playlist = playlist[:target]
		}
	}
	if len(playlist) == 0 {
		return nil, shared.ErrEmptyPlaylist
	}

	if req.IncludeSeeds && len(req.Seeds) > 0 {
		playlist = intercalate(playlist, req.Seeds)
	}

	a.logger.Info("assembled playlist", "mode", ModeSeeded, "tracks", len(playlist))
	return playlist, nil
}

// assembleIntention generates suggestions directly from the intention and
// verifies each one against the metadata service, requesting a replacement
// for every suggestion that does not exist.
func (a *Assembler) assembleIntention(ctx context.Context, req Request, target int) ([]Track, error) {
	pc := Context{
		Mode:       ModeIntention,
		Surprise:   req.Surprise,
		Intention:  req.Intention,
		Genres:     req.Genres,
		References: req.References,
	}

	suggestions := a.suggest.GenerateBatch(ctx, pc, target)

	var verified []Track
	var tried []string

	for _, s := range suggestions {
		tried = append(tried, s.Label())

		if a.meta.TrackExists(ctx, s) {
			verified = append(verified, s)
		} else if r := a.verifiedReplacement(ctx, pc, tried); r != nil {
			verified = append(verified, *r)
			tried = append(tried, r.Label())
		}

		if len(verified) >= target {
			break
		}
	}

	// Top up with single-replacement calls, bounded so one bad upstream run
	// cannot stall the request.
	for attempts := 0; len(verified) < target && attempts < replacementBudget; attempts++ {
		r := a.verifiedReplacement(ctx, pc, tried)
		if r != nil {
			verified = append(verified, *r)
			tried = append(tried, r.Label())
		}
	}

	if len(verified) == 0 {
		return nil, shared.ErrEmptyPlaylist
	}
	if len(verified) > target {
		verified = verified[:target]
	}

	a.logger.Info("assembled playlist", "mode", ModeIntention, "tracks", len(verified))
	return verified, nil
}

// verifiedReplacement asks for one replacement and accepts it only if it
// independently passes verification. One attempt per call; retrying is the
// caller's loop.
func (a *Assembler) verifiedReplacement(ctx context.Context, pc Context, tried []string) *Track {
	r := a.suggest.GenerateReplacement(ctx, pc, tried)
	if r == nil {
		return nil
	}
	if !a.meta.TrackExists(ctx, *r) {
		return nil
	}
	return r
}

// intercalate weaves the seed tracks into the playlist at roughly even
// intervals, never at position 0, appending leftover seeds at the end. The
// result is longer than the input; seed inclusion is additive.
func intercalate(playlist, seeds []Track) []Track {
	interval := len(playlist) / (len(seeds) + 1)
	if interval < 1 {
		interval = 1
	}

	out := make([]Track, 0, len(playlist)+len(seeds))
	seedIdx := 0

	for i, t := range playlist {
		if seedIdx < len(seeds) && i > 0 && i%interval == 0 {
			out = append(out, seeds[seedIdx])
			seedIdx++
		}
		out = append(out, t)
	}

	for ; seedIdx < len(seeds); seedIdx++ {
		out = append(out, seeds[seedIdx])
	}

	return out
}
