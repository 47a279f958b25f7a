package playlist

import (
	"context"

	"github.com/charmbracelet/log"
)

// Discard reasons for intention-mode substitution. They change the
// instruction: no-moment optimizes fit with the stated intention even at the
// cost of changing genre, no-style keeps the emotional feel but varies the
// sonic texture.
const (
	DiscardNoMoment = "no-moment"
	DiscardNoStyle  = "no-style"
)

// substituteAttempts bounds the verify-and-retry loop per substitution call.
const substituteAttempts = 5

// RefineRequest carries an existing playlist plus free-text feedback.
type RefineRequest struct {
	Seeds    []Track
	Current  []Track
	Feedback string
	Size     int
}

// SubstituteRequest asks for one verified replacement for a discarded track.
// Context carries the seed/Q&A/analysis bundle or the intention, depending
// on Context.Mode. Reason is optional and only meaningful in intention mode.
type SubstituteRequest struct {
	Context   Context
	Discarded Track
	Current   []Track
	Reason    string
}

// Controller evolves and patches existing playlists. It reuses the candidate
// pool builder and the track verifier the assembler is built on.
type Controller struct {
	meta    Metadata
	suggest Suggester
	pool    *PoolBuilder
	logger  *log.Logger
}

// NewController creates a refinement/substitution controller.
func NewController(meta Metadata, suggest Suggester, pool *PoolBuilder, logger *log.Logger) *Controller {
	return &Controller{meta: meta, suggest: suggest, pool: pool, logger: logger}
}

// Refine rebuilds a candidate pool from the seeds and asks the model to
// evolve the current playlist per the feedback, backfilling from the pool up
// to the target size.
//
// Refine never fails outright because the completion call failed: in that
// case the pool backfill alone determines the outcome, down to and including
// an empty result when the pool is empty too. Callers treat an empty result
// as the failure to surface.
func (c *Controller) Refine(ctx context.Context, req RefineRequest) []Track {
	target := ClampSize(req.Size)

	candidates := c.pool.Build(ctx, req.Seeds, target)

	pc := Context{
		Mode:       ModeSeeded,
		Seeds:      req.Seeds,
		Candidates: candidates,
	}

	playlist := c.suggest.RefineBatch(ctx, pc, req.Current, req.Feedback, target)

	if len(playlist) < target {
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

	c.logger.Info("refined playlist", "tracks", len(playlist), "target", target)
	return playlist
}

// Substitute finds one verified replacement for the discarded track,
// retrying up to a fixed bound and accumulating every failed attempt into
// the exclusion list. Nil means no verified replacement was found within the
// budget; the caller maps that to a user-facing failure.
func (c *Controller) Substitute(ctx context.Context, req SubstituteRequest) *Track {
	excluded := []string{req.Discarded.Label()}

	for attempt := 0; attempt < substituteAttempts; attempt++ {
		r := c.suggest.SubstituteOne(ctx, req.Context, req.Current, req.Discarded, req.Reason, excluded)
		if r == nil {
			continue
		}
		if c.meta.TrackExists(ctx, *r) {
			c.logger.Info("substitute found", "track", r.Title, "artist", r.Artist, "attempts", attempt+1)
			return r
		}
		c.logger.Warn("substitute not found in metadata service, retrying", "track", r.Title, "artist", r.Artist)
		excluded = append(excluded, r.Label())
	}

	return nil
}
