package playlist

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// PoolBuilder gathers a deduplicated, seed-excluding pool of candidate
// tracks from the metadata service.
//
// Similarity search is unreliable and sparse for niche seeds, so the builder
// escalates in three passes: a single fan-out, a doubled fan-out, and a
// top-chart fallback. It never fabricates a track; everything in the pool
// came from the metadata service.
type PoolBuilder struct {
	meta   Metadata
	logger *log.Logger
}

// NewPoolBuilder creates a PoolBuilder backed by the given metadata service.
func NewPoolBuilder(meta Metadata, logger *log.Logger) *PoolBuilder {
	return &PoolBuilder{meta: meta, logger: logger}
}

// Build returns candidate tracks for the given seeds, at most targetSize*3
// similarity-derived entries plus chart fallback entries when the pool would
// otherwise run short of targetSize.
//
// The result contains no duplicate (title, artist) keys and no seed track.
// An empty result means the metadata service had nothing to offer; callers
// decide whether that is fatal.
func (b *PoolBuilder) Build(ctx context.Context, seeds []Track, targetSize int) []Track {
	if len(seeds) == 0 {
		return nil
	}

	perSeed := (targetSize*3 + len(seeds) - 1) / len(seeds)

	flat := b.fanOut(ctx, seeds, perSeed)

	// Sparse first pass: issue a second, doubled fan-out and keep both.
	if len(flat) < targetSize*2 {
		flat = append(flat, b.fanOut(ctx, seeds, perSeed*2)...)
	}

	seen := make(trackSet)
	seedSet := newTrackSet(seeds...)

	unique := make([]Track, 0, len(flat))
	for _, t := range flat {
		if seen.has(t) || seedSet.has(t) {
			continue
		}
		seen.add(t)
		unique = append(unique, t)
	}

	if len(unique) > targetSize*3 {
		unique = unique[:targetSize*3]
	}

	b.logger.Info("built candidate pool from similar tracks", "seeds", len(seeds), "candidates", len(unique))

	if len(unique) < targetSize {
		b.logger.Warn("candidate pool below target, falling back to chart", "candidates", len(unique), "target", targetSize)
		for _, t := range b.meta.TopTracks(ctx, targetSize*2) {
			if seen.has(t) || seedSet.has(t) {
				continue
			}
			seen.add(t)
			unique = append(unique, t)
		}
		b.logger.Info("candidate pool after chart fallback", "candidates", len(unique))
	}

	return unique
}

// fanOut fetches similar tracks for every seed concurrently and flattens the
// results in seed order.
func (b *PoolBuilder) fanOut(ctx context.Context, seeds []Track, limit int) []Track {
	results := make([][]Track, len(seeds))

	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed Track) {
			defer wg.Done()
			results[i] = b.meta.SimilarTracks(ctx, seed, limit)
		}(i, seed)
	}
	wg.Wait()

	var flat []Track
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat
}
