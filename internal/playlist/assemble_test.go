package playlist

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// stubSuggester is a scripted Suggester double.
type stubSuggester struct {
	batchFunc      func(pc Context, target int) []Track
	replaceFunc    func(pc Context, excluded []string) *Track
	refineFunc     func(pc Context, current []Track, feedback string, target int) []Track
	substituteFunc func(pc Context, current []Track, discarded Track, reason string, excluded []string) *Track

	batchCalls      int
	replaceCalls    [][]string
	refineCalls     int
	substituteCalls [][]string
}

func (s *stubSuggester) GenerateBatch(_ context.Context, pc Context, target int) []Track {
	s.batchCalls++
	if s.batchFunc == nil {
		return nil
	}
	return s.batchFunc(pc, target)
}

func (s *stubSuggester) GenerateReplacement(_ context.Context, pc Context, excluded []string) *Track {
	s.replaceCalls = append(s.replaceCalls, append([]string{}, excluded...))
	if s.replaceFunc == nil {
		return nil
	}
	return s.replaceFunc(pc, excluded)
}

func (s *stubSuggester) RefineBatch(_ context.Context, pc Context, current []Track, feedback string, target int) []Track {
	s.refineCalls++
	if s.refineFunc == nil {
		return nil
	}
	return s.refineFunc(pc, current, feedback, target)
}

func (s *stubSuggester) SubstituteOne(_ context.Context, pc Context, current []Track, discarded Track, reason string, excluded []string) *Track {
	s.substituteCalls = append(s.substituteCalls, append([]string{}, excluded...))
	if s.substituteFunc == nil {
		return nil
	}
	return s.substituteFunc(pc, current, discarded, reason, excluded)
}

func newTestAssembler(meta Metadata, suggest Suggester) *Assembler {
	logger := shared.NewLogger(io.Discard)
	return NewAssembler(meta, suggest, NewPoolBuilder(meta, logger), logger)
}

func TestAssembleSeeded(t *testing.T) {
	ctx := context.Background()
	seeds := makeTracks("Seed", 3)

	richMeta := func() *stubMetadata {
		return &stubMetadata{
			similarFunc: func(seed Track, limit int) []Track {
				return makeTracks(seed.Title, limit)
			},
		}
	}

	t.Run("Happy Path", func(t *testing.T) {
		meta := richMeta()
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				if pc.Mode != ModeSeeded {
					t.Errorf("expected seeded mode, got %s", pc.Mode)
				}
				if len(pc.Candidates) == 0 {
					t.Error("expected candidates in prompt context")
				}
				return pc.Candidates[:target]
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
			Size:  20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 tracks, got %d", len(got))
		}
	})

	t.Run("Size Clamping", func(t *testing.T) {
		cases := []struct {
			name string
			size int
			want int
		}{
			{"Below Minimum", 5, 10},
			{"Above Maximum", 1000, 50},
			{"Unspecified", 0, 20},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				meta := richMeta()
				suggest := &stubSuggester{
					batchFunc: func(pc Context, target int) []Track {
						if target != tc.want {
							t.Errorf("expected clamped target %d, got %d", tc.want, target)
						}
						return pc.Candidates[:target]
					},
				}

				got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
					Mode:  ModeSeeded,
					Seeds: seeds,
					Size:  tc.size,
				})
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(got) != tc.want {
					t.Errorf("expected %d tracks, got %d", tc.want, len(got))
				}
			})
		}
	})

	t.Run("Empty Pool", func(t *testing.T) {
		meta := &stubMetadata{}
		suggest := &stubSuggester{}

		_, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
		})
		if !errors.Is(err, shared.ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
		if suggest.batchCalls != 0 {
			t.Errorf("expected no batch call with an empty pool, got %d", suggest.batchCalls)
		}
	})

	t.Run("Backfills Short Batch", func(t *testing.T) {
		meta := richMeta()
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return pc.Candidates[:5]
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
			Size:  20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected backfill to exact target, got %d", len(got))
		}
		seen := make(map[string]bool)
		for _, tr := range got {
			if seen[tr.Key()] {
				t.Errorf("duplicate after backfill: %s", tr.Key())
			}
			seen[tr.Key()] = true
		}
	})

	t.Run("Pool Carries A Failed Curation", func(t *testing.T) {
		meta := richMeta()
		suggest := &stubSuggester{} // batch returns nil

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
			Size:  20,
		})
		if err != nil {
			t.Fatalf("expected pool fallback, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 tracks from the pool, got %d", len(got))
		}
	})

	t.Run("Completion Outage Still Yields A Playlist", func(t *testing.T) {
		meta := richMeta()
		engine := newTestEngine(&stubCompleter{err: errors.New("completion service down")})
		logger := shared.NewLogger(io.Discard)
		asm := NewAssembler(meta, engine, NewPoolBuilder(meta, logger), logger)

		got, err := asm.Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
			Size:  20,
		})
		if err != nil {
			t.Fatalf("expected pool fallback, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 tracks despite the outage, got %d", len(got))
		}
	})

	t.Run("Truncates Oversized Batch", func(t *testing.T) {
		meta := richMeta()
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return pc.Candidates
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:  ModeSeeded,
			Seeds: seeds,
			Size:  20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected truncation to 20, got %d", len(got))
		}
	})

	t.Run("Include Seeds", func(t *testing.T) {
		meta := richMeta()
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return pc.Candidates[:target]
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:         ModeSeeded,
			Seeds:        seeds,
			IncludeSeeds: true,
			Size:         20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 23 {
			t.Errorf("expected 20 tracks plus 3 seeds, got %d", len(got))
		}
		if got[0].Key() == seeds[0].Key() {
			t.Error("seed must not open the playlist")
		}
		found := 0
		for _, tr := range got {
			for _, s := range seeds {
				if tr.Key() == s.Key() {
					found++
				}
			}
		}
		if found != 3 {
			t.Errorf("expected all 3 seeds woven in, got %d", found)
		}
	})
}

func TestAssembleIntention(t *testing.T) {
	ctx := context.Background()

	t.Run("All Suggestions Verify", func(t *testing.T) {
		suggestions := makeTracks("Sug", 20)
		meta := &stubMetadata{}
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				if pc.Mode != ModeIntention {
					t.Errorf("expected intention mode, got %s", pc.Mode)
				}
				return suggestions
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:      ModeIntention,
			Intention: "rainy sunday reading",
			Size:      20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 tracks, got %d", len(got))
		}
		if len(suggest.replaceCalls) != 0 {
			t.Errorf("expected no replacement calls, got %d", len(suggest.replaceCalls))
		}
	})

	t.Run("Replaces Failed Verifications", func(t *testing.T) {
		suggestions := makeTracks("Sug", 20)
		fake := map[string]bool{
			suggestions[2].Key(): true,
			suggestions[7].Key(): true,
		}
		replacement := Track{Title: "Real Song", Artist: "Real Artist"}
		count := 0

		meta := &stubMetadata{
			existsFunc: func(tr Track) bool {
				return !fake[tr.Key()]
			},
		}
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return suggestions
			},
			replaceFunc: func(pc Context, excluded []string) *Track {
				count++
				r := replacement
				r.Title = replacement.Title + " " + excluded[len(excluded)-1]
				return &r
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:      ModeIntention,
			Intention: "gym",
			Size:      20,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 20 {
			t.Errorf("expected 20 tracks, got %d", len(got))
		}
		if count != 2 {
			t.Errorf("expected 2 replacement calls, got %d", count)
		}
		for _, tr := range got {
			if fake[tr.Key()] {
				t.Errorf("unverified suggestion leaked into output: %s", tr.Key())
			}
		}
	})

	t.Run("Exclusion List Grows", func(t *testing.T) {
		suggestions := makeTracks("Sug", 12)
		meta := &stubMetadata{
			existsFunc: func(tr Track) bool { return false },
		}
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return suggestions
			},
		}

		_, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:      ModeIntention,
			Intention: "focus",
			Size:      10,
		})
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Fatalf("expected ErrEmptyPlaylist, got %v", err)
		}

		calls := suggest.replaceCalls
		if len(calls) < 2 {
			t.Fatalf("expected several replacement attempts, got %d", len(calls))
		}
		first := calls[0]
		last := calls[len(calls)-1]
		if len(last) <= len(first) {
			t.Errorf("expected exclusion list to grow, first %d last %d", len(first), len(last))
		}
		if first[0] != suggestions[0].Label() {
			t.Errorf("expected first exclusion to be the first suggestion label, got %q", first[0])
		}
	})

	t.Run("Top Up Is Bounded", func(t *testing.T) {
		meta := &stubMetadata{
			existsFunc: func(tr Track) bool { return false },
		}
		suggest := &stubSuggester{
			replaceFunc: func(pc Context, excluded []string) *Track {
				return &Track{Title: "Ghost", Artist: "Nobody"}
			},
		}

		_, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:      ModeIntention,
			Intention: "party",
			Size:      20,
		})
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Fatalf("expected ErrEmptyPlaylist, got %v", err)
		}
		// Empty batch means every replacement call comes from the top-up loop.
		if len(suggest.replaceCalls) != 10 {
			t.Errorf("expected exactly 10 top-up attempts, got %d", len(suggest.replaceCalls))
		}
	})

	t.Run("Partial Result Survives", func(t *testing.T) {
		suggestions := makeTracks("Sug", 8)
		meta := &stubMetadata{}
		suggest := &stubSuggester{
			batchFunc: func(pc Context, target int) []Track {
				return suggestions
			},
		}

		got, err := newTestAssembler(meta, suggest).Assemble(ctx, Request{
			Mode:      ModeIntention,
			Intention: "road trip",
			Size:      20,
		})
		if err != nil {
			t.Fatalf("expected partial playlist, got %v", err)
		}
		if len(got) != 8 {
			t.Errorf("expected the 8 verified tracks, got %d", len(got))
		}
		if len(suggest.replaceCalls) != 10 {
			t.Errorf("expected the top-up budget spent, got %d calls", len(suggest.replaceCalls))
		}
	})
}

func TestIntercalate(t *testing.T) {
	t.Run("Even Weave", func(t *testing.T) {
		playlist := makeTracks("P", 9)
		seeds := makeTracks("S", 2)

		got := intercalate(playlist, seeds)

		if len(got) != 11 {
			t.Fatalf("expected 11 tracks, got %d", len(got))
		}
		if got[0].Key() != playlist[0].Key() {
			t.Error("position 0 must stay a playlist track")
		}
		// interval = 9/3 = 3: seeds land before playlist positions 3 and 6.
		if got[3].Key() != seeds[0].Key() {
			t.Errorf("expected first seed at index 3, got %s", got[3].Title)
		}
		if got[7].Key() != seeds[1].Key() {
			t.Errorf("expected second seed at index 7, got %s", got[7].Title)
		}
	})

	t.Run("More Seeds Than Slots", func(t *testing.T) {
		playlist := makeTracks("P", 2)
		seeds := makeTracks("S", 5)

		got := intercalate(playlist, seeds)

		if len(got) != 7 {
			t.Fatalf("expected 7 tracks, got %d", len(got))
		}
		if got[0].Key() != playlist[0].Key() {
			t.Error("position 0 must stay a playlist track")
		}
		found := make(map[string]bool)
		for _, tr := range got {
			found[tr.Key()] = true
		}
		for _, s := range seeds {
			if !found[s.Key()] {
				t.Errorf("seed missing from weave: %s", s.Title)
			}
		}
	})
}
