// Package playlist implements the curation pipeline: candidate discovery,
// LLM-backed suggestion, verification against the metadata service, and
// assembly of exact-size playlists.
package playlist

import (
	"context"
	"fmt"
	"strings"
)

// Track identifies a song by title and artist.
//
// Identity is case-insensitive on the (title, artist) pair; see [Track.Key].
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Key returns the case-insensitive dedup key for the track.
func (t Track) Key() string {
	return strings.ToLower(t.Title) + "|" + strings.ToLower(t.Artist)
}

// Label returns the track in quoted display form, used in prompt exclusion lists.
func (t Track) Label() string {
	return fmt.Sprintf("%q by %s", t.Title, t.Artist)
}

// trackSet tracks which dedup keys have been seen.
type trackSet map[string]struct{}

func newTrackSet(tracks ...Track) trackSet {
	s := make(trackSet, len(tracks))
	for _, t := range tracks {
		s.add(t)
	}
	return s
}

func (s trackSet) add(t Track) { s[t.Key()] = struct{}{} }

func (s trackSet) has(t Track) bool {
	_, ok := s[t.Key()]
	return ok
}

// QA is one elicited preference question with the user's answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Mode selects which construction flow a request takes.
type Mode string

const (
	// ModeSeeded builds from seed tracks plus elicited preferences.
	ModeSeeded Mode = "seeded"
	// ModeIntention builds from a free-text intention.
	ModeIntention Mode = "intention"
)

const (
	// DefaultSize is used when a request does not specify a playlist size.
	DefaultSize = 20
	// MinSize and MaxSize bound the requested playlist size.
	MinSize = 10
	MaxSize = 50
)

// ClampSize normalizes a requested playlist size into [MinSize, MaxSize].
// A zero size means the caller did not choose one and gets [DefaultSize].
func ClampSize(n int) int {
	if n == 0 {
		n = DefaultSize
	}
	if n < MinSize {
		return MinSize
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

// Metadata is the subset of the music metadata service the pipeline consumes.
//
// Implementations degrade to empty/false results on transport or parse
// failure instead of returning errors; the pipeline branches on "did I get
// enough", not on what went wrong.
type Metadata interface {
	// TrackExists reports whether the (title, artist) pair is a real track
	// known to the metadata service. Fail-closed: any failure is false.
	TrackExists(ctx context.Context, t Track) bool

	// SimilarTracks returns up to limit tracks similar to t, or nil.
	SimilarTracks(ctx context.Context, t Track, limit int) []Track

	// TopTracks returns up to limit tracks from the global chart, or nil.
	TopTracks(ctx context.Context, limit int) []Track
}

// Completer produces one structured completion per call.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
