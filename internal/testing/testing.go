// package testing contains shared testing utilities
package testing

import (
	"context"
	"sync"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/services"
)

// MockMetadata is a configurable test double for [playlist.Metadata].
// The zero value verifies everything and returns nothing.
type MockMetadata struct {
	ExistsFunc  func(t playlist.Track) bool
	SimilarFunc func(t playlist.Track, limit int) []playlist.Track
	TopFunc     func(limit int) []playlist.Track

	mu           sync.Mutex
	ExistsCalls  int
	SimilarCalls int
	TopCalls     int
}

func (m *MockMetadata) TrackExists(ctx context.Context, t playlist.Track) bool {
	m.mu.Lock()
	m.ExistsCalls++
	m.mu.Unlock()
	if m.ExistsFunc == nil {
		return true
	}
	return m.ExistsFunc(t)
}

func (m *MockMetadata) SimilarTracks(ctx context.Context, t playlist.Track, limit int) []playlist.Track {
	m.mu.Lock()
	m.SimilarCalls++
	m.mu.Unlock()
	if m.SimilarFunc == nil {
		return nil
	}
	return m.SimilarFunc(t, limit)
}

func (m *MockMetadata) TopTracks(ctx context.Context, limit int) []playlist.Track {
	m.mu.Lock()
	m.TopCalls++
	m.mu.Unlock()
	if m.TopFunc == nil {
		return nil
	}
	return m.TopFunc(limit)
}

// MockCompleter is a scripted test double for [playlist.Completer]. Each
// call pops the next response; when Err is set every call fails with it.
type MockCompleter struct {
	Responses []string
	Err       error

	mu    sync.Mutex
	Calls int
}

func (m *MockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "{}", nil
	}
	next := m.Responses[0]
	m.Responses = m.Responses[1:]
	return next, nil
}

// MockSearcher is a test double for the search endpoint's collaborator.
type MockSearcher struct {
	Results []services.SearchResult
	Err     error
}

func (m *MockSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]services.SearchResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results, nil
}

// MockVideoResolver is a test double for the video lookup collaborator.
type MockVideoResolver struct {
	VideoID string
}

func (m *MockVideoResolver) ResolveVideo(ctx context.Context, title, artist string) string {
	return m.VideoID
}
