package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

func newYouTubeTestService(serverURL string) *YouTubeService {
	return NewYouTubeService("test_api_key", YouTubeOpts{
		BaseURL: serverURL,
		Logger:  shared.NewLogger(io.Discard),
	})
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolveVideo", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			var gotQuery map[string]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = map[string]string{
					"q":               r.URL.Query().Get("q"),
					"part":            r.URL.Query().Get("part"),
					"type":            r.URL.Query().Get("type"),
					"videoCategoryId": r.URL.Query().Get("videoCategoryId"),
					"maxResults":      r.URL.Query().Get("maxResults"),
					"key":             r.URL.Query().Get("key"),
				}
				w.Write([]byte(`{"items": [{"id": {"videoId": "dQw4w9WgXcQ"}}]}`))
			}))
			defer server.Close()

			srv := newYouTubeTestService(server.URL)
			id := srv.ResolveVideo(ctx, "Never Gonna Give You Up", "Rick Astley")

			if id != "dQw4w9WgXcQ" {
				t.Errorf("expected video id, got %q", id)
			}
			if gotQuery["q"] != "Never Gonna Give You Up Rick Astley official audio" {
				t.Errorf("unexpected search query: %q", gotQuery["q"])
			}
			if gotQuery["videoCategoryId"] != "10" || gotQuery["type"] != "video" {
				t.Errorf("unexpected filter params: %v", gotQuery)
			}
			if gotQuery["maxResults"] != "1" || gotQuery["key"] != "test_api_key" {
				t.Errorf("unexpected request params: %v", gotQuery)
			}
		})

		t.Run("Caches Resolved IDs", func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.Write([]byte(`{"items": [{"id": {"videoId": "abc123"}}]}`))
			}))
			defer server.Close()

			srv := newYouTubeTestService(server.URL)
			first := srv.ResolveVideo(ctx, "Some Song", "Some Artist")
			second := srv.ResolveVideo(ctx, "SOME SONG", "some artist")

			if first != "abc123" || second != "abc123" {
				t.Errorf("expected cached id, got %q and %q", first, second)
			}
			if requests != 1 {
				t.Errorf("expected 1 upstream request, got %d", requests)
			}
		})

		t.Run("No Results", func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.Write([]byte(`{"items": []}`))
			}))
			defer server.Close()

			srv := newYouTubeTestService(server.URL)
			if id := srv.ResolveVideo(ctx, "Unknown", "Nobody"); id != "" {
				t.Errorf("expected empty id, got %q", id)
			}

			// Misses are not cached; a later call retries the lookup.
			srv.ResolveVideo(ctx, "Unknown", "Nobody")
			if requests != 2 {
				t.Errorf("expected 2 upstream requests, got %d", requests)
			}
		})

		t.Run("Upstream Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			srv := newYouTubeTestService(server.URL)
			if id := srv.ResolveVideo(ctx, "X", "Y"); id != "" {
				t.Errorf("expected empty id on failure, got %q", id)
			}
		})

		t.Run("Malformed Payload", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			}))
			defer server.Close()

			srv := newYouTubeTestService(server.URL)
			if id := srv.ResolveVideo(ctx, "X", "Y"); id != "" {
				t.Errorf("expected empty id on malformed payload, got %q", id)
			}
		})
	})
}
