package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

func newLastFMTestService(serverURL string) *LastFMService {
	return NewLastFMService("test_api_key", LastFMOpts{
		BaseURL:   serverURL,
		RateLimit: 1000,
		Logger:    shared.NewLogger(io.Discard),
	})
}

func TestLastFMService(t *testing.T) {
	ctx := context.Background()

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			var gotQuery map[string]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = map[string]string{
					"method":  r.URL.Query().Get("method"),
					"api_key": r.URL.Query().Get("api_key"),
					"format":  r.URL.Query().Get("format"),
					"track":   r.URL.Query().Get("track"),
					"limit":   r.URL.Query().Get("limit"),
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"results": {
						"trackmatches": {
							"track": [
								{"name": "Karma Police", "artist": "Radiohead", "listeners": "1500000"},
								{"name": "Karma Chameleon", "artist": "Culture Club", "listeners": "not-a-number"}
							]
						}
					}
				}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			results, err := srv.SearchTracks(ctx, "karma", 20)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotQuery["method"] != "track.search" {
				t.Errorf("expected method track.search, got %s", gotQuery["method"])
			}
			if gotQuery["api_key"] != "test_api_key" {
				t.Errorf("expected api key in query, got %s", gotQuery["api_key"])
			}
			if gotQuery["format"] != "json" {
				t.Errorf("expected json format, got %s", gotQuery["format"])
			}
			if gotQuery["track"] != "karma" || gotQuery["limit"] != "20" {
				t.Errorf("unexpected search params: %v", gotQuery)
			}

			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0].Title != "Karma Police" || results[0].Listeners != 1500000 {
				t.Errorf("unexpected first result: %+v", results[0])
			}
			if results[1].Listeners != 0 {
				t.Errorf("expected unparseable listeners to default to 0, got %d", results[1].Listeners)
			}
		})

		t.Run("Upstream Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			_, err := srv.SearchTracks(ctx, "karma", 20)
			if err == nil {
				t.Fatal("expected error for upstream failure")
			}
		})
	})

	t.Run("TrackExists", func(t *testing.T) {
		t.Run("Known Track", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("method") != "track.getInfo" {
					t.Errorf("expected track.getInfo, got %s", r.URL.Query().Get("method"))
				}
				w.Write([]byte(`{"track": {"name": "Karma Police", "artist": {"name": "Radiohead"}}}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if !srv.TrackExists(ctx, playlist.Track{Title: "Karma Police", Artist: "Radiohead"}) {
				t.Error("expected track to exist")
			}
		})

		t.Run("Unknown Track", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error": 6, "message": "Track not found"}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if srv.TrackExists(ctx, playlist.Track{Title: "Fake Song", Artist: "Fake Artist"}) {
				t.Error("expected service error to report false")
			}
		})

		t.Run("Null Track Payload", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"track": null}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if srv.TrackExists(ctx, playlist.Track{Title: "X", Artist: "Y"}) {
				t.Error("expected null track to report false")
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if srv.TrackExists(ctx, playlist.Track{Title: "X", Artist: "Y"}) {
				t.Error("expected transport failure to report false")
			}
		})

		t.Run("Malformed Payload", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if srv.TrackExists(ctx, playlist.Track{Title: "X", Artist: "Y"}) {
				t.Error("expected malformed payload to report false")
			}
		})
	})

	t.Run("SimilarTracks", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("method") != "track.getSimilar" {
					t.Errorf("expected track.getSimilar, got %s", r.URL.Query().Get("method"))
				}
				w.Write([]byte(`{
					"similartracks": {
						"track": [
							{"name": "No Surprises", "artist": {"name": "Radiohead"}, "match": 0.9},
							{"name": "", "artist": {"name": "Nameless"}},
							{"name": "Orphan", "artist": {"name": ""}}
						]
					}
				}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			tracks := srv.SimilarTracks(ctx, playlist.Track{Title: "Karma Police", Artist: "Radiohead"}, 10)

			if len(tracks) != 1 {
				t.Fatalf("expected 1 complete track, got %d", len(tracks))
			}
			if tracks[0].Title != "No Surprises" || tracks[0].Artist != "Radiohead" {
				t.Errorf("unexpected track: %+v", tracks[0])
			}
		})

		t.Run("Failure Degrades To Nil", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if tracks := srv.SimilarTracks(ctx, playlist.Track{Title: "X", Artist: "Y"}, 10); tracks != nil {
				t.Errorf("expected nil on failure, got %d tracks", len(tracks))
			}
		})
	})

	t.Run("TopTracks", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("method") != "chart.getTopTracks" {
					t.Errorf("expected chart.getTopTracks, got %s", r.URL.Query().Get("method"))
				}
				if r.URL.Query().Get("limit") != "40" {
					t.Errorf("expected limit 40, got %s", r.URL.Query().Get("limit"))
				}
				w.Write([]byte(`{
					"tracks": {
						"track": [
							{"name": "Top Song", "artist": {"name": "Top Artist"}}
						]
					}
				}`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			tracks := srv.TopTracks(ctx, 40)

			if len(tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(tracks))
			}
			if tracks[0].Title != "Top Song" {
				t.Errorf("unexpected track: %+v", tracks[0])
			}
		})

		t.Run("Failure Degrades To Nil", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`garbage`))
			}))
			defer server.Close()

			srv := newLastFMTestService(server.URL)
			if tracks := srv.TopTracks(ctx, 40); tracks != nil {
				t.Errorf("expected nil on malformed payload, got %d tracks", len(tracks))
			}
		})
	})
}
