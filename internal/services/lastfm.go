// Last.fm API client implementing [playlist.Metadata]
//
// Response types based on https://www.last.fm/api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

const (
	defaultLastFMBaseURL   = "https://ws.audioscrobbler.com/2.0/"
	defaultLastFMRateLimit = 5.0 // requests per second
)

// lastfmArtistRef is an artist reference in similarity and chart payloads.
type lastfmArtistRef struct {
	Name string `json:"name"`
}

// lastfmTrackRef is a track entry in similarity and chart payloads.
type lastfmTrackRef struct {
	Name   string          `json:"name"`
	Artist lastfmArtistRef `json:"artist"`
	Match  float64         `json:"match,omitempty"`
}

type lastfmSimilarResponse struct {
	SimilarTracks struct {
		Track []lastfmTrackRef `json:"track"`
	} `json:"similartracks"`
}

type lastfmChartResponse struct {
	Tracks struct {
		Track []lastfmTrackRef `json:"track"`
	} `json:"tracks"`
}

type lastfmInfoResponse struct {
	Error int             `json:"error"`
	Track json.RawMessage `json:"track"`
}

type lastfmSearchResponse struct {
	Results struct {
		TrackMatches struct {
			Track []struct {
				Name      string `json:"name"`
				Artist    string `json:"artist"`
				Listeners string `json:"listeners"`
			} `json:"track"`
		} `json:"trackmatches"`
	} `json:"results"`
}

// LastFMOpts contains optional configuration for the Last.fm client.
type LastFMOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // requests per second (default 5)
	Logger     *log.Logger
}

// LastFMService implements [playlist.Metadata] against the Last.fm API.
// Outbound calls share a rate limiter so concurrent fan-outs stay under the
// service's request budget.
type LastFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

var _ playlist.Metadata = (*LastFMService)(nil)

// NewLastFMService creates a Last.fm client with the given API key.
func NewLastFMService(apiKey string, opts LastFMOpts) *LastFMService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultLastFMBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultLastFMRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &LastFMService{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:     opts.Logger,
	}
}

// doRequest performs a rate-limited GET for the given API method and decodes
// the JSON response into result.
func (s *LastFMService) doRequest(ctx context.Context, method string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("method", method)
	query.Set("api_key", s.apiKey)
	query.Set("format", "json")
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	apiURL := s.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("lastfm API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// SearchTracks searches the metadata service by free-text query.
//
// This is the one metadata operation that propagates errors: the search box
// has no fallback pool to degrade into, so the handler surfaces the failure.
func (s *LastFMService) SearchTracks(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("track", query)
	params.Set("limit", strconv.Itoa(limit))

	var response lastfmSearchResponse
	if err := s.doRequest(ctx, "track.search", params, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	matches := response.Results.TrackMatches.Track
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		listeners, _ := strconv.Atoi(m.Listeners)
		results[i] = SearchResult{
			Title:     m.Name,
			Artist:    m.Artist,
			Listeners: listeners,
		}
	}

	return results, nil
}

// TrackExists reports whether the (title, artist) pair is a real track.
//
// Fail-closed: a transport failure, malformed payload, or service error all
// report false. An unverifiable track is never usable.
func (s *LastFMService) TrackExists(ctx context.Context, t playlist.Track) bool {
	params := url.Values{}
	params.Set("artist", t.Artist)
	params.Set("track", t.Title)

	var response lastfmInfoResponse
	if err := s.doRequest(ctx, "track.getInfo", params, &response); err != nil {
		s.logger.Warn("track lookup failed", "track", t.Title, "artist", t.Artist, "error", err)
		return false
	}

	return response.Error == 0 && len(response.Track) > 0 && string(response.Track) != "null"
}

// SimilarTracks returns up to limit tracks similar to t, or nil when the
// service has nothing or the call fails.
func (s *LastFMService) SimilarTracks(ctx context.Context, t playlist.Track, limit int) []playlist.Track {
	params := url.Values{}
	params.Set("artist", t.Artist)
	params.Set("track", t.Title)
	params.Set("limit", strconv.Itoa(limit))

	var response lastfmSimilarResponse
	if err := s.doRequest(ctx, "track.getSimilar", params, &response); err != nil {
		s.logger.Warn("similar tracks fetch failed", "track", t.Title, "artist", t.Artist, "error", err)
		return nil
	}

	tracks := refTracks(response.SimilarTracks.Track)
	if len(tracks) == 0 {
		s.logger.Info("no similar tracks found", "track", t.Title, "artist", t.Artist)
	}
	return tracks
}

// TopTracks returns up to limit tracks from the global chart, or nil on
// failure.
func (s *LastFMService) TopTracks(ctx context.Context, limit int) []playlist.Track {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var response lastfmChartResponse
	if err := s.doRequest(ctx, "chart.getTopTracks", params, &response); err != nil {
		s.logger.Warn("top tracks fetch failed", "error", err)
		return nil
	}

	tracks := refTracks(response.Tracks.Track)
	s.logger.Info("fetched top tracks as fallback", "count", len(tracks))
	return tracks
}

func refTracks(refs []lastfmTrackRef) []playlist.Track {
	tracks := make([]playlist.Track, 0, len(refs))
	for _, r := range refs {
		if r.Name == "" || r.Artist.Name == "" {
			continue
		}
		tracks = append(tracks, playlist.Track{Title: r.Name, Artist: r.Artist.Name})
	}
	return tracks
}
