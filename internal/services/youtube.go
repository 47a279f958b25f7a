// YouTube Data API client for resolving (title, artist) pairs to video ids
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeOpts contains optional configuration for the video lookup client.
type YouTubeOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// YouTubeService resolves songs to video ids with a process-wide best-effort
// cache. The (title, artist) to video mapping is treated as effectively
// immutable, so entries are populated on miss and never evicted; losing the
// cache on restart only costs redundant lookups.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewYouTubeService creates a video lookup client with the given API key.
func NewYouTubeService(apiKey string, opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYouTubeBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		cache:      make(map[string]string),
	}
}

func cacheKey(title, artist string) string {
	return strings.ToLower(artist) + "::" + strings.ToLower(title)
}

// ResolveVideo returns the video id for the given song, or "" when no video
// is found or the lookup fails.
func (s *YouTubeService) ResolveVideo(ctx context.Context, title, artist string) string {
	key := cacheKey(title, artist)

	s.mu.RLock()
	id, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return id
	}

	query := fmt.Sprintf("%s %s official audio", title, artist)
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoCategoryId", "10")
	params.Set("maxResults", "1")
	params.Set("key", s.apiKey)

	apiURL := s.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		s.logger.Warn("video lookup failed", "title", title, "artist", artist, "error", err)
		return ""
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("video lookup failed", "title", title, "artist", artist, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("video lookup failed", "title", title, "artist", artist, "status", resp.StatusCode)
		return ""
	}

	var data struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.logger.Warn("video lookup failed", "title", title, "artist", artist, "error", err)
		return ""
	}

	if len(data.Items) == 0 {
		s.logger.Info("no video found", "title", title, "artist", artist)
		return ""
	}

	id = data.Items[0].ID.VideoID

	s.mu.Lock()
	s.cache[key] = id
	s.mu.Unlock()

	s.logger.Info("video resolved and cached", "title", title, "artist", artist, "video_id", id)
	return id
}
