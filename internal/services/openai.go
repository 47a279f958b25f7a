// OpenAI chat-completion client implementing [playlist.Completer]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIOpts contains optional configuration for the completion client.
type OpenAIOpts struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// OpenAIService implements [playlist.Completer] against the chat-completions
// endpoint, always requesting a JSON-object response.
type OpenAIService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

var _ playlist.Completer = (*OpenAIService)(nil)

// NewOpenAIService creates a completion client with the given API key.
func NewOpenAIService(apiKey string, opts OpenAIOpts) *OpenAIService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenAIBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &OpenAIService{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		model:      opts.Model,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion and returns the raw message content.
// Either prompt may be empty; at least one must be set.
func (s *OpenAIService) Complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{Model: s.model}
	payload.ResponseFormat.Type = "json_object"
	if system != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: system})
	}
	if user != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: user})
	}
	if len(payload.Messages) == 0 {
		return "", fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := s.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var data chatResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(data.Choices) == 0 {
		return "", fmt.Errorf("openai API returned no choices")
	}

	return data.Choices[0].Message.Content, nil
}
