package playlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// Question is one elicited preference question shown to the user before the
// seeded flow runs.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Analysis pairs the internal seed analysis with the generated questions.
// The analysis text is passed back verbatim on the playlist request and is
// never shown to the end user.
type Analysis struct {
	Analysis  string     `json:"analysis"`
	Questions []Question `json:"questions"`
}

// AnalyzeSeeds asks the completion service for the internal two-layer
// analysis of the seed tracks and three situational preference questions.
//
// Unlike batch generation there is no fallback for this call, so transport
// and parse failures are returned rather than swallowed.
func (e *Engine) AnalyzeSeeds(ctx context.Context, seeds []Track) (*Analysis, error) {
	system, user := questionsPrompt(seeds)

	content, err := e.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	// Tolerant of the model naming the field "question" or "text".
	var parsed struct {
		Analysis  string `json:"analysis"`
		Questions []struct {
			ID       int      `json:"id"`
			Question string   `json:"question"`
			Text     string   `json:"text"`
			Options  []string `json:"options"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed questions response: %v", shared.ErrAPIRequest, err)
	}

	result := &Analysis{Analysis: parsed.Analysis}
	for i, q := range parsed.Questions {
		text := q.Question
		if text == "" {
			text = q.Text
		}
		id := q.ID
		if id == 0 {
			id = i + 1
		}
		result.Questions = append(result.Questions, Question{
			ID:      id,
			Text:    text,
			Options: q.Options,
		})
	}

	e.logger.Info("seed analysis generated", "seeds", len(seeds), "questions", len(result.Questions))
	return result, nil
}
