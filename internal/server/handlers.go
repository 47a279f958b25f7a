package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/u1609820556-ctrl/sonder/internal/playlist"
	"github.com/u1609820556-ctrl/sonder/internal/services"
	"github.com/u1609820556-ctrl/sonder/internal/shared"
)

// TrackSearcher searches the metadata service by free-text query.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]services.SearchResult, error)
}

// SeedAnalyzer produces the internal seed analysis and preference questions.
type SeedAnalyzer interface {
	AnalyzeSeeds(ctx context.Context, seeds []playlist.Track) (*playlist.Analysis, error)
}

// VideoResolver resolves a song to a playable video id.
type VideoResolver interface {
	ResolveVideo(ctx context.Context, title, artist string) string
}

// Assembler produces playlists; implemented by [playlist.Assembler].
type Assembler interface {
	Assemble(ctx context.Context, req playlist.Request) ([]playlist.Track, error)
}

// Refiner evolves and patches playlists; implemented by [playlist.Controller].
type Refiner interface {
	Refine(ctx context.Context, req playlist.RefineRequest) []playlist.Track
	Substitute(ctx context.Context, req playlist.SubstituteRequest) *playlist.Track
}

const searchLimit = 20

// API holds the handlers for the JSON surface. All endpoints are POST-only
// except the health check; responses are either the payload or
// {"error": "..."} with a 4xx/5xx status.
type API struct {
	assembler Assembler
	refiner   Refiner
	analyzer  SeedAnalyzer
	search    TrackSearcher
	video     VideoResolver
	logger    *log.Logger

	// Per-upstream availability, derived from configured credentials.
	hasMetadata   bool
	hasCompletion bool
	hasVideo      bool
}

// APIOpts bundles the collaborators an [API] needs.
type APIOpts struct {
	Assembler Assembler
	Refiner   Refiner
	Analyzer  SeedAnalyzer
	Search    TrackSearcher
	Video     VideoResolver
	Logger    *log.Logger

	HasMetadata   bool
	HasCompletion bool
	HasVideo      bool
}

// NewAPI creates the handler set.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &API{
		assembler:     opts.Assembler,
		refiner:       opts.Refiner,
		analyzer:      opts.Analyzer,
		search:        opts.Search,
		video:         opts.Video,
		logger:        opts.Logger,
		hasMetadata:   opts.HasMetadata,
		hasCompletion: opts.HasCompletion,
		hasVideo:      opts.HasVideo,
	}
}

// Register wires every endpoint into the router.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.handleHealth))
	r.Handle(http.MethodPost, "/api/search", http.HandlerFunc(a.handleSearch))
	r.Handle(http.MethodPost, "/api/questions", http.HandlerFunc(a.handleQuestions))
	r.Handle(http.MethodPost, "/api/playlist", http.HandlerFunc(a.handlePlaylist))
	r.Handle(http.MethodPost, "/api/discover", http.HandlerFunc(a.handleDiscover))
	r.Handle(http.MethodPost, "/api/refine", http.HandlerFunc(a.handleRefine))
	r.Handle(http.MethodPost, "/api/substitute", http.HandlerFunc(a.handleSubstitute))
	r.Handle(http.MethodPost, "/api/video", http.HandlerFunc(a.handleVideo))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (a *API) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSearch(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if !a.hasMetadata {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}

	tracks, err := a.search.SearchTracks(req.Context(), body.Query, searchLimit)
	if err != nil {
		a.logger.Error("search failed", "query", body.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to search tracks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (a *API) handleQuestions(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Seeds []playlist.Track `json:"seeds"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if len(body.Seeds) == 0 {
		writeError(w, http.StatusBadRequest, "seed tracks are required")
		return
	}
	if !a.hasCompletion {
		writeError(w, http.StatusServiceUnavailable, "completion service not configured")
		return
	}

	analysis, err := a.analyzer.AnalyzeSeeds(req.Context(), body.Seeds)
	if err != nil {
		a.logger.Error("seed analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate questions")
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// answerByID pairs a question id with the user's free-text answer.
type answerByID struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
}

// zipAnswers matches answers to questions by id, defaulting unanswered
// questions so the prompt still shows them.
func zipAnswers(questions []playlist.Question, answers []answerByID) []playlist.QA {
	byID := make(map[int]string, len(answers))
	for _, ans := range answers {
		byID[ans.QuestionID] = ans.Answer
	}

	qa := make([]playlist.QA, 0, len(questions))
	for _, q := range questions {
		qa = append(qa, playlist.QA{Question: q.Text, Answer: byID[q.ID]})
	}
	return qa
}

func (a *API) handlePlaylist(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Seeds        []playlist.Track    `json:"seeds"`
		Questions    []playlist.Question `json:"questions"`
		Answers      []answerByID        `json:"answers"`
		Analysis     string              `json:"analysis"`
		Size         int                 `json:"size"`
		IncludeSeeds bool                `json:"includeSeeds"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if len(body.Seeds) == 0 {
		writeError(w, http.StatusBadRequest, "seed tracks are required")
		return
	}
	if !a.hasMetadata {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}

	result, err := a.assembler.Assemble(req.Context(), playlist.Request{
		Mode:         playlist.ModeSeeded,
		Seeds:        body.Seeds,
		QA:           zipAnswers(body.Questions, body.Answers),
		Analysis:     body.Analysis,
		IncludeSeeds: body.IncludeSeeds,
		Size:         body.Size,
	})
	if err != nil {
		a.writeAssembleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"playlist": result})
}

func (a *API) handleDiscover(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Intention  string           `json:"intention"`
		Genres     string           `json:"genres"`
		References []playlist.Track `json:"references"`
		Size       int              `json:"size"`
		Surprise   bool             `json:"surprise"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if strings.TrimSpace(body.Intention) == "" {
		writeError(w, http.StatusBadRequest, "an intention is required")
		return
	}
	if !a.hasMetadata || !a.hasCompletion {
		writeError(w, http.StatusServiceUnavailable, "upstream services not configured")
		return
	}

	result, err := a.assembler.Assemble(req.Context(), playlist.Request{
		Mode:       playlist.ModeIntention,
		Intention:  body.Intention,
		Genres:     body.Genres,
		References: body.References,
		Surprise:   body.Surprise,
		Size:       body.Size,
	})
	if err != nil {
		a.writeAssembleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"playlist": result})
}

func (a *API) handleRefine(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Seeds    []playlist.Track `json:"seeds"`
		Current  []playlist.Track `json:"current"`
		Feedback string           `json:"feedback"`
		Size     int              `json:"size"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if len(body.Seeds) == 0 || len(body.Current) == 0 || strings.TrimSpace(body.Feedback) == "" {
		writeError(w, http.StatusBadRequest, "seeds, current playlist, and feedback are required")
		return
	}
	if !a.hasMetadata {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}

	result := a.refiner.Refine(req.Context(), playlist.RefineRequest{
		Seeds:    body.Seeds,
		Current:  body.Current,
		Feedback: body.Feedback,
		Size:     body.Size,
	})
	if len(result) == 0 {
		writeError(w, http.StatusInternalServerError, "no songs found for this feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"playlist": result})
}

func (a *API) handleSubstitute(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Mode      playlist.Mode    `json:"mode"`
		Discarded *playlist.Track  `json:"discarded"`
		Current   []playlist.Track `json:"current"`
		Reason    string           `json:"reason"`

		Seeds    []playlist.Track `json:"seeds"`
		Answers  []playlist.QA    `json:"answers"`
		Analysis string           `json:"analysis"`

		Intention string `json:"intention"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if body.Discarded == nil || len(body.Current) == 0 {
		writeError(w, http.StatusBadRequest, "mode, discarded track, and current playlist are required")
		return
	}
	if body.Mode != playlist.ModeSeeded && body.Mode != playlist.ModeIntention {
		writeError(w, http.StatusBadRequest, "mode must be \"seeded\" or \"intention\"")
		return
	}
	if !a.hasMetadata || !a.hasCompletion {
		writeError(w, http.StatusServiceUnavailable, "upstream services not configured")
		return
	}

	track := a.refiner.Substitute(req.Context(), playlist.SubstituteRequest{
		Context: playlist.Context{
			Mode:      body.Mode,
			Seeds:     body.Seeds,
			QA:        body.Answers,
			Analysis:  body.Analysis,
			Intention: body.Intention,
		},
		Discarded: *body.Discarded,
		Current:   body.Current,
		Reason:    body.Reason,
	})
	if track == nil {
		writeError(w, http.StatusInternalServerError, "no verified substitute found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"track": track})
}

func (a *API) handleVideo(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if body.Title == "" || body.Artist == "" {
		writeError(w, http.StatusBadRequest, "title and artist are required")
		return
	}
	if !a.hasVideo {
		writeError(w, http.StatusServiceUnavailable, "video service not configured")
		return
	}

	var videoID *string
	if id := a.video.ResolveVideo(req.Context(), body.Title, body.Artist); id != "" {
		videoID = &id
	}

	writeJSON(w, http.StatusOK, map[string]any{"videoId": videoID})
}

// writeAssembleError maps pipeline failures to user-facing errors, keeping
// "nothing found" distinct from transport problems.
func (a *API) writeAssembleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNoCandidates):
		writeError(w, http.StatusInternalServerError, "no similar songs found")
	case errors.Is(err, shared.ErrEmptyPlaylist):
		writeError(w, http.StatusInternalServerError, "no verified songs found for this request")
	default:
		a.logger.Error("playlist assembly failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate playlist")
	}
}
