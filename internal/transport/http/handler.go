package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-match-service/internal/app"
	"quiz-match-service/internal/domain"
)

// Handler exposes the matching use cases over plain JSON HTTP.
type Handler struct {
	service *app.MatchService
}

func NewHandler(service *app.MatchService) *Handler {
	return &Handler{service: service}
}

type matchRequest struct {
	QuestionText  string   `json:"questionText"`
	AnswerOptions []string `json:"answerOptions"`
}

type matchResponse struct {
	Matched        bool                `json:"matched"`
	Entry          *domain.CorpusEntry `json:"entry,omitempty"`
	CorrectAnswers []string            `json:"correctAnswers,omitempty"`
	Confidence     float64             `json:"confidence,omitempty"`
	Strategy       string              `json:"strategy,omitempty"`
	IsFallback     bool                `json:"isFallback,omitempty"`
	Breakdown      map[string]float64  `json:"breakdown,omitempty"`
}

type feedbackRequest struct {
	QuestionText string `json:"questionText"`
	EntryID      string `json:"entryId"`
	Correct      bool   `json:"correct"`
}

// ServeMatch handles POST /api/match.
func (h *Handler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Match(r.Context(), domain.ObservedQuestion{
		QuestionText:  req.QuestionText,
		AnswerOptions: req.AnswerOptions,
	})
	if err != nil {
		log.Printf("match failed: %v", err)
		http.Error(w, "match failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, matchResponseFrom(result))
}

// ServeFeedback handles POST /api/feedback.
func (h *Handler) ServeFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.RecordFeedback(r.Context(), domain.ObservedQuestion{QuestionText: req.QuestionText}, req.EntryID, req.Correct)
	switch {
	case err == domain.ErrEmptyQuestion, err == domain.ErrEntryNotFound:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("record feedback failed: %v", err)
		http.Error(w, "record feedback failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeStats handles GET /api/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.Stats())
}

func matchResponseFrom(result *domain.MatchResult) matchResponse {
	if result == nil {
		return matchResponse{Matched: false}
	}
	return matchResponse{
		Matched:        true,
		Entry:          result.Entry,
		CorrectAnswers: result.Entry.CorrectTexts(),
		Confidence:     result.Confidence,
		Strategy:       result.Strategy,
		IsFallback:     result.IsFallback,
		Breakdown:      result.Breakdown,
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
