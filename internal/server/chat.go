package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/knowhub/knowhub-go/internal/logging"
	"github.com/knowhub/knowhub-go/internal/store"
)

// defaultTopK is the retrieval depth used when the request does not specify one.
const defaultTopK = 5

// historyLimit is the number of entries returned by GET /chat/history.
const historyLimit = 50

// handleChat handles POST /chat. The router resolves the query through its
// intent pipeline; the detected intent labels the metrics and the history
// entry. The handler never returns 5xx for answer-path degradations since
// the router already falls back internally.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	start := time.Now()
	resp, intent := s.deps.Router.Answer(r.Context(), req.Query, req.TopK)
	elapsed := time.Since(start)

	s.metrics.chatRequestsTotal.WithLabelValues(intent.String()).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(intent.String()).Observe(elapsed.Seconds())

	// History is an observability aid; failure to record never fails the chat.
	if s.deps.History != nil {
		if err := s.deps.History.Append(r.Context(), req.Query, intent.String(), resp.Answer); err != nil {
			log.Warn("history append failed", slog.Any("error", err))
		}
	}

	log.Info("chat answered",
		slog.String("intent", intent.String()),
		slog.Int("citations", len(resp.Citations)),
		slog.Duration("duration", elapsed),
	)

	writeJSON(w, r, http.StatusOK, chatResponse{Answer: resp.Answer, Citations: resp.Citations})
}

// handleChatHistory handles GET /chat/history, returning recent answered
// queries newest-first. With history disabled the list is empty.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	items := []store.Entry{}
	if s.deps.History != nil {
		recent, err := s.deps.History.Recent(r.Context(), historyLimit)
		if err != nil {
			logging.FromContext(r.Context()).Error("history read failed", slog.Any("error", err))
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if recent != nil {
			items = recent
		}
	}
	writeJSON(w, r, http.StatusOK, historyResponse{Items: items})
}
