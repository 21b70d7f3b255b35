package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/models"
	"github.com/chatkb/chatkb/internal/sentiment"
)

// handleAnalyze classifies the request text. This path is fail-closed: blank
// text is a client error and classifier failures surface as server errors
// carrying the underlying message.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.sentiment.Analyze(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, sentiment.ErrEmptyText) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleSearchKB answers a top-k knowledge-base query. This path is
// fail-open: whatever happens inside the KB service, the response is a 200
// with a (possibly empty) chunk list so RAG callers never see a KB outage as
// an error.
func (s *Server) handleSearchKB(w http.ResponseWriter, r *http.Request) {
	var req models.SearchKBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	chunks := s.kb.Search(r.Context(), req.Query, req.TopK)
	s.respondJSON(w, http.StatusOK, models.SearchKBResponse{Chunks: chunks})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status: "healthy",
		Model:  s.modelName,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
