// internal/api/server.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/interests"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
	"mentormatch/internal/workflow"
)

// Limit request bodies; a CV is text, not an upload.
const maxBodyBytes = 1 << 20

// Server exposes the workflow runner over HTTP. Workflows run synchronously
// within the request; the response body is the workflow's result envelope.
type Server struct {
	runner  *workflow.Runner
	vocab   *interests.Vocabulary
	service string
	logger  logger.Logger
}

func NewServer(runner *workflow.Runner, vocab *interests.Vocabulary, service string, log logger.Logger) *Server {
	return &Server{
		runner:  runner,
		vocab:   vocab,
		service: service,
		logger:  log.With(map[string]interface{}{"component": "api"}),
	}
}

// Routes returns the request mux for the service.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/analyze-cv", s.handleAnalyzeCV)
	mux.HandleFunc("/api/matching", s.handleMatching)
	mux.HandleFunc("/api/interests", s.handleInterests)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.service,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyzeCV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !isJSONRequest(r) {
		writeJSON(w, http.StatusBadRequest, models.CVAnalysisResult{
			Interests: []string{},
			Error:     "Content-Type must be application/json",
		})
		return
	}

	var body struct {
		CVText *string `json:"cv_text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, models.CVAnalysisResult{
			Interests: []string{},
			Error:     "invalid JSON body",
		})
		return
	}
	if body.CVText == nil {
		writeJSON(w, http.StatusBadRequest, models.CVAnalysisResult{
			Interests: []string{},
			Error:     "Missing required field: cv_text",
		})
		return
	}
	cvText := strings.TrimSpace(*body.CVText)
	if cvText == "" {
		writeJSON(w, http.StatusBadRequest, models.CVAnalysisResult{
			Interests: []string{},
			Error:     "cv_text cannot be empty",
		})
		return
	}

	s.logger.Info("cv analysis request received", map[string]interface{}{"textLength": len(cvText)})

	result := s.runner.RunCVAnalysis(r.Context(), cvText)
	if result.Success {
		writeJSON(w, http.StatusOK, result)
		return
	}
	writeJSON(w, http.StatusInternalServerError, result)
}

func (s *Server) handleMatching(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !isJSONRequest(r) {
		writeJSON(w, http.StatusBadRequest, models.MatchingResult{
			Suggest: []models.MatchResult{},
			Error:   "Content-Type must be application/json",
		})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(raw) {
		writeJSON(w, http.StatusBadRequest, models.MatchingResult{
			Suggest: []models.MatchResult{},
			Error:   "invalid JSON body",
		})
		return
	}

	result := s.runner.RunMatching(r.Context(), raw)
	switch {
	case result.Success:
		writeJSON(w, http.StatusOK, result)
	case result.ErrorCode == string(apperrors.ErrCodeValidationFailed):
		writeJSON(w, http.StatusBadRequest, result)
	default:
		writeJSON(w, http.StatusInternalServerError, result)
	}
}

func (s *Server) handleInterests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"interests": s.vocab.Tags()})
}

func isJSONRequest(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}
