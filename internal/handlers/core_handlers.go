package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"riff-review/internal/api"
	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string                 `json:"status"`
	ServerTime time.Time              `json:"server_time"`
	Metrics    *utils.MetricsSnapshot `json:"metrics,omitempty"`
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "healthy", ServerTime: time.Now()}
		if s.Metrics != nil {
			snap := s.Metrics.Snapshot()
			resp.Metrics = &snap
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// statusRecorder remembers the status code a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw writer.
		if s.Metrics == nil || r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.Metrics.IncrementRequests()
		if rec.status >= http.StatusInternalServerError {
			s.Metrics.IncrementErrors()
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// decodeJSON reads the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		api.WriteError(w, utils.NewInvalidInputError("Invalid request body"))
		return false
	}
	return true
}
