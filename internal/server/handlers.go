package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/commodities/internal/config"
	"github.com/aristath/commodities/internal/domain"
	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/reports"
	"github.com/aristath/commodities/internal/services"
	"github.com/aristath/commodities/internal/workers"
)

// maxPositionsBody caps the review request body
const maxPositionsBody = 1 << 20

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error  string `json:"error"`
	Stage  string `json:"stage,omitempty"`
	Item   string `json:"item,omitempty"`
	State  string `json:"state,omitempty"`
	Status int    `json:"status"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "commodities",
	}

	if s.healthCheck != nil {
		if err := s.healthCheck(r.Context()); err != nil {
			response["status"] = "unhealthy"
			response["error"] = err.Error()
			s.writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRunDiscovery(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, pipeline.Discovery{})
}

func (s *Server) handleRunReview(w http.ResponseWriter, r *http.Request) {
	var positions []domain.Position
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPositionsBody))
	if err := dec.Decode(&positions); err != nil {
		s.writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid positions body: " + err.Error()})
		return
	}

	s.execute(w, r, pipeline.Review{Positions: positions})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, mode pipeline.Mode) {
	result, err := s.runs.Execute(r.Context(), mode)
	if err != nil && result == nil {
		s.writeRunError(w, err)
		return
	}
	if err != nil {
		// The run succeeded; only persisting it failed
		s.log.Warn().Err(err).Str("run_id", result.Envelope.ID).Msg("Report not fully persisted")
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			s.writeError(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	list, err := s.reports.List(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list reports")
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: "failed to list reports"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": list,
		"count":   len(list),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	env, err := s.reports.Get(r.Context(), id)
	if errors.Is(err, reports.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("Failed to load report")
		s.writeError(w, http.StatusInternalServerError, errorResponse{Error: "failed to load report"})
		return
	}

	s.writeJSON(w, http.StatusOK, env)
}

// writeRunError maps a failed run to a status code, keeping the failing stage and item visible
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, pipeline.ErrInvalidInput), errors.Is(err, config.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrRunInProgress):
		status = http.StatusConflict
	}

	var stateErr *pipeline.StateError
	if errors.As(err, &stateErr) {
		resp.State = string(stateErr.State)
	}
	var itemErr *workers.ItemError
	if errors.As(err, &itemErr) {
		resp.Stage = itemErr.Stage
		resp.Item = itemErr.ItemID
	}

	s.writeError(w, status, resp)
}

func (s *Server) writeError(w http.ResponseWriter, status int, resp errorResponse) {
	resp.Status = status
	s.writeJSON(w, status, resp)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
