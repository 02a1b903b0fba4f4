// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScheduleDependencies
	EvaluateDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	schedulesHandler *SchedulesHandler
	evaluateHandler  *EvaluateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		schedulesHandler: NewSchedulesHandler(deps),
		evaluateHandler:  NewEvaluateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", Instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", Instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/schedules", Instrument("schedules", s.schedulesHandler.HandlePostSchedule))
	mux.HandleFunc("/schedules/", Instrument("schedule", s.schedulesHandler.HandleGetSchedule))
	mux.HandleFunc("/evaluate", Instrument("evaluate", s.evaluateHandler.HandleEvaluate))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// confirmationResponse is returned with 409 when an exhaustive request
// needs confirm_large.
type confirmationResponse struct {
	errorResponse
	Permutations uint64 `json:"permutations"`
	Overflow     bool   `json:"overflow"`
	Threshold    uint64 `json:"threshold"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	recordCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var confirm *types.ConfirmationError
	switch {
	case errors.As(err, &confirm):
		recordCode(w, "confirmation_required")
		writeJSON(w, http.StatusConflict, confirmationResponse{
			errorResponse: errorResponse{Code: "confirmation_required", Message: err.Error()},
			Permutations:  confirm.Permutations,
			Overflow:      confirm.Overflow,
			Threshold:     confirm.Threshold,
		})
	case errors.Is(err, model.ErrInvalidConstraint):
		writeError(w, http.StatusBadRequest, "invalid_constraint", err)
	case errors.Is(err, types.ErrTooLarge):
		writeError(w, http.StatusBadRequest, "too_large", err)
	case errors.Is(err, types.ErrInvalidRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, types.ErrJobNotFound), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, types.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
