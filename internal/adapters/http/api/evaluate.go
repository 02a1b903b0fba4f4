package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// EvaluateDependencies defines the service call behind /evaluate.
type EvaluateDependencies interface {
	Evaluate(ctx context.Context, acts []model.Act, schedule model.Schedule) (types.Evaluation, error)
}

// EvaluateHandler scores a caller supplied order.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

// HandleEvaluate handles POST /evaluate requests.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ev, err := h.deps.Evaluate(r.Context(), req.Acts, req.Schedule)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
