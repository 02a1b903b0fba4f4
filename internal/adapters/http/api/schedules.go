package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ScheduleDependencies defines the service calls behind /schedules.
type ScheduleDependencies interface {
	Submit(ctx context.Context, req model.JobRequest) (types.SubmitResult, error)
	Job(ctx context.Context, id string) (model.Job, error)
}

// SchedulesHandler handles schedule requests.
type SchedulesHandler struct {
	deps ScheduleDependencies
}

// NewSchedulesHandler creates a new schedules handler.
func NewSchedulesHandler(deps ScheduleDependencies) *SchedulesHandler {
	return &SchedulesHandler{deps: deps}
}

// HandlePostSchedule handles POST /schedules requests.
func (h *SchedulesHandler) HandlePostSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_schedule"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scheduleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Submit(r.Context(), req.toJobRequest())
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// HandleGetSchedule handles GET /schedules/{job_id} requests.
func (h *SchedulesHandler) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_schedule"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/schedules/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	job, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.NewJobView(job))
}
