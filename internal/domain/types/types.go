// Package types contains read shapes shared by the service and its transports.
package types

import (
	"time"

	"github.com/okian/lineup/internal/domain/model"
)

// SubmitResult acknowledges a schedule request.
type SubmitResult struct {
	JobID     string          `json:"job_id"`
	Status    model.JobStatus `json:"status"`
	Duplicate bool            `json:"duplicate"`
}

// JobView is the read shape of a job returned to clients.
type JobView struct {
	JobID         string                 `json:"job_id"`
	Status        model.JobStatus        `json:"status"`
	Strategy      model.Strategy         `json:"strategy"`
	MinCost       *int                   `json:"min_cost,omitempty"`
	Examined      uint64                 `json:"examined,omitempty"`
	Iterations    int                    `json:"iterations,omitempty"`
	TiesTruncated uint64                 `json:"ties_truncated,omitempty"`
	Results       []model.ScheduleResult `json:"results"`
	Error         string                 `json:"error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewJobView flattens a job and its result.
// Results is never nil so clients always see an array.
func NewJobView(job model.Job) JobView {
	v := JobView{
		JobID:     job.ID,
		Status:    job.Status,
		Strategy:  job.Request.Strategy,
		Results:   []model.ScheduleResult{},
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if r := job.Result; r != nil {
		cost := r.MinCost
		v.MinCost = &cost
		v.Examined = r.Examined
		v.Iterations = r.Iterations
		v.TiesTruncated = r.TiesTruncated
		if r.Results != nil {
			v.Results = r.Results
		}
	}
	return v
}

// Evaluation is the cost breakdown of one schedule.
type Evaluation struct {
	Cost       int                    `json:"cost"`
	Collisions []model.CollisionEvent `json:"collisions"`
}
