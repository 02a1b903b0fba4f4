// Package repository stores schedule jobs and their results.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

// Store provides read/write access to jobs.
type Store interface {
	// Save inserts or replaces a job.
	Save(ctx context.Context, job model.Job) error

	// Get returns a job by id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Job, error)

	// Update applies fn to the stored job atomically and persists the result.
	// Returns ErrNotFound if the job is unknown; an error from fn aborts the update.
	Update(ctx context.Context, id string, fn func(*model.Job) error) error

	// Delete removes a job. Deleting an unknown job is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int

	Close() error
}

// observe records the outcome of one store call.
func observe(backend, op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
		metrics.RecordErrorByComponent("store_"+backend, op)
	}
	metrics.RecordStoreOperation(backend, op, result, float64(time.Since(start).Microseconds())/1000)
}

// cloneJob copies the parts of a job that callers could mutate.
func cloneJob(j model.Job) model.Job { //nolint:gocritic // hugeParam: returns a detached copy
	j.Request.Acts = append([]model.Act(nil), j.Request.Acts...)
	if j.Request.Anneal.Seed != nil {
		seed := *j.Request.Anneal.Seed
		j.Request.Anneal.Seed = &seed
	}
	if j.Result != nil {
		r := *j.Result
		r.Results = append([]model.ScheduleResult(nil), r.Results...)
		j.Result = &r
	}
	return j
}
