package testjobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// ErrVerificationFailed reports that at least one job broke a scheduling guarantee.
var ErrVerificationFailed = errors.New("verification failed")

// verifyResults re-evaluates every returned schedule locally.
func verifyResults(ctx context.Context, config *Config, jobs []Job, views map[string]types.JobView, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results", logger.Int("jobs", len(views)))

	for i := range jobs {
		job := &jobs[i]
		if job.Resubmit && job.JobID != "" && !job.Duplicate {
			stats.Violations++
			logger.Get().Warn(ctx, "resubmission was not deduplicated", logger.String("jobID", job.JobID))
		}
		view, ok := views[job.JobID]
		if !ok || view.Status != model.JobDone {
			continue
		}
		errs := verifyJob(job.Request, view)
		stats.SchedulesChecked += len(view.Results)
		if len(errs) == 0 {
			stats.JobsVerified++
			continue
		}
		stats.Violations += len(errs)
		for _, err := range errs {
			logger.Get().Warn(ctx, "schedule check failed", logger.String("jobID", job.JobID), logger.Error(err))
		}
	}

	if stats.Violations > 0 {
		return fmt.Errorf("%w: %d violations", ErrVerificationFailed, stats.Violations)
	}
	if config.Verbose {
		logger.Get().Info(ctx, "all schedules verified", logger.Int("schedules", stats.SchedulesChecked))
	}
	return nil
}

// verifyJob checks a finished job against the catalog it was generated from.
func verifyJob(req ScheduleRequest, view types.JobView) []error { //nolint:gocritic // hugeParam: read only
	cat, err := model.NewCatalog(req.Acts...)
	if err != nil {
		return []error{fmt.Errorf("catalog: %w", err)}
	}
	if view.MinCost == nil {
		return []error{errors.New("finished job has no minimum cost")}
	}
	if len(view.Results) == 0 {
		return []error{errors.New("finished job has no schedules")}
	}

	var errs []error
	pins := model.Pins{Start: req.StartAct, End: req.EndAct}
	seen := make(map[string]struct{}, len(view.Results))
	for n, res := range view.Results {
		if err := model.ValidatePermutation(cat, res.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule %d: %w", n, err))
			continue
		}
		if !pins.Satisfied(res.Schedule) {
			errs = append(errs, fmt.Errorf("schedule %d: pins %+v not honoured", n, pins))
		}
		cost, err := collision.Evaluate(cat, res.Schedule)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule %d: %w", n, err))
			continue
		}
		if cost != res.Cost {
			errs = append(errs, fmt.Errorf("schedule %d: reported cost %d, evaluated %d", n, res.Cost, cost))
		}
		if cost != *view.MinCost {
			errs = append(errs, fmt.Errorf("schedule %d: cost %d differs from minimum %d", n, cost, *view.MinCost))
		}
		if len(res.Collisions) != cost {
			errs = append(errs, fmt.Errorf("schedule %d: %d collisions listed for cost %d", n, len(res.Collisions), cost))
		}
		key := fmt.Sprint(res.Schedule)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("schedule %d: repeated", n))
		}
		seen[key] = struct{}{}
	}
	return errs
}
