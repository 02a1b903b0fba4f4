package app

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Solve runs the search named by the job's strategy. Workers call it.
func (s *Service) Solve(ctx context.Context, job model.Job) (model.JobResult, error) { //nolint:gocritic // hugeParam: jobs are passed by value through the queue
	cat, err := model.NewCatalog(job.Request.Acts...)
	if err != nil {
		return model.JobResult{}, fmt.Errorf("build catalog: %w", err)
	}

	start := time.Now()
	var result model.JobResult
	switch job.Request.Strategy {
	case model.StrategyExhaustive:
		result, err = s.solveExhaustive(ctx, job, cat)
	case model.StrategyAnneal:
		result, err = s.solveAnneal(ctx, job, cat)
	default:
		err = fmt.Errorf("unknown strategy %q", job.Request.Strategy)
	}
	if err != nil {
		return model.JobResult{}, err
	}

	examined := result.Examined
	if job.Request.Strategy == model.StrategyAnneal {
		examined = uint64(result.Iterations)
	}
	metrics.RecordSearch(string(job.Request.Strategy), float64(time.Since(start).Milliseconds()), examined, result.MinCost)
	return result, nil
}

func (s *Service) solveExhaustive(ctx context.Context, job model.Job, cat *model.Catalog) (model.JobResult, error) { //nolint:gocritic // hugeParam: read only
	opts := []search.ExhaustiveOption{
		search.WithWarnThreshold(s.warnThreshold),
		search.WithConfirm(func(search.Plan) bool { return job.Request.ConfirmLarge }),
		search.WithMaxTies(s.maxTies),
	}
	if s.progressEvery > 0 {
		log := s.searchLogger()
		opts = append(opts, search.WithProgress(uint64(s.progressEvery), func(p search.Progress) {
			log.Debug(ctx, "exhaustive progress",
				logger.String("jobID", job.ID),
				logger.Uint64("examined", p.Examined),
				logger.Uint64("total", p.Total),
				logger.Int("minCost", p.MinCost),
				logger.Int("ties", p.Ties),
			)
		}))
	}

	res, err := search.Exhaustive(cat, job.Request.Pins, opts...)
	if err != nil {
		return model.JobResult{}, err
	}

	results, err := explainAll(cat, res.Schedules)
	if err != nil {
		return model.JobResult{}, err
	}
	return model.JobResult{
		MinCost:       res.MinCost,
		Examined:      res.Examined,
		TiesTruncated: res.TiesTruncated,
		Results:       results,
	}, nil
}

func (s *Service) solveAnneal(ctx context.Context, job model.Job, cat *model.Catalog) (model.JobResult, error) { //nolint:gocritic // hugeParam: read only
	var opts []search.AnnealOption
	if seed := job.Request.Anneal.Seed; seed != nil {
		opts = append(opts, search.WithSeed(*seed))
	}
	if s.progressEvery > 0 {
		log := s.searchLogger()
		opts = append(opts, search.WithAnnealProgress(s.progressEvery, func(p search.AnnealProgress) {
			log.Debug(ctx, "anneal progress",
				logger.String("jobID", job.ID),
				logger.Int("iteration", p.Iteration),
				logger.Int("currentCost", p.CurrentCost),
				logger.Int("bestCost", p.BestCost),
				logger.Float64("temperature", p.Temperature),
			)
		}))
	}

	res, err := search.Anneal(cat, job.Request.Pins, annealParams(job.Request.Anneal), opts...)
	if err != nil {
		return model.JobResult{}, err
	}

	results, err := explainAll(cat, []model.Schedule{res.Schedule})
	if err != nil {
		return model.JobResult{}, err
	}
	return model.JobResult{
		MinCost:    res.Cost,
		Iterations: res.Iterations,
		Results:    results,
	}, nil
}

func (s *Service) searchLogger() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("search")
	}
	return s.logger.Named("search")
}

func explainAll(cat *model.Catalog, schedules []model.Schedule) ([]model.ScheduleResult, error) {
	out := make([]model.ScheduleResult, 0, len(schedules))
	for _, sched := range schedules {
		events, err := collision.Explain(cat, sched)
		if err != nil {
			return nil, fmt.Errorf("explain schedule: %w", err)
		}
		if events == nil {
			events = []model.CollisionEvent{}
		}
		out = append(out, model.ScheduleResult{Schedule: sched, Cost: len(events), Collisions: events})
	}
	return out, nil
}
