package testjobs

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
)

// newRand returns a generator for seed, drawing a seed from the clock when it is zero.
func newRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed //nolint:gosec // load generator, not security sensitive
}

// generateJobs builds config.NumJobs random catalogs over a shared performer pool.
func generateJobs(ctx context.Context, config *Config, stats *Stats) ([]Job, error) {
	if config.NumJobs <= 0 {
		return nil, fmt.Errorf("number of jobs must be positive, got %d", config.NumJobs)
	}
	if config.ActsPerJob <= 0 || config.PerformerPool <= 0 || config.PerformersPerAct <= 0 {
		return nil, fmt.Errorf("acts, pool and performers per act must be positive")
	}

	r, seed := newRand(config.Seed)
	logger.Get().Info(ctx, "generating catalogs",
		logger.Int("numJobs", config.NumJobs),
		logger.Int("actsPerJob", config.ActsPerJob),
		logger.Int("performerPool", config.PerformerPool),
		logger.Int64("seed", seed))

	pool := make([]string, config.PerformerPool)
	for i := range pool {
		pool[i] = uuid.New().String()
	}

	jobs := make([]Job, config.NumJobs)
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		jobs[i] = generateJob(r, config, pool)
	}

	stats.JobsGenerated = len(jobs)
	logger.Get().Info(ctx, "generated catalogs successfully", logger.Int("count", len(jobs)))
	return jobs, nil
}

// generateJob draws one catalog and its request options.
func generateJob(r *rand.Rand, config *Config, pool []string) Job {
	acts := generateCatalog(r, pool, config.ActsPerJob, config.PerformersPerAct)
	req := ScheduleRequest{
		RequestID: uuid.New().String(),
		Strategy:  config.Strategy,
		Acts:      acts,
	}
	if len(acts) > 1 && r.Float64() < config.PinRatio {
		req.StartAct = acts[0].Name
		req.EndAct = acts[len(acts)-1].Name
	}
	if req.Strategy == string(model.StrategyAnneal) {
		seed := r.Int63()
		req.Seed = &seed
	}
	return Job{
		Request:  req,
		Resubmit: r.Float64() < config.DuplicateRatio,
	}
}

// generateCatalog returns n acts with between 1 and maxPerAct distinct performers each.
func generateCatalog(r *rand.Rand, pool []string, n, maxPerAct int) []model.Act {
	maxPerAct = min(maxPerAct, len(pool))
	acts := make([]model.Act, n)
	for i := range acts {
		k := 1 + r.Intn(maxPerAct)
		members := make([]string, 0, k)
		for _, idx := range r.Perm(len(pool))[:k] {
			members = append(members, pool[idx])
		}
		acts[i] = model.Act{
			Name:       fmt.Sprintf("act-%02d", i+1),
			Performers: members,
		}
	}
	return acts
}
