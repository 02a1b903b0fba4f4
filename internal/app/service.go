// Package app provides the scheduling service behind the HTTP API and the
// job workers.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jobqueue "github.com/okian/lineup/internal/adapters/mq/queue"
	workerpool "github.com/okian/lineup/internal/adapters/mq/worker"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/dedupe"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Default service limits.
const (
	DefaultExhaustiveMaxFree = 11
	DefaultMaxTies           = 1000
	DefaultResultTTL         = time.Hour

	stopTimeout = 10 * time.Second
)

// Service validates schedule requests, queues them and runs the searches.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	queue     jobqueue.Queue
	pool      *workerpool.Pool
	ownsStore bool

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	resultTTL         time.Duration
	exhaustiveMaxFree int
	warnThreshold     uint64
	maxTies           int
	annealDefaults    search.AnnealParams
	progressEvery     int

	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         1024,
		dedupeSize:        50_000,
		resultTTL:         DefaultResultTTL,
		exhaustiveMaxFree: DefaultExhaustiveMaxFree,
		warnThreshold:     search.DefaultWarnThreshold,
		maxTies:           DefaultMaxTies,
		annealDefaults:    search.DefaultAnnealParams(),
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting schedule service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithTTL(s.resultTTL))
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory job store", logger.Duration("ttl", s.resultTTL))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.store,
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "schedule service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("exhaustiveMaxFree", s.exhaustiveMaxFree),
		logger.Uint64("warnThreshold", s.warnThreshold),
	)
	return nil
}

// Stop drains the workers, closes the queue and closes the store if the
// service created it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping schedule service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	// A store passed in through WithStore belongs to the caller and stays
	// open so the service can be started again.
	if s.store != nil && s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "error closing job store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(ctx, "schedule service stopped")
}

// Submit validates req, deduplicates it and queues a job.
// An identical request returns the job created first.
func (s *Service) Submit(ctx context.Context, req model.JobRequest) (types.SubmitResult, error) { //nolint:gocritic // hugeParam: request is normalised by value
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.SubmitResult{}, types.ErrNotStarted
	}

	req, err := s.normalize(req)
	if err != nil {
		return types.SubmitResult{}, err
	}
	if err := s.validate(req); err != nil {
		return types.SubmitResult{}, err
	}

	now := s.now()
	job := model.Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    model.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The job is saved before its fingerprint is claimed so a duplicate
	// never observes an owner that is missing from the store.
	if err := s.store.Save(ctx, job); err != nil {
		return types.SubmitResult{}, fmt.Errorf("save job: %w", err)
	}

	key := dedupe.Fingerprint(req)
	for attempt := 0; ; attempt++ {
		owner, seen := s.deduper.Claim(ctx, key, job.ID)
		if !seen {
			break
		}
		existing, err := s.store.Get(ctx, owner)
		if err == nil {
			_ = s.store.Delete(ctx, job.ID)
			metrics.RecordJobDuplicate()
			s.logger.Debug(ctx, "duplicate request", logger.String("jobID", owner))
			return types.SubmitResult{JobID: owner, Status: existing.Status, Duplicate: true}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			_ = s.store.Delete(ctx, job.ID)
			return types.SubmitResult{}, fmt.Errorf("lookup duplicate job: %w", err)
		}
		if attempt > 0 {
			_ = s.store.Delete(ctx, job.ID)
			return types.SubmitResult{}, fmt.Errorf("%w: request is being resubmitted concurrently", types.ErrBackpressure)
		}
		// The owner expired from the store or was rolled back.
		s.deduper.Release(ctx, key, owner)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		_ = s.store.Delete(ctx, job.ID)
		s.deduper.Release(ctx, key, job.ID)
		if errors.Is(err, jobqueue.ErrQueueFull) || errors.Is(err, jobqueue.ErrQueueClosed) {
			return types.SubmitResult{}, fmt.Errorf("%w: %w", types.ErrBackpressure, err)
		}
		return types.SubmitResult{}, fmt.Errorf("enqueue job: %w", err)
	}

	metrics.RecordJobSubmitted(string(req.Strategy))
	s.logger.Debug(ctx, "job queued",
		logger.String("jobID", job.ID),
		logger.String("strategy", string(req.Strategy)),
		logger.Int("acts", len(req.Acts)),
	)
	return types.SubmitResult{JobID: job.ID, Status: model.JobQueued}, nil
}

// normalize trims names and fills annealing defaults so equal requests share a fingerprint.
func (s *Service) normalize(req model.JobRequest) (model.JobRequest, error) { //nolint:gocritic // hugeParam: returns a modified copy
	if req.Strategy == "" {
		req.Strategy = model.StrategyExhaustive
	}
	req.Strategy = model.Strategy(strings.ToLower(string(req.Strategy)))
	if !req.Strategy.Valid() {
		return req, fmt.Errorf("%w: unknown strategy %q", types.ErrInvalidRequest, req.Strategy)
	}
	req.Pins.Start = strings.TrimSpace(req.Pins.Start)
	req.Pins.End = strings.TrimSpace(req.Pins.End)

	if req.Strategy == model.StrategyAnneal {
		if req.Anneal.MaxIterations == 0 {
			req.Anneal.MaxIterations = s.annealDefaults.MaxIterations
		}
		if req.Anneal.InitialTemperature == 0 {
			req.Anneal.InitialTemperature = s.annealDefaults.InitialTemperature
		}
		if req.Anneal.CoolingRate == 0 {
			req.Anneal.CoolingRate = s.annealDefaults.CoolingRate
		}
	} else {
		req.Anneal = model.AnnealSettings{}
	}
	return req, nil
}

// validate runs every check a worker would otherwise fail on.
func (s *Service) validate(req model.JobRequest) error { //nolint:gocritic // hugeParam: read only
	cat, err := model.NewCatalog(req.Acts...)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
	}
	if err := req.Pins.Validate(cat); err != nil {
		return err
	}

	if req.Strategy == model.StrategyAnneal {
		if err := annealParams(req.Anneal).Validate(); err != nil {
			return fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
		}
		return nil
	}

	plan, err := search.PlanExhaustive(cat, req.Pins, search.WithWarnThreshold(s.warnThreshold))
	if err != nil {
		return err
	}
	if plan.FreeSize > s.exhaustiveMaxFree {
		return fmt.Errorf("%w: %d free positions, limit is %d; use the anneal strategy",
			types.ErrTooLarge, plan.FreeSize, s.exhaustiveMaxFree)
	}
	if plan.Warning && !req.ConfirmLarge {
		metrics.RecordConfirmationRequired()
		return &types.ConfirmationError{
			Permutations: plan.Permutations,
			Overflow:     plan.Overflow,
			Threshold:    plan.Threshold,
		}
	}
	return nil
}

func annealParams(a model.AnnealSettings) search.AnnealParams {
	return search.AnnealParams{
		MaxIterations:      a.MaxIterations,
		InitialTemperature: a.InitialTemperature,
		CoolingRate:        a.CoolingRate,
	}
}

// Job returns the stored job.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return model.Job{}, types.ErrNotStarted
	}

	job, err := store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Job{}, fmt.Errorf("%w: %s", types.ErrJobNotFound, id)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Evaluate returns the cost and collisions of schedule over acts.
func (s *Service) Evaluate(_ context.Context, acts []model.Act, schedule model.Schedule) (types.Evaluation, error) {
	cat, err := model.NewCatalog(acts...)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
	}
	events, err := collision.Explain(cat, schedule)
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
	}
	if events == nil {
		events = []model.CollisionEvent{}
	}
	return types.Evaluation{Cost: len(events), Collisions: events}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"exhaustiveMaxFree": s.exhaustiveMaxFree,
		"warnThreshold":     s.warnThreshold,
		"maxTies":           s.maxTies,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		storedJobs := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedJobs"] = storedJobs
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredJobs(storedJobs)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
