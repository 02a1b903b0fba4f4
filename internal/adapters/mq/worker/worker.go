// Package worker runs queued schedule jobs and records their outcome.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/lineup/internal/adapters/mq/queue"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
	storeTimeout          = 5 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Solver runs the search a job asks for.
type Solver interface {
	Solve(ctx context.Context, job model.Job) (model.JobResult, error)
}

// Updater applies a change to a stored job.
type Updater interface {
	Update(ctx context.Context, id string, fn func(*model.Job) error) error
}

// Queue defines how workers receive jobs.
// The Dequeue channel must be closed once ctx is done.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for jobs from an in-process queue.
type InMemoryWorker struct {
	queue   Queue
	solver  Solver
	updater Updater
	name    string
	now     func() time.Time

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// unstarted holds jobs received but never run. Only read after done.
	unstarted []Job

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, solver Solver, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		solver:   solver,
		updater:  updater,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	dequeueCtx, stopDequeue := context.WithCancel(ctx)
	jobs := w.queue.Dequeue(dequeueCtx)
	defer func() {
		stopDequeue()
		for job := range jobs {
			w.unstarted = append(w.unstarted, job)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if w.stopping(ctx) {
				w.unstarted = append(w.unstarted, job)
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("jobID", job.ID), logger.Error(err))
			}
		}
	}
}

func (w *InMemoryWorker) stopping(ctx context.Context) bool {
	select {
	case <-w.shutdown:
		return true
	default:
		return ctx.Err() != nil
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job: running -> done | failed.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: jobs are passed by value through the channel
	start := time.Now()
	metrics.AddActiveWorkers(1)
	defer func() {
		metrics.AddActiveWorkers(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	strategy := string(job.Request.Strategy)
	if err := w.updater.Update(ctx, job.ID, func(j *model.Job) error {
		j.Status = model.JobRunning
		j.UpdatedAt = w.now()
		return nil
	}); err != nil {
		if ctx.Err() != nil {
			w.unstarted = append(w.unstarted, job)
			return nil
		}
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark job running: %w", err)
	}

	w.logger.Debug(ctx, "job started", logger.String("jobID", job.ID), logger.String("strategy", strategy))
	result, solveErr := w.solver.Solve(ctx, job)

	status := model.JobDone
	if solveErr != nil {
		status = model.JobFailed
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "solve_error")
		metrics.RecordErrorByType("solve_error", "high")
	}
	metrics.RecordJobCompleted(strategy, string(status))

	// The outcome is stored even when ctx was canceled during the search.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	err := w.updater.Update(storeCtx, job.ID, func(j *model.Job) error {
		j.Status = status
		j.UpdatedAt = w.now()
		if solveErr != nil {
			j.Error = solveErr.Error()
			j.Result = nil
			return nil
		}
		j.Error = ""
		j.Result = &result
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store job result: %w", err)
	}

	if solveErr != nil {
		w.logger.Warn(ctx, "job failed", logger.String("jobID", job.ID), logger.Error(solveErr))
		return nil
	}
	w.logger.Debug(ctx, "job finished",
		logger.String("jobID", job.ID),
		logger.Int("minCost", result.MinCost),
		logger.Uint64("examined", result.Examined),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	updater Updater
	now     func() time.Time

	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers sharing one queue, solver and updater.
// A non-positive count uses one worker per CPU.
func NewPool(workerCount int, queue Queue, solver Solver, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		updater: updater,
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, solver, updater, workerOpts...)
	}
	pool.logger = pool.workers[0].logger.Named("pool")
	pool.now = pool.workers[0].now

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop signals every worker and waits a bounded time for each.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		for _, worker := range p.workers {
			worker.shutdownOnce.Do(func() { close(worker.shutdown) })
		}
	})

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue, stops every worker and marks the jobs that
// never ran as failed with ErrStopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var unstarted []Job
	for i, worker := range p.workers {
		if err := worker.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			continue
		}
		unstarted = append(unstarted, worker.unstarted...)
	}
	if drainer, ok := p.queue.(interface{ Drain() []Job }); ok {
		unstarted = append(unstarted, drainer.Drain()...)
	}
	p.failUnstarted(ctx, unstarted)
	return nil
}

func (p *Pool) failUnstarted(ctx context.Context, jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	failed := 0
	for i := range jobs {
		changed := false
		err := p.updater.Update(storeCtx, jobs[i].ID, func(j *model.Job) error {
			if j.Status == model.JobDone || j.Status == model.JobFailed {
				return nil
			}
			changed = true
			j.Status = model.JobFailed
			j.Error = ErrStopped.Error()
			j.Result = nil
			j.UpdatedAt = p.now()
			return nil
		})
		if err != nil {
			metrics.RecordErrorByComponent("worker", "store_error")
			p.logger.Warn(ctx, "could not fail unstarted job", logger.String("jobID", jobs[i].ID), logger.Error(err))
			continue
		}
		if changed {
			failed++
			metrics.RecordJobCompleted(string(jobs[i].Request.Strategy), string(model.JobFailed))
		}
	}
	p.logger.Warn(ctx, "failed jobs left at shutdown", logger.Int("count", failed))
}
