package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

const memoryBackend = "memory"

// MemoryStore keeps jobs in a map guarded by a RWMutex.
// With a TTL set, finished jobs older than the TTL are swept periodically.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job

	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an in-memory store. The sweeper runs until ctx
// is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		jobs:            make(map[string]model.Job),
		cleanupInterval: time.Minute,
		now:             time.Now,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 {
		s.startSweeper(ctx)
	}
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep removes finished jobs whose last update is older than the TTL and
// returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, j := range s.jobs {
		if (j.Status == model.JobDone || j.Status == model.JobFailed) && j.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	metrics.UpdateStoredJobs(len(s.jobs))
	return removed
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) Save(_ context.Context, job model.Job) (err error) { //nolint:gocritic // hugeParam: stored by value
	defer func(start time.Time) { observe(memoryBackend, "save", start, err) }(time.Now())
	if job.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	metrics.UpdateStoredJobs(len(s.jobs))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (job model.Job, err error) {
	defer func(start time.Time) { observe(memoryBackend, "get", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneJob(j), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*model.Job) error) (err error) {
	defer func(start time.Time) { observe(memoryBackend, "update", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j = cloneJob(j)
	if err := fn(&j); err != nil {
		return err
	}
	j.ID = id
	s.jobs[id] = j
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (err error) {
	defer func(start time.Time) { observe(memoryBackend, "delete", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	metrics.UpdateStoredJobs(len(s.jobs))
	return nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
