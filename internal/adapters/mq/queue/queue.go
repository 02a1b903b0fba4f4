// Package queue holds schedule jobs waiting for a worker.
//
// The in-memory implementation is a bounded channel; a full queue rejects
// new jobs instead of blocking the submitter.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultBufferSize    = 1024
)

// Job is the payload flowing through the queue.
type Job = model.Job

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking.
	// It returns ErrQueueFull or ErrQueueClosed when the job was not accepted.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs as they become available.
	// The channel is closed when the queue is closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Drain removes and returns every job no consumer has taken.
	Drain() []Job

	// Close stops accepting jobs and closes dequeue channels once drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs       chan Job
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
	// held are jobs a canceled Dequeue had taken but not handed over.
	held []Job
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.jobs = make(chan Job, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs are passed by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrQueueClosed
	}
	if len(q.jobs) >= q.capacity {
		q.reject("capacity_exceeded")
		return ErrQueueFull
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	case <-ctx.Done():
		q.reject("context_cancelled")
		return ctx.Err()
	default:
		q.reject("queue_full")
		return ErrQueueFull
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that receives jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				start := time.Now()
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					q.hold(j)
					metrics.RecordErrorByComponent("queue", "held_on_cancel")
					metrics.RecordErrorLatency("queue", "held_on_cancel", float64(time.Since(start).Milliseconds()))
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) hold(j Job) { //nolint:gocritic // hugeParam: jobs are passed by value through the channel
	q.mu.Lock()
	defer q.mu.Unlock()
	q.held = append(q.held, j)
}

// Drain removes and returns the jobs held back by canceled consumers and
// those still buffered. It does not block.
func (q *InMemoryQueue) Drain() []Job {
	q.mu.Lock()
	out := q.held
	q.held = nil
	q.mu.Unlock()

	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				q.observe()
				return out
			}
			out = append(out, j)
		default:
			q.observe()
			return out
		}
	}
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Close stops the queue. Jobs already buffered are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
