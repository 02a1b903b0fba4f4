// Package dedupe maps request fingerprints to the job that serves them.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records which job owns a request fingerprint so identical
// submissions share one job.
type Deduper interface {
	// Claim atomically binds key to jobID unless key is already bound.
	// It returns the owning job ID and true when key was already present.
	Claim(ctx context.Context, key, jobID string) (string, bool)

	// Lookup returns the job bound to key, if any.
	Lookup(ctx context.Context, key string) (string, bool)

	// Release drops key if it is still bound to jobID, so a later
	// submission creates a new job. It reports whether key was dropped.
	Release(ctx context.Context, key, jobID string) bool

	Size() int64
}

type entry struct {
	key   string
	jobID string
}

// inMemoryDeduper keeps fingerprints in insertion order.
// Bounded mode (maxSize > 0) evicts the oldest fingerprint first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List // front = newest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper holding at most 50000 fingerprints
// unless configured otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.index = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		return el.Value.(entry).jobID, true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.index[key] = d.order.PushFront(entry{key: key, jobID: jobID})
	d.size.Add(1)
	return jobID, false
}

func (d *inMemoryDeduper) Lookup(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		return el.Value.(entry).jobID, true
	}
	return "", false
}

func (d *inMemoryDeduper) Release(_ context.Context, key, jobID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.index[key]
	if !ok || el.Value.(entry).jobID != jobID {
		return false
	}
	d.order.Remove(el)
	delete(d.index, key)
	d.size.Add(-1)
	return true
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.index, el.Value.(entry).key)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
