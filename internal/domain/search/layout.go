// Package search orders a catalog's acts to minimise collisions, either by
// enumerating every ordering or by simulated annealing.
//
// Both strategies run sequentially on the calling goroutine, perform no I/O,
// and keep all state local to the call.
package search

import (
	"math"

	"github.com/okian/lineup/internal/domain/model"
)

// DefaultWarnThreshold is the permutation count above which an exhaustive
// search needs explicit confirmation.
const DefaultWarnThreshold uint64 = 1_000_000

// layout splits a catalog into pinned positions and the free set.
// Acts are catalog positions; -1 marks an unset pin.
type layout struct {
	start, end int
	free       []int
	total      int
}

func newLayout(cat *model.Catalog, pins model.Pins) (layout, error) {
	if err := pins.Validate(cat); err != nil {
		return layout{}, err
	}
	l := layout{start: -1, end: -1, total: cat.Len()}
	if pins.Start != "" {
		l.start, _ = cat.Index(pins.Start)
	}
	if pins.End != "" {
		l.end, _ = cat.Index(pins.End)
	}
	l.free = make([]int, 0, cat.Len())
	for i := 0; i < cat.Len(); i++ {
		if i == l.start || i == l.end {
			continue
		}
		l.free = append(l.free, i)
	}
	return l, nil
}

// hasEnd reports whether the end pin adds its own position. A single act
// pinned at both ends occupies one slot.
func (l layout) hasEnd() bool { return l.end >= 0 && l.end != l.start }

// assemble writes start + middle + end into dst and returns it.
func (l layout) assemble(dst, middle []int) []int {
	dst = dst[:0]
	if l.start >= 0 {
		dst = append(dst, l.start)
	}
	dst = append(dst, middle...)
	if l.hasEnd() {
		dst = append(dst, l.end)
	}
	return dst
}

// eligible returns the schedule indices that may be swapped.
func (l layout) eligible() []int {
	first := 0
	if l.start >= 0 {
		first = 1
	}
	out := make([]int, 0, len(l.free))
	for i := first; i < first+len(l.free); i++ {
		out = append(out, i)
	}
	return out
}

func names(cat *model.Catalog, order []int) model.Schedule {
	s := make(model.Schedule, len(order))
	for i, idx := range order {
		s[i] = cat.Name(idx)
	}
	return s
}

// Plan describes the size of an exhaustive search before it runs.
type Plan struct {
	FreeSize     int    `json:"free_size"`
	Permutations uint64 `json:"permutations"`
	Overflow     bool   `json:"overflow"`
	Threshold    uint64 `json:"threshold"`
	Warning      bool   `json:"warning"`
}

// PlanExhaustive validates pins and sizes the exhaustive search over cat.
// Only WithWarnThreshold is consulted among opts.
func PlanExhaustive(cat *model.Catalog, pins model.Pins, opts ...ExhaustiveOption) (Plan, error) {
	cfg := newExhaustiveConfig(opts)
	l, err := newLayout(cat, pins)
	if err != nil {
		return Plan{}, err
	}
	return l.plan(cfg.threshold), nil
}

func (l layout) plan(threshold uint64) Plan {
	n, overflow := Factorial(len(l.free))
	return Plan{
		FreeSize:     len(l.free),
		Permutations: n,
		Overflow:     overflow,
		Threshold:    threshold,
		Warning:      overflow || n > threshold,
	}
}

// Factorial returns n! saturated at math.MaxUint64, and whether it saturated.
// For n <= 1 it returns 1.
func Factorial(n int) (uint64, bool) {
	result := uint64(1)
	for i := uint64(2); i <= uint64(max(n, 0)); i++ {
		if result > math.MaxUint64/i {
			return math.MaxUint64, true
		}
		result *= i
	}
	return result, false
}
