package search

import (
	"math/rand"
	"time"
)

// ExhaustiveOption configures Exhaustive and PlanExhaustive.
type ExhaustiveOption func(*exhaustiveConfig)

type exhaustiveConfig struct {
	threshold     uint64
	confirm       func(Plan) bool
	maxTies       int
	progressEvery uint64
	progress      func(Progress)
}

func newExhaustiveConfig(opts []ExhaustiveOption) exhaustiveConfig {
	cfg := exhaustiveConfig{threshold: DefaultWarnThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithWarnThreshold sets the permutation count above which confirmation is required.
func WithWarnThreshold(n uint64) ExhaustiveOption {
	return func(c *exhaustiveConfig) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithConfirm registers the callback asked before a search whose plan warns.
// Returning false rejects the search with ErrNotConfirmed.
func WithConfirm(fn func(Plan) bool) ExhaustiveOption {
	return func(c *exhaustiveConfig) {
		c.confirm = fn
	}
}

// Confirmed is a confirm callback that always proceeds.
func Confirmed(Plan) bool { return true }

// WithMaxTies caps how many tied optimal schedules are kept. Zero keeps all.
// The minimum cost and the examined count are not affected by the cap.
func WithMaxTies(n int) ExhaustiveOption {
	return func(c *exhaustiveConfig) {
		if n >= 0 {
			c.maxTies = n
		}
	}
}

// WithProgress calls fn after every `every` examined candidates.
func WithProgress(every uint64, fn func(Progress)) ExhaustiveOption {
	return func(c *exhaustiveConfig) {
		if every > 0 && fn != nil {
			c.progressEvery = every
			c.progress = fn
		}
	}
}

// Progress is a snapshot of a running exhaustive search.
type Progress struct {
	Examined uint64
	Total    uint64
	MinCost  int
	Ties     int
}

// AnnealOption configures Anneal.
type AnnealOption func(*annealConfig)

type annealConfig struct {
	rng           *rand.Rand
	progressEvery int
	progress      func(AnnealProgress)
}

func newAnnealConfig(opts []AnnealOption) annealConfig {
	var cfg annealConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // search randomness, not security
	}
	return cfg
}

// WithRand sets the single random source used for shuffling, swap selection
// and acceptance draws.
func WithRand(r *rand.Rand) AnnealOption {
	return func(c *annealConfig) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithSeed seeds a fresh random source for reproducible runs.
func WithSeed(seed int64) AnnealOption {
	return func(c *annealConfig) {
		c.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible runs
	}
}

// WithAnnealProgress calls fn every `every` iterations.
func WithAnnealProgress(every int, fn func(AnnealProgress)) AnnealOption {
	return func(c *annealConfig) {
		if every > 0 && fn != nil {
			c.progressEvery = every
			c.progress = fn
		}
	}
}

// AnnealProgress is a snapshot of a running annealing search.
type AnnealProgress struct {
	Iteration   int
	CurrentCost int
	BestCost    int
	Temperature float64
}
