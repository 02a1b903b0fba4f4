package app

import (
	"time"

	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the request fingerprint cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the job store. The caller owns it and closes it after Stop.
// Without one an in-memory store is created on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithResultTTL bounds how long the default in-memory store keeps finished jobs.
func WithResultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.resultTTL = ttl
		}
	}
}

// WithExhaustiveLimit rejects exhaustive requests with more free positions.
func WithExhaustiveLimit(maxFree int) Option {
	return func(s *Service) {
		if maxFree > 0 {
			s.exhaustiveMaxFree = maxFree
		}
	}
}

// WithWarnThreshold sets the permutation count above which requests need confirm_large.
func WithWarnThreshold(n uint64) Option {
	return func(s *Service) {
		if n > 0 {
			s.warnThreshold = n
		}
	}
}

// WithMaxTies caps tied optima kept per exhaustive job. Zero keeps all.
func WithMaxTies(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxTies = n
		}
	}
}

// WithAnnealDefaults sets parameters used where a request leaves them unset.
func WithAnnealDefaults(p search.AnnealParams) Option {
	return func(s *Service) {
		if p.Validate() == nil {
			s.annealDefaults = p
		}
	}
}

// WithProgressEvery logs search progress every n candidates or iterations.
func WithProgressEvery(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.progressEvery = n
		}
	}
}
