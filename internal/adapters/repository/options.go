package repository

import (
	"strings"
	"time"
)

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL expires finished jobs this long after their last update.
// Zero keeps jobs forever.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired jobs are swept.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.TrimSuffix(strings.TrimSpace(prefix), ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithRedisTTL sets the expiry written with every job. Zero means no expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}
