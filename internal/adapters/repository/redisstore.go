package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

const (
	redisBackend       = "redis"
	defaultRedisPrefix = "lineup"
	maxUpdateRetries   = 5
	scanBatch          = 256
)

// RedisStore keeps each job as a JSON string under <prefix>:job:<id>.
// Updates use optimistic transactions (WATCH/MULTI) and retry on conflict.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisOpts *redis.Options, opts ...RedisOption) (*RedisStore, error) {
	s := NewRedisStoreFromClient(redis.NewClient(redisOpts), opts...)
	if err := s.Ping(ctx); err != nil {
		_ = s.rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", redisOpts.Addr, err)
	}
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. Close closes the client.
func NewRedisStoreFromClient(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":job:" + id
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// expiry returns the key lifetime for a job in the given status. Queued and
// running jobs never expire; the TTL starts once the job is finished.
func (s *RedisStore) expiry(status model.JobStatus) time.Duration {
	if status == model.JobDone || status == model.JobFailed {
		return s.ttl
	}
	return 0
}

func (s *RedisStore) Save(ctx context.Context, job model.Job) (err error) { //nolint:gocritic // hugeParam: serialised by value
	defer func(start time.Time) { observe(redisBackend, "save", start, err) }(time.Now())
	if job.ID == "" {
		return ErrEmptyID
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, s.key(job.ID), data, s.expiry(job.Status)).Err(); err != nil {
		return fmt.Errorf("write job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (job model.Job, err error) {
	defer func(start time.Time) { observe(redisBackend, "get", start, err) }(time.Now())
	return s.read(ctx, s.rdb, id)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, g getter, id string) (model.Job, error) {
	data, err := g.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("read job %s: %w", id, err)
	}
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return model.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*model.Job) error) (err error) {
	defer func(start time.Time) { observe(redisBackend, "update", start, err) }(time.Now())
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		job, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&job); err != nil {
			return err
		}
		job.ID = id
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.expiry(job.Status))
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err = s.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe(redisBackend, "delete", start, err) }(time.Now())
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// Count scans the job keyspace. It returns 0 when Redis is unreachable.
func (s *RedisStore) Count(ctx context.Context) int {
	n := 0
	iter := s.rdb.Scan(ctx, 0, s.prefix+":job:*", scanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if iter.Err() != nil {
		return 0
	}
	return n
}
