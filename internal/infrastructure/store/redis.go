package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TubeScribe/internal/config"
	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
)

const jobKeyPrefix = "tubescribe:job:"

// RedisStore keeps job records as JSON values with a server-side TTL so
// finished jobs age out without any cleanup process on our side.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

var _ ports.JobStore = (*RedisStore)(nil)

// NewRedisStore connects to the configured Redis instance.
func NewRedisStore(cfg config.RedisConfig, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{client: client, retention: retention}
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Create persists a new job record.
func (s *RedisStore) Create(ctx context.Context, job domain.Job) error {
	return s.write(ctx, job)
}

// Update replaces the whole record and refreshes its TTL.
func (s *RedisStore) Update(ctx context.Context, job domain.Job) error {
	return s.write(ctx, job)
}

// Get returns the current snapshot or domain.ErrNotFound when the key is
// missing or already expired.
func (s *RedisStore) Get(ctx context.Context, id string) (domain.Job, error) {
	raw, err := s.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Job{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

func (s *RedisStore) write(ctx context.Context, job domain.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, jobKeyPrefix+job.ID, raw, s.retention).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
