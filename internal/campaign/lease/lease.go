// Package lease provides a best-effort claim step so two concurrent
// dispatch requests do not call the same lead twice. Claims are advisory:
// with no Redis configured the no-op store claims everything and operators
// enforce single-campaign-in-flight at the deployment level.
package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store claims leads by sheet row for the duration of a call attempt.
type Store interface {
	// Claim returns true if the row was free and is now held by this
	// caller. A held row stays claimed until Release or TTL expiry.
	Claim(ctx context.Context, row int, ttl time.Duration) (bool, error)
	// Release frees a claim early, allowing a later dispatch to retry the row.
	Release(ctx context.Context, row int) error
}

const keyPrefix = "campaign:claim:"

// RedisStore implements Store with SETNX + TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Claim(ctx context.Context, row int, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key(row), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim row %d: %w", row, err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, row int) error {
	if err := s.rdb.Del(ctx, key(row)).Err(); err != nil {
		return fmt.Errorf("release row %d: %w", row, err)
	}
	return nil
}

func key(row int) string {
	return fmt.Sprintf("%s%d", keyPrefix, row)
}

// NoopStore claims every row. Used when no Redis is configured.
type NoopStore struct{}

func (NoopStore) Claim(context.Context, int, time.Duration) (bool, error) { return true, nil }

func (NoopStore) Release(context.Context, int) error { return nil }
