// Package counter is the shared atomic counter store backing rate limiting.
//
// It exposes narrow primitives over one logical Redis instance reachable from
// every service process: a paired atomic increment for the minute and day
// windows, expiration setting for newly created counters, and best-effort
// reads. Counters expire on their own; nothing here deletes them eagerly.
//
// Cross-instance consistency depends on Redis serializing increments, so this
// package must never cache counter values in process.
package counter

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "quotagate/pkg/domain-errors"
)

// Config bounds every store call. Exhausting attempts is reported as a
// storage failure for the caller's fail-open/fail-closed policy to handle.
type Config struct {
	// OpTimeout applies per attempt, not per call.
	OpTimeout time.Duration
	// MaxAttempts includes the first try.
	MaxAttempts int
}

// DefaultConfig returns the production defaults: tight timeout, one retry.
func DefaultConfig() Config {
	return Config{
		OpTimeout:   250 * time.Millisecond,
		MaxAttempts: 2,
	}
}

// Store is a Redis-backed atomic counter store.
type Store struct {
	client redis.UniversalClient
	config Config
}

// New creates a counter store over the given Redis client.
func New(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultConfig().OpTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Store{client: client, config: cfg}, nil
}

// IncrPair atomically increments both keys and returns the post-increment
// values. The increments run in one MULTI/EXEC batch: either both are applied
// or the call fails as a whole, so callers never observe a half-applied pair.
func (s *Store) IncrPair(ctx context.Context, keyA, keyB string) (int64, int64, error) {
	var a, b *redis.IntCmd
	err := s.withRetry(ctx, func(ctx context.Context) error {
		pipe := s.client.TxPipeline()
		a = pipe.Incr(ctx, keyA)
		b = pipe.Incr(ctx, keyB)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "counter increment failed")
	}
	return a.Val(), b.Val(), nil
}

// ExpireBatch sets expirations for the given keys in one batch. Callers invoke
// it only for counters whose post-increment value was 1, i.e. the increment
// that created the key; Redis serializes increments, so exactly one caller per
// window observes that value.
func (s *Store) ExpireBatch(ctx context.Context, ttls map[string]time.Duration) error {
	if len(ttls) == 0 {
		return nil
	}
	err := s.withRetry(ctx, func(ctx context.Context) error {
		pipe := s.client.TxPipeline()
		for key, ttl := range ttls {
			pipe.Expire(ctx, key, ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "counter expiration failed")
	}
	return nil
}

// Counts reads the current values of the given keys. Missing keys read as 0.
func (s *Store) Counts(ctx context.Context, keys ...string) ([]int64, error) {
	var vals []interface{}
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		vals, err = s.client.MGet(ctx, keys...).Result()
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "counter read failed")
	}

	counts := make([]int64, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			counts[i] = n
		}
	}
	return counts, nil
}

// IncrWithTTL increments a single counter and, when this call created the key,
// starts its fixed expiration window. Used by the brute-force guard, whose
// window is a plain cooldown rather than a calendar window.
func (s *Store) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		c, err := s.client.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		count = c
		if c == 1 {
			return s.client.Expire(ctx, key, ttl).Err()
		}
		return nil
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "guard increment failed")
	}
	return count, nil
}

// Reset deletes a counter. Test and operational tooling only; the enforcement
// path relies exclusively on expiration.
func (s *Store) Reset(ctx context.Context, keys ...string) error {
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "counter reset failed")
	}
	return nil
}

// withRetry runs op under the per-attempt timeout, retrying transient errors
// up to the configured attempt budget. Caller cancellation is not retried.
func (s *Store) withRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.OpTimeout)
		lastErr = op(attemptCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
