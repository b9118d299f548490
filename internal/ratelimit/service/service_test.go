package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotagate/internal/ratelimit/counter"
	"quotagate/internal/ratelimit/models"
	dErrors "quotagate/pkg/domain-errors"
)

// =============================================================================
// Test harness
// =============================================================================
// The limiter runs against a real counter store over miniredis; window
// placement is controlled through the injected clock.

type harness struct {
	service *Service
	mini    *miniredis.Miniredis
	now     time.Time
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := counter.New(rdb, counter.DefaultConfig())
	require.NoError(t, err)

	h := &harness{
		mini: mr,
		// Second 5 of a minute, mid-afternoon.
		now: time.Date(2025, 3, 15, 10, 4, 5, 0, time.UTC),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	allOpts := append([]Option{
		WithLogger(logger),
		WithClock(func() time.Time { return h.now }),
	}, opts...)

	svc, err := New(store, allOpts...)
	require.NoError(t, err)
	h.service = svc
	return h
}

func TestNew(t *testing.T) {
	t.Run("nil counter store returns error", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "counter store is required")
	})
}

// =============================================================================
// Limit enforcement
// =============================================================================
// Justification: the core contract. For all limits L, the first L checks in a
// window allow and the (L+1)th denies with the correct kind.

func TestCheckLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("first L allowed then denied with MINUTE", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 3, RequestsPerDay: 1000}

		for i := 1; i <= 3; i++ {
			result, err := h.service.Check(ctx, "u1", limits)
			require.NoError(t, err)
			assert.True(t, result.Allowed, "call %d", i)
			assert.Equal(t, int64(i), result.MinuteCount)
		}

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, models.DenyMinute, result.Kind)
		assert.Positive(t, result.RetryAfter)
	})

	t.Run("day limit denies with DAY", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 1000, RequestsPerDay: 2}

		for i := 0; i < 2; i++ {
			result, err := h.service.Check(ctx, "u1", limits)
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, models.DenyDay, result.Kind)
	})

	t.Run("minute takes precedence when both exceeded", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 1, RequestsPerDay: 1}

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		require.True(t, result.Allowed)

		result, err = h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, models.DenyMinute, result.Kind)
	})

	t.Run("partitions are throttled independently", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 1, RequestsPerDay: 100}

		result, err := h.service.Check(ctx, "client-a", limits)
		require.NoError(t, err)
		require.True(t, result.Allowed)
		result, err = h.service.Check(ctx, "client-a", limits)
		require.NoError(t, err)
		require.False(t, result.Allowed)

		result, err = h.service.Check(ctx, "client-b", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

// =============================================================================
// Window boundaries
// =============================================================================

func TestWindowBoundaries(t *testing.T) {
	ctx := context.Background()

	t.Run("minute rollover resets minute but not day", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 2, RequestsPerDay: 3}

		for i := 0; i < 2; i++ {
			result, err := h.service.Check(ctx, "u1", limits)
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}

		// Second 2 of the next minute.
		h.now = time.Date(2025, 3, 15, 10, 5, 2, 0, time.UTC)

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(1), result.MinuteCount)
		assert.Equal(t, int64(3), result.DayCount)

		// The day counter carried over, so the next call trips the day limit.
		result, err = h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, models.DenyDay, result.Kind)
	})

	t.Run("day rollover resets day counter", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 100, RequestsPerDay: 1}

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		require.True(t, result.Allowed)

		h.now = h.now.Add(24 * time.Hour)

		result, err = h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, int64(1), result.DayCount)
	})

	t.Run("expiration set once per window", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 100, RequestsPerDay: 1000}

		_, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		minuteKey := models.RateKey("u1", "202503151004")
		firstTTL := h.mini.TTL(minuteKey)
		assert.Positive(t, firstTTL)

		_, err = h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.Equal(t, firstTTL, h.mini.TTL(minuteKey))
	})

	t.Run("10 allowed at second 5, 11th denied, next minute allowed", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 10, RequestsPerDay: 1000}

		for i := 0; i < 10; i++ {
			result, err := h.service.Check(ctx, "u1", limits)
			require.NoError(t, err)
			require.True(t, result.Allowed)
		}

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, models.DenyMinute, result.Kind)

		h.now = time.Date(2025, 3, 15, 10, 5, 2, 0, time.UTC)
		result, err = h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})
}

// =============================================================================
// Storage failure policy
// =============================================================================
// Justification: fail-open is a deliberate availability-over-strictness
// trade-off and must be observable (FailedOpen flag, logged error) rather
// than silent.

type failingStore struct {
	err error
}

func (f *failingStore) IncrPair(context.Context, string, string) (int64, int64, error) {
	return 0, 0, f.err
}

func (f *failingStore) ExpireBatch(context.Context, map[string]time.Duration) error {
	return f.err
}

func (f *failingStore) Counts(context.Context, ...string) ([]int64, error) {
	return nil, f.err
}

func TestStorageFailurePolicy(t *testing.T) {
	ctx := context.Background()
	limits := models.Limits{RequestsPerMinute: 1, RequestsPerDay: 1}
	outage := dErrors.Wrap(errors.New("connection refused"), dErrors.CodeStorageUnavailable, "counter increment failed")

	t.Run("fails open by default", func(t *testing.T) {
		svc, err := New(&failingStore{err: outage}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		require.NoError(t, err)

		result, err := svc.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.True(t, result.FailedOpen)
	})

	t.Run("fail-closed surfaces the storage error", func(t *testing.T) {
		svc, err := New(&failingStore{err: outage}, WithFailClosed())
		require.NoError(t, err)

		_, err = svc.Check(ctx, "u1", limits)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
	})

	t.Run("real outage mid-flight fails open", func(t *testing.T) {
		h := newHarness(t)
		h.mini.Close()

		result, err := h.service.Check(ctx, "u1", limits)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.True(t, result.FailedOpen)
	})
}

// =============================================================================
// Usage reporting
// =============================================================================

func TestUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("reports post-increment counts", func(t *testing.T) {
		h := newHarness(t)
		limits := models.Limits{RequestsPerMinute: 100, RequestsPerDay: 1000}

		for i := 0; i < 4; i++ {
			_, err := h.service.Check(ctx, "u1", limits)
			require.NoError(t, err)
		}

		usage := h.service.Usage(ctx, "u1")
		assert.Equal(t, int64(4), usage.MinuteCount)
		assert.Equal(t, int64(4), usage.DayCount)
	})

	t.Run("unknown partition reads as zero", func(t *testing.T) {
		h := newHarness(t)
		usage := h.service.Usage(ctx, "nobody")
		assert.Equal(t, models.Usage{}, usage)
	})

	t.Run("outage reads as zero, not error", func(t *testing.T) {
		h := newHarness(t)
		h.mini.Close()
		usage := h.service.Usage(ctx, "u1")
		assert.Equal(t, models.Usage{}, usage)
	})
}
