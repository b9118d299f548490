// Package service implements fixed-window rate limiting over the shared
// counter store.
//
// Each check increments the caller's minute and day counters in one atomic
// batch, starts the counters' expirations the first time a window is seen,
// and compares the post-increment values against the supplied limits.
//
// Usage:
//
//	svc, _ := service.New(counterStore)
//	result, _ := svc.Check(ctx, partitionKey, limits)
//	if !result.Allowed {
//	    // Return 429 with result.Kind
//	}
//
// On counter-store outage the service fails open by default: the request is
// allowed and the outage is logged. WithFailClosed flips the policy for
// deployments that prefer rejecting traffic over running unprotected.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/ratelimit/window"
)

// CounterStore is the narrow slice of the shared counter store the limiter
// needs. Increments for the same key are totally ordered by the store.
type CounterStore interface {
	IncrPair(ctx context.Context, keyA, keyB string) (int64, int64, error)
	ExpireBatch(ctx context.Context, ttls map[string]time.Duration) error
	Counts(ctx context.Context, keys ...string) ([]int64, error)
}

// Service enforces per-partition minute and day limits.
// Thread-safe for concurrent use by HTTP middleware; all cross-request state
// lives in the counter store.
type Service struct {
	counters   CounterStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
	failClosed bool
	now        func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger for outage and denial logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder for observability.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFailClosed makes counter-store outages deny requests instead of
// allowing them. Fail-open trades abuse protection for availability during an
// outage; this option is the documented way to take the opposite trade.
func WithFailClosed() Option {
	return func(s *Service) {
		s.failClosed = true
	}
}

// WithClock overrides the time source. Tests use it to place requests at
// exact window offsets.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a rate limiting service over the given counter store.
func New(counters CounterStore, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}

	svc := &Service{
		counters: counters,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Check consumes one request from the partition's minute and day windows and
// decides allow or deny against the supplied limits. The minute check takes
// precedence when both limits are exceeded.
//
// The returned error is non-nil only in fail-closed mode when the counter
// store is unreachable; in the default fail-open mode storage failures yield
// an allowed result with FailedOpen set.
func (s *Service) Check(ctx context.Context, partitionKey string, limits models.Limits) (*models.Result, error) {
	w := window.At(s.now())
	minuteKey := models.RateKey(partitionKey, w.MinuteID)
	dayKey := models.RateKey(partitionKey, w.DayID)

	minuteCount, dayCount, err := s.counters.IncrPair(ctx, minuteKey, dayKey)
	if err != nil {
		return s.handleOutage(ctx, partitionKey, err)
	}

	// The increment that created a counter is responsible for starting its
	// expiration. Redis serializes increments, so exactly one request per
	// window observes count 1.
	ttls := make(map[string]time.Duration, 2)
	if minuteCount == 1 {
		ttls[minuteKey] = w.MinuteTTL()
	}
	if dayCount == 1 {
		ttls[dayKey] = w.DayTTL()
	}
	if len(ttls) > 0 {
		if err := s.counters.ExpireBatch(ctx, ttls); err != nil {
			return s.handleOutage(ctx, partitionKey, err)
		}
	}

	if limits.RequestsPerMinute > 0 && minuteCount > int64(limits.RequestsPerMinute) {
		return s.deny(ctx, partitionKey, models.DenyMinute, int(w.MinuteRemaining.Seconds())+1, minuteCount, dayCount), nil
	}
	if limits.RequestsPerDay > 0 && dayCount > int64(limits.RequestsPerDay) {
		return s.deny(ctx, partitionKey, models.DenyDay, int(w.DayRemaining.Seconds())+1, minuteCount, dayCount), nil
	}

	if s.metrics != nil {
		s.metrics.IncrementChecks("allowed")
	}
	return &models.Result{
		Allowed:     true,
		MinuteCount: minuteCount,
		DayCount:    dayCount,
	}, nil
}

// Usage reports the current window counters for a partition. This is a
// non-authoritative reporting path: missing counters and storage failures
// both read as zero.
func (s *Service) Usage(ctx context.Context, partitionKey string) models.Usage {
	w := window.At(s.now())
	counts, err := s.counters.Counts(ctx,
		models.RateKey(partitionKey, w.MinuteID),
		models.RateKey(partitionKey, w.DayID),
	)
	if err != nil {
		s.log(ctx, slog.LevelWarn, "usage read failed", "partition_key", partitionKey, "error", err)
		return models.Usage{}
	}
	return models.Usage{MinuteCount: counts[0], DayCount: counts[1]}
}

func (s *Service) deny(ctx context.Context, partitionKey string, kind models.DenyKind, retryAfter int, minuteCount, dayCount int64) *models.Result {
	if s.metrics != nil {
		s.metrics.IncrementChecks("denied")
		s.metrics.IncrementDenied(string(kind))
	}
	s.log(ctx, slog.LevelInfo, "rate limit exceeded",
		"partition_key", partitionKey,
		"kind", kind,
	)
	return &models.Result{
		Allowed:     false,
		Kind:        kind,
		MinuteCount: minuteCount,
		DayCount:    dayCount,
		RetryAfter:  retryAfter,
	}
}

func (s *Service) handleOutage(ctx context.Context, partitionKey string, err error) (*models.Result, error) {
	if s.failClosed {
		if s.metrics != nil {
			s.metrics.IncrementChecks("fail_closed")
		}
		s.log(ctx, slog.LevelError, "counter store unavailable, failing closed",
			"partition_key", partitionKey,
			"error", err,
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementChecks("fail_open")
		s.metrics.IncrementFailOpen()
	}
	s.log(ctx, slog.LevelError, "counter store unavailable, failing open",
		"partition_key", partitionKey,
		"error", err,
	)
	return &models.Result{Allowed: true, FailedOpen: true}, nil
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Log(ctx, level, msg, args...)
}
