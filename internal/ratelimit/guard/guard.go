// Package guard throttles credential-issuing endpoints per client IP.
//
// Unlike the quota limiter, the guard uses a single fixed cooldown counter
// (auth:limit:{clientIP}) rather than calendar windows: five attempts per
// rolling 60 seconds, enforced before login, refresh, and key issuance
// handlers run. It exists to slow credential brute forcing, not to meter
// legitimate usage.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quotagate/internal/ratelimit/metrics"
	"quotagate/internal/ratelimit/models"
)

const (
	// DefaultThreshold is the attempt budget per cooldown window.
	DefaultThreshold = 5
	// DefaultWindow is the guard counter's fixed TTL.
	DefaultWindow = 60 * time.Second
)

// CounterStore is the single counter primitive the guard needs.
type CounterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Service enforces the per-IP attempt budget on auth endpoints.
type Service struct {
	counters  CounterStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	threshold int64
	window    time.Duration
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithThreshold overrides the attempt budget.
func WithThreshold(threshold int64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithWindow overrides the cooldown window.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		s.window = window
	}
}

// New creates a brute-force guard over the given counter store.
func New(counters CounterStore, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}

	svc := &Service{
		counters:  counters,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Allow records one attempt for the IP and reports whether it is still within
// budget. Counter-store failures fail open: an outage must not lock every
// caller out of authentication.
func (s *Service) Allow(ctx context.Context, clientIP string) bool {
	count, err := s.counters.IncrWithTTL(ctx, models.GuardKey(clientIP), s.window)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "auth guard counter unavailable, failing open", "error", err)
		}
		return true
	}

	if count > s.threshold {
		if s.metrics != nil {
			s.metrics.IncrementGuardDenied()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "auth attempts throttled", "client_ip", clientIP, "count", count)
		}
		return false
	}
	return true
}
