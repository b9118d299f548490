// Package plan resolves a user identity to its quota limits.
//
// Resolution order: short-TTL cache, then the durable subscription record,
// then the lowest-tier default when no record exists. The cache is purely a
// load-shedding layer in front of the durable store; correctness never
// depends on it being present, so every cache failure is logged and skipped.
//
// Usage:
//
//	resolver, _ := plan.New(subscriptions, plan.WithCache(cache))
//	policy, err := resolver.LimitsFor(ctx, userID)
package plan

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SubscriptionStore,PolicyCache

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	dErrors "quotagate/pkg/domain-errors"
)

// SubscriptionStore reads the durable subscription record for a user.
// Implementations return nil, nil when the user has no record.
type SubscriptionStore interface {
	FindByUserID(ctx context.Context, userID string) (*Subscription, error)
}

// PolicyCache is the short-TTL cache in front of the subscription store.
type PolicyCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, userID string) (*QuotaPolicy, error)
	Set(ctx context.Context, userID string, policy QuotaPolicy) error
}

// Resolver maps user identities to quota policies.
type Resolver struct {
	subscriptions SubscriptionStore
	cache         PolicyCache
	logger        *slog.Logger
	group         singleflight.Group
}

// Option configures a Resolver instance.
type Option func(*Resolver)

// WithLogger sets the structured logger for cache failure logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithCache sets the policy cache. Without one, every resolution hits the
// durable store.
func WithCache(cache PolicyCache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// New creates a resolver over the given subscription store.
func New(subscriptions SubscriptionStore, opts ...Option) (*Resolver, error) {
	if subscriptions == nil {
		return nil, errors.New("subscription store is required")
	}

	r := &Resolver{subscriptions: subscriptions}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// LimitsFor resolves the quota policy for a user.
//
// Cache read and write failures are logged and skipped. A missing
// subscription record resolves to the lowest-tier default without creating
// anything: the read path has no side effects beyond caching. A durable-store
// failure is the only hard error, since no safe default exists for identity
// data.
func (r *Resolver) LimitsFor(ctx context.Context, userID string) (QuotaPolicy, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.log(ctx, "policy cache read failed", "user_id", userID, "error", err)
		} else if cached != nil {
			return *cached, nil
		}
	}

	// Collapse concurrent misses for the same user into one durable read.
	// The read runs detached from the caller's cancellation: the first
	// caller hanging up must not fail every collapsed waiter.
	v, err, _ := r.group.Do(userID, func() (interface{}, error) {
		return r.resolve(context.WithoutCancel(ctx), userID)
	})
	if err != nil {
		return QuotaPolicy{}, err
	}
	return v.(QuotaPolicy), nil
}

func (r *Resolver) resolve(ctx context.Context, userID string) (QuotaPolicy, error) {
	sub, err := r.subscriptions.FindByUserID(ctx, userID)
	if err != nil {
		return QuotaPolicy{}, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "subscription lookup failed")
	}

	policy := DefaultPolicy()
	if sub != nil {
		policy = PolicyFor(sub.Tier)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, policy); err != nil {
			r.log(ctx, "policy cache write failed", "user_id", userID, "error", err)
		}
	}
	return policy, nil
}

func (r *Resolver) log(ctx context.Context, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.WarnContext(ctx, msg, args...)
}
