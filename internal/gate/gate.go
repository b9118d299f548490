// Package gate is the enforcement pipeline applied in front of protected
// endpoints: resolve the caller's identity, resolve their quota, consume one
// unit of it. Requests that fail authentication never consume quota.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"quotagate/internal/authn"
	"quotagate/internal/plan"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/transport/httputil"
	dErrors "quotagate/pkg/domain-errors"
)

// Authenticator resolves request credentials to an Identity.
type Authenticator interface {
	Dispatch(ctx context.Context, creds authn.Credentials) (*authn.Identity, error)
}

// PlanResolver supplies the quota policy for a user.
type PlanResolver interface {
	LimitsFor(ctx context.Context, userID string) (plan.QuotaPolicy, error)
}

// RateLimiter consumes one unit of quota for a partition key.
type RateLimiter interface {
	Check(ctx context.Context, partitionKey string, limits models.Limits) (*models.Result, error)
}

// Gate composes authentication, plan resolution, and rate limiting into one
// middleware.
type Gate struct {
	authn  Authenticator
	plans  PlanResolver
	limits RateLimiter
	logger *slog.Logger
}

// Option configures a Gate instance.
type Option func(*Gate)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a gate over the three pipeline stages.
func New(authenticator Authenticator, plans PlanResolver, limiter RateLimiter, opts ...Option) (*Gate, error) {
	if authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if plans == nil {
		return nil, errors.New("plan resolver is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	g := &Gate{
		authn:  authenticator,
		plans:  plans,
		limits: limiter,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Middleware enforces the pipeline and stores the resolved Identity in the
// request context for downstream handlers.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, err := g.authn.Dispatch(ctx, credentialsFrom(r))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		policy, err := g.plans.LimitsFor(ctx, identity.UserID)
		if err != nil {
			if g.logger != nil {
				g.logger.ErrorContext(ctx, "plan resolution failed",
					"user_id", identity.UserID, "error", err)
			}
			httputil.WriteError(w, err)
			return
		}

		result, err := g.limits.Check(ctx, identity.PartitionKey(), models.Limits{
			RequestsPerMinute: policy.RequestsPerMinute,
			RequestsPerDay:    policy.RequestsPerDay,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		writeUsageHeaders(w, policy, result)
		if !result.Allowed {
			writeDenied(w, result)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// credentialsFrom extracts the two accepted credential forms from a request.
func credentialsFrom(r *http.Request) authn.Credentials {
	creds := authn.Credentials{
		APIKey: r.Header.Get("X-API-Key"),
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			creds.BearerToken = strings.TrimSpace(token)
		}
	}
	return creds
}

func writeUsageHeaders(w http.ResponseWriter, policy plan.QuotaPolicy, result *models.Result) {
	if result.FailedOpen {
		return
	}
	w.Header().Set("X-RateLimit-Limit-Minute", strconv.FormatUint(uint64(policy.RequestsPerMinute), 10))
	w.Header().Set("X-RateLimit-Limit-Day", strconv.FormatUint(uint64(policy.RequestsPerDay), 10))
	w.Header().Set("X-RateLimit-Remaining-Minute", remaining(policy.RequestsPerMinute, result.MinuteCount))
	w.Header().Set("X-RateLimit-Remaining-Day", remaining(policy.RequestsPerDay, result.DayCount))
}

func remaining(limit uint, count int64) string {
	left := int64(limit) - count
	if left < 0 {
		left = 0
	}
	return strconv.FormatInt(left, 10)
}

func writeDenied(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))

	code := dErrors.CodeRateLimitMinute
	message := "minute rate limit exceeded"
	if result.Kind == models.DenyDay {
		code = dErrors.CodeRateLimitDay
		message = "daily rate limit exceeded"
	}
	httputil.WriteError(w, dErrors.New(code, message))
}

type identityKey struct{}

// WithIdentity stores the resolved identity in a context.
func WithIdentity(ctx context.Context, id *authn.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom retrieves the identity stored by the gate middleware.
func IdentityFrom(ctx context.Context) (*authn.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*authn.Identity)
	return id, ok
}

// ClientIP returns the caller's IP, preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
