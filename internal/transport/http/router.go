package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quotagate/internal/gate"
	"quotagate/internal/platform/health"
	"quotagate/internal/platform/metrics"
	"quotagate/internal/platform/middleware"
)

// maxBodyBytes bounds request bodies; every accepted payload here is a
// small JSON object.
const maxBodyBytes = 1 << 20

// Deps are the wired components the router composes. Everything is built
// once in main and passed in; the transport layer owns no state.
type Deps struct {
	Auth    *AuthHandler
	API     *APIHandler
	Gate    *gate.Gate
	Guard   gate.AuthGuard
	Health  *health.Handler
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Credential lifecycle, throttled per source IP.
	r.Group(func(r chi.Router) {
		r.Use(gate.GuardMiddleware(d.Guard))
		r.Post("/auth/token", d.Auth.handleIssueToken)
		r.Post("/auth/refresh", d.Auth.handleRefresh)
		r.Post("/auth/revoke", d.Auth.handleRevoke)
		r.Post("/auth/api-keys", d.Auth.handleIssueKey)
	})

	// Everything under /v1 pays quota.
	r.Route("/v1", func(r chi.Router) {
		r.Use(d.Gate.Middleware)
		r.Get("/ping", d.API.handlePing)
		r.Get("/quota", d.API.handleQuota)
	})

	return r
}
