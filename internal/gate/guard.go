package gate

import (
	"context"
	"net/http"
	"strconv"

	"quotagate/internal/ratelimit/guard"
	"quotagate/internal/transport/httputil"
	dErrors "quotagate/pkg/domain-errors"
)

// AuthGuard throttles repeated attempts from one source address.
type AuthGuard interface {
	Allow(ctx context.Context, clientIP string) bool
}

// GuardMiddleware protects credential-handling endpoints from brute-force
// attempts. It counts per client IP, independent of any resolved identity,
// because these endpoints are reached before authentication succeeds.
func GuardMiddleware(g AuthGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Allow(r.Context(), ClientIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(guard.DefaultWindow.Seconds())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimitMinute,
					"too many attempts, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
