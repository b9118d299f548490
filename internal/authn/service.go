// Package authn resolves a request's credentials to an Identity.
//
// Resolution is an ordered list of verification strategies. Each strategy
// inspects one credential form and either produces an Identity or passes;
// the dispatcher takes the first success. Failures across strategies are
// merged into one uniform rejection so a caller cannot learn which scheme
// almost succeeded.
package authn

import (
	"context"
	"errors"
	"log/slog"

	"quotagate/internal/apikey"
	"quotagate/internal/authn/metrics"
	dErrors "quotagate/pkg/domain-errors"
)

// BearerVerifier validates signed access tokens.
type BearerVerifier interface {
	ValidateAccess(token string) (string, error)
}

// KeyVerifier validates presented API keys.
type KeyVerifier interface {
	Authenticate(ctx context.Context, presentedKey string) (*apikey.Principal, error)
}

var (
	errMissingCredential = dErrors.New(dErrors.CodeMissingCredential,
		"supply a bearer token or an API key")
	// errRejected is the one answer for every failed attempt, whichever
	// strategy or combination of strategies failed.
	errRejected = dErrors.New(dErrors.CodeInvalidCredential,
		"invalid credentials: supply a valid bearer token or API key")
)

// Credentials are the raw credential values extracted from a request.
// Either field may be empty.
type Credentials struct {
	BearerToken string
	APIKey      string
}

// Dispatcher tries verification strategies in a fixed order: bearer token
// first, API key second.
type Dispatcher struct {
	bearer  BearerVerifier
	keys    KeyVerifier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Dispatcher instance.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a dispatcher over the two verifiers.
func New(bearer BearerVerifier, keys KeyVerifier, opts ...Option) (*Dispatcher, error) {
	if bearer == nil {
		return nil, errors.New("bearer verifier is required")
	}
	if keys == nil {
		return nil, errors.New("key verifier is required")
	}

	d := &Dispatcher{
		bearer: bearer,
		keys:   keys,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Dispatch resolves the presented credentials to an Identity.
//
// Outcomes: an Identity with only UserID set (bearer path), an Identity
// carrying both ClientID and UserID (API key path), or an error. Absent
// credentials report missing_credential; any failed attempt reports the
// uniform invalid_credential. A durable-store outage during key verification
// is the one failure that surfaces as-is, since no safe default exists for
// identity data.
func (d *Dispatcher) Dispatch(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.BearerToken == "" && creds.APIKey == "" {
		d.recordOutcome("missing")
		return nil, errMissingCredential
	}

	if creds.BearerToken != "" {
		userID, err := d.bearer.ValidateAccess(creds.BearerToken)
		if err == nil {
			d.recordOutcome("user")
			return &Identity{UserID: userID}, nil
		}
		if d.logger != nil {
			d.logger.DebugContext(ctx, "bearer verification failed", "error", err)
		}
	}

	if creds.APIKey != "" {
		principal, err := d.keys.Authenticate(ctx, creds.APIKey)
		if err == nil {
			d.recordOutcome("client")
			return &Identity{UserID: principal.UserID, ClientID: principal.ClientID}, nil
		}
		if dErrors.HasCode(err, dErrors.CodeStorageUnavailable) {
			return nil, err
		}
		if d.logger != nil {
			d.logger.DebugContext(ctx, "api key verification failed", "error", err)
		}
	}

	d.recordOutcome("rejected")
	return nil, errRejected
}

func (d *Dispatcher) recordOutcome(outcome string) {
	if d.metrics != nil {
		d.metrics.IncrementAttempts(outcome)
	}
}
