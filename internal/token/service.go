// Package token covers both halves of the bearer-token lifecycle: stateless
// verification of signed access tokens and durable verification of opaque
// refresh tokens.
//
// The two paths share no state. Access tokens live and die by their
// signature and expiry; refresh tokens are looked up by SHA-256 digest, with
// a plaintext fallback for records issued before hashing was introduced. The
// fallback is a dual-read migration strategy: newly issued tokens are always
// stored hashed.
package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/secrets"
)

// RefreshStore persists refresh credentials. Find methods return nil, nil
// when no record matches.
type RefreshStore interface {
	Create(ctx context.Context, cred *RefreshCredential) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshCredential, error)
	// FindByPlain serves the legacy records created before hashing.
	FindByPlain(ctx context.Context, token string) (*RefreshCredential, error)
	MarkRevoked(ctx context.Context, id string) error
}

// Refresh validation failures, one per violated check, reported in
// short-circuit order: existence, revocation, expiry.
var (
	errRefreshInvalid = dErrors.New(dErrors.CodeInvalidCredential, "invalid refresh token")
	errRefreshRevoked = dErrors.New(dErrors.CodeCredentialRevoked, "refresh token revoked")
	errRefreshExpired = dErrors.New(dErrors.CodeCredentialExpired, "refresh token expired")
)

// Service issues, validates, and revokes token pairs.
type Service struct {
	jwt        *JWTManager
	store      RefreshStore
	refreshTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRefreshTTL overrides the refresh credential lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.refreshTTL = ttl
	}
}

// WithClock overrides the time source for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// DefaultRefreshTTL is the forward expiry given to new refresh credentials.
const DefaultRefreshTTL = 30 * 24 * time.Hour

// New creates a token service from the JWT manager and refresh store.
func New(jwtManager *JWTManager, store RefreshStore, opts ...Option) (*Service, error) {
	if jwtManager == nil {
		return nil, errors.New("jwt manager is required")
	}
	if store == nil {
		return nil, errors.New("refresh store is required")
	}

	svc := &Service{
		jwt:        jwtManager,
		store:      store,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// ValidateAccess verifies a presented access token and returns the embedded
// user ID. Stateless; never touches storage.
func (s *Service) ValidateAccess(tokenStr string) (string, error) {
	return s.jwt.Validate(tokenStr)
}

// IssuePair mints an access token and a refresh credential for a user.
// The refresh token is stored hashed; the plaintext leaves the process only
// through the return value.
func (s *Service) IssuePair(ctx context.Context, userID string) (*TokenPair, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}

	access, err := s.jwt.Generate(userID)
	if err != nil {
		return nil, err
	}

	refresh, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	cred := &RefreshCredential{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: secrets.Digest(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "refresh credential create failed")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateRefresh verifies a presented refresh token against its durable
// record. Checks run in order (existence, then revocation, then expiry) and
// stop at the first violation with a distinct reason.
func (s *Service) ValidateRefresh(ctx context.Context, tokenStr string) (*RefreshCredential, error) {
	cred, err := s.lookup(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errRefreshInvalid
	}
	if cred.Revoked {
		return nil, errRefreshRevoked
	}
	if !cred.ExpiresAt.After(s.now()) {
		return nil, errRefreshExpired
	}
	return cred, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh credential itself is untouched: it is mutated only by revocation.
func (s *Service) Refresh(ctx context.Context, tokenStr string) (string, error) {
	cred, err := s.ValidateRefresh(ctx, tokenStr)
	if err != nil {
		return "", err
	}
	return s.jwt.Generate(cred.UserID)
}

// Revoke marks the credential behind a presented token as revoked. Idempotent
// at this layer: revoking an already-revoked or unknown token is not an
// error.
func (s *Service) Revoke(ctx context.Context, tokenStr string) error {
	cred, err := s.lookup(ctx, tokenStr)
	if err != nil {
		return err
	}
	if cred == nil {
		return nil
	}
	if err := s.store.MarkRevoked(ctx, cred.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "refresh credential revoke failed")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "refresh token revoked", "user_id", cred.UserID)
	}
	return nil
}

// lookup finds the credential for a presented token: digest first, then the
// legacy plaintext fallback. An empty token never matches anything: hashed
// rows persist token_plain as the empty string, so letting "" reach the
// plaintext lookup would resolve it to an arbitrary credential.
func (s *Service) lookup(ctx context.Context, tokenStr string) (*RefreshCredential, error) {
	if tokenStr == "" {
		return nil, nil
	}

	cred, err := s.store.FindByHash(ctx, secrets.Digest(tokenStr))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "refresh credential lookup failed")
	}
	if cred != nil {
		return cred, nil
	}

	cred, err = s.store.FindByPlain(ctx, tokenStr)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "refresh credential lookup failed")
	}
	return cred, nil
}
