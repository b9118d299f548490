// Package apikey issues and verifies long-lived API keys.
//
// A presented key is resolved in two steps: the non-secret lookup prefix
// narrows the search to a small candidate set, then the full key is checked
// against each candidate's bcrypt hash. Every verification failure surfaces
// as the same error so callers cannot probe which keys are registered.
package apikey

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/secrets"
)

// Store persists API key credentials. FindByPrefix returns every credential
// sharing a lookup prefix; the expected cardinality is 1, but prefix
// truncation makes collisions legal.
type Store interface {
	FindByPrefix(ctx context.Context, lookupPrefix string) ([]*Credential, error)
	Create(ctx context.Context, cred *Credential) error
}

// errInvalidKey is the single failure returned for every verification
// problem. Uniform by design: distinguishing "prefix not found" from "hash
// mismatch" would leak which keys exist.
var errInvalidKey = dErrors.New(dErrors.CodeInvalidCredential, "invalid API key")

// Service authenticates and issues API keys.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source for issuance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates an API key service over the given store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}

	svc := &Service{
		store: store,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Authenticate verifies a presented key and returns the principal it belongs
// to. Storage failures surface as hard errors: identity cannot be guessed.
func (s *Service) Authenticate(ctx context.Context, presentedKey string) (*Principal, error) {
	// Format check first; a key without the literal prefix never reaches
	// the store.
	if !strings.HasPrefix(presentedKey, KeyPrefix) || len(presentedKey) != len(KeyPrefix)+2*suffixLen {
		return nil, errInvalidKey
	}

	lookupPrefix := presentedKey[:PrefixLen]
	candidates, err := s.store.FindByPrefix(ctx, lookupPrefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "credential lookup failed")
	}

	for _, cand := range candidates {
		if secrets.Verify(presentedKey, cand.SecretHash) == nil {
			return &Principal{ClientID: cand.ClientID, UserID: cand.UserID}, nil
		}
	}

	// Empty candidate set and hash mismatch land here together.
	return nil, errInvalidKey
}

// Issue mints a new API key for a user. The plaintext key is returned exactly
// once and never stored.
func (s *Service) Issue(ctx context.Context, userID string) (string, *Credential, error) {
	if userID == "" {
		return "", nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}

	suffix, err := secrets.GenerateHex(suffixLen)
	if err != nil {
		return "", nil, err
	}
	key := KeyPrefix + suffix

	hash, err := secrets.Hash(key)
	if err != nil {
		return "", nil, err
	}

	cred := &Credential{
		ClientID:     uuid.NewString(),
		UserID:       userID,
		LookupPrefix: key[:PrefixLen],
		SecretHash:   hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "credential create failed")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "api key issued",
			"client_id", cred.ClientID,
			"user_id", userID,
			"lookup_prefix", cred.LookupPrefix,
		)
	}
	return key, cred, nil
}
