package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "quotagate/pkg/domain-errors"
	"quotagate/pkg/secrets"
)

func TestNew(t *testing.T) {
	t.Run("nil store returns error", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
	})
}

func TestIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("key has the documented wire format", func(t *testing.T) {
		svc, err := New(NewInMemoryStore())
		require.NoError(t, err)

		key, cred, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, KeyPrefix))
		assert.Len(t, key, len(KeyPrefix)+64)
		assert.Equal(t, key[:PrefixLen], cred.LookupPrefix)
		assert.NotEmpty(t, cred.ClientID)
		assert.Equal(t, "u1", cred.UserID)
	})

	t.Run("plaintext key is never stored", func(t *testing.T) {
		store := NewInMemoryStore()
		svc, err := New(store)
		require.NoError(t, err)

		key, cred, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)

		stored, err := store.FindByPrefix(ctx, cred.LookupPrefix)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.NotContains(t, stored[0].SecretHash, key)
	})

	t.Run("empty user id rejected", func(t *testing.T) {
		svc, err := New(NewInMemoryStore())
		require.NoError(t, err)

		_, _, err = svc.Issue(ctx, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("issued key authenticates to its principal", func(t *testing.T) {
		svc, err := New(NewInMemoryStore())
		require.NoError(t, err)

		key, cred, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)

		principal, err := svc.Authenticate(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, cred.ClientID, principal.ClientID)
		assert.Equal(t, "u1", principal.UserID)
	})

	t.Run("wrong literal prefix rejected without lookup", func(t *testing.T) {
		svc, err := New(&countingStore{inner: NewInMemoryStore()})
		require.NoError(t, err)

		cs := svc.store.(*countingStore)
		_, err = svc.Authenticate(ctx, "zz_"+strings.Repeat("ab", 32))
		require.Error(t, err)
		assert.Zero(t, cs.lookups)
	})

	t.Run("unknown prefix and hash mismatch are indistinguishable", func(t *testing.T) {
		svc, err := New(NewInMemoryStore())
		require.NoError(t, err)

		key, _, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)

		// Unknown prefix: flip a character inside the lookup prefix.
		unknown := KeyPrefix + "0000000000000" + key[PrefixLen:]
		_, errUnknown := svc.Authenticate(ctx, unknown)
		require.Error(t, errUnknown)

		// Known prefix, wrong suffix.
		mismatch := key[:PrefixLen] + strings.Repeat("0", len(key)-PrefixLen)
		_, errMismatch := svc.Authenticate(ctx, mismatch)
		require.Error(t, errMismatch)

		assert.Equal(t, errUnknown.Error(), errMismatch.Error())
		assert.True(t, dErrors.HasCode(errUnknown, dErrors.CodeInvalidCredential))
		assert.True(t, dErrors.HasCode(errMismatch, dErrors.CodeInvalidCredential))
	})

	t.Run("colliding prefixes never cross-match", func(t *testing.T) {
		store := NewInMemoryStore()
		svc, err := New(store)
		require.NoError(t, err)

		// Two credentials forced onto the same lookup prefix.
		keyA, credA, err := svc.Issue(ctx, "user-a")
		require.NoError(t, err)

		keyB := keyA[:PrefixLen] + strings.Repeat("f", len(keyA)-PrefixLen)
		hashB, err := secrets.Hash(keyB)
		require.NoError(t, err)
		require.NoError(t, store.Create(ctx, &Credential{
			ClientID:     "client-b",
			UserID:       "user-b",
			LookupPrefix: keyA[:PrefixLen],
			SecretHash:   hashB,
		}))

		principalA, err := svc.Authenticate(ctx, keyA)
		require.NoError(t, err)
		assert.Equal(t, credA.ClientID, principalA.ClientID)

		principalB, err := svc.Authenticate(ctx, keyB)
		require.NoError(t, err)
		assert.Equal(t, "client-b", principalB.ClientID)
		assert.Equal(t, "user-b", principalB.UserID)
	})

	t.Run("store failure surfaces as storage unavailable", func(t *testing.T) {
		svc, err := New(&failingStore{})
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, KeyPrefix+strings.Repeat("ab", 32))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeStorageUnavailable))
	})
}

// countingStore records how many prefix lookups the service performs.
type countingStore struct {
	inner   *InMemoryStore
	lookups int
}

func (c *countingStore) FindByPrefix(ctx context.Context, prefix string) ([]*Credential, error) {
	c.lookups++
	return c.inner.FindByPrefix(ctx, prefix)
}

func (c *countingStore) Create(ctx context.Context, cred *Credential) error {
	return c.inner.Create(ctx, cred)
}

type failingStore struct{}

func (f *failingStore) FindByPrefix(context.Context, string) ([]*Credential, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) Create(context.Context, *Credential) error {
	return errors.New("connection refused")
}
