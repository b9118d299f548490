package apikey

import (
	"time"
)

// Key wire format: the literal prefix followed by 64 hex characters of
// randomness. The first PrefixLen characters of the full key form the
// non-secret lookup prefix stored alongside the hash for indexed retrieval.
const (
	KeyPrefix = "qg_"
	PrefixLen = 16
	suffixLen = 32 // random bytes, hex-encoded to 64 characters
)

// Credential is the stored form of an API key. The full key exists only at
// issuance time; afterwards only the lookup prefix and the one-way hash
// remain. Several credentials may share a lookup prefix; uniqueness is only
// guaranteed after full-key verification.
type Credential struct {
	ClientID     string
	UserID       string
	LookupPrefix string
	SecretHash   string `json:"-"` // bcrypt hash, never serialized
	CreatedAt    time.Time
}

// Principal is the identity a verified API key resolves to. The client, not
// the owning user, is the rate-limit partition: one user may hold several
// independently throttled clients.
type Principal struct {
	ClientID string
	UserID   string
}
