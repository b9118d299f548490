package token

import (
	"time"
)

// RefreshCredential is the durable record behind an opaque refresh token.
//
// New records store only the SHA-256 digest of the token. Records issued
// before hashing was introduced carry the plaintext instead; they are found
// through the legacy fallback lookup until the sweep job retires them.
// Revocation is a boolean flip; records are never deleted eagerly.
type RefreshCredential struct {
	ID         string
	UserID     string
	TokenHash  string
	TokenPlain string `json:"-"` // legacy records only
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// TokenPair is the result of a login or registration: a short-lived signed
// access token and a long-lived opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
