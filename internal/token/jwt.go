package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "quotagate/pkg/domain-errors"
)

// AccessClaims are the JWT claims carried by our access tokens.
type AccessClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// errInvalidToken is the single failure for every access-token problem.
// Signature, expiry, and malformed-payload failures are deliberately
// indistinguishable.
var errInvalidToken = dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired token")

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// NewJWTManager creates a manager with the service signing secret.
func NewJWTManager(signingKey string, issuer string, ttl time.Duration) (*JWTManager, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &JWTManager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// Generate mints a signed access token embedding the user identity.
func (m *JWTManager) Generate(userID string) (string, error) {
	now := m.now()
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// Validate verifies signature and expiry and returns the embedded user ID.
func (m *JWTManager) Validate(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return "", errInvalidToken
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || claims.UserID == "" {
		return "", errInvalidToken
	}
	return claims.UserID, nil
}
