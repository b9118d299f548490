package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists refresh credentials in PostgreSQL. Legacy rows from
// before hashing carry the token in token_plain with an empty token_hash.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed refresh store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cred *RefreshCredential) error {
	if cred == nil {
		return fmt.Errorf("credential is required")
	}
	query := `
		INSERT INTO refresh_credentials (id, user_id, token_hash, token_plain, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		cred.ID,
		cred.UserID,
		cred.TokenHash,
		cred.TokenPlain,
		cred.ExpiresAt,
		cred.Revoked,
		cred.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create refresh credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, tokenHash string) (*RefreshCredential, error) {
	return s.findWhere(ctx, "token_hash = $1", tokenHash)
}

func (s *PostgresStore) FindByPlain(ctx context.Context, tokenStr string) (*RefreshCredential, error) {
	// Hashed rows store token_plain = ''. Without the guard an empty
	// presented token would match the first hashed row.
	if tokenStr == "" {
		return nil, nil
	}
	return s.findWhere(ctx, "token_plain = $1 AND token_plain <> ''", tokenStr)
}

func (s *PostgresStore) findWhere(ctx context.Context, cond string, arg string) (*RefreshCredential, error) {
	query := `
		SELECT id, user_id, token_hash, token_plain, expires_at, revoked, created_at
		FROM refresh_credentials
		WHERE ` + cond
	var cred RefreshCredential
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.TokenHash,
		&cred.TokenPlain,
		&cred.ExpiresAt,
		&cred.Revoked,
		&cred.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh credential: %w", err)
	}
	return &cred, nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, id string) error {
	query := `UPDATE refresh_credentials SET revoked = TRUE WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("revoke refresh credential: %w", err)
	}
	return nil
}
