package apikey

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists API key credentials in PostgreSQL. FindByPrefix is
// served by an index on lookup_prefix; the column is non-secret by design.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed credential store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return fmt.Errorf("credential is required")
	}
	query := `
		INSERT INTO api_credentials (client_id, user_id, lookup_prefix, secret_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		cred.ClientID,
		cred.UserID,
		cred.LookupPrefix,
		cred.SecretHash,
		cred.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create api credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPrefix(ctx context.Context, lookupPrefix string) ([]*Credential, error) {
	query := `
		SELECT client_id, user_id, lookup_prefix, secret_hash, created_at
		FROM api_credentials
		WHERE lookup_prefix = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, lookupPrefix)
	if err != nil {
		return nil, fmt.Errorf("find api credentials: %w", err)
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		var cred Credential
		if err := rows.Scan(&cred.ClientID, &cred.UserID, &cred.LookupPrefix, &cred.SecretHash, &cred.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api credential: %w", err)
		}
		creds = append(creds, &cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api credentials: %w", err)
	}
	return creds, nil
}
