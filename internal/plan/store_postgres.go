package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresSubscriptionStore reads subscription records from PostgreSQL.
// Subscriptions are owned by the billing system; this store is read-only.
type PostgresSubscriptionStore struct {
	db *sql.DB
}

// NewPostgresSubscriptionStore constructs a PostgreSQL-backed store.
func NewPostgresSubscriptionStore(db *sql.DB) *PostgresSubscriptionStore {
	return &PostgresSubscriptionStore{db: db}
}

func (s *PostgresSubscriptionStore) FindByUserID(ctx context.Context, userID string) (*Subscription, error) {
	query := `
		SELECT user_id, tier, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`
	var sub Subscription
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&sub.UserID, &sub.Tier, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &sub, nil
}
