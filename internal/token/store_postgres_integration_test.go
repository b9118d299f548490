//go:build integration

package token_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"

	"quotagate/internal/token"
	"quotagate/pkg/secrets"
)

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *token.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		s.T().Skip("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	s.Require().NoError(err)
	s.Require().NoError(db.Ping())

	s.db = db
	s.store = token.NewPostgresStore(db)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(), "TRUNCATE refresh_credentials")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newHashedCredential(userID string) (*token.RefreshCredential, string) {
	plain := uuid.NewString()
	return &token.RefreshCredential{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: secrets.Digest(plain),
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}, plain
}

func (s *PostgresStoreSuite) TestCreateAndFindByHash() {
	ctx := context.Background()

	cred, plain := s.newHashedCredential("u1")
	s.Require().NoError(s.store.Create(ctx, cred))

	found, err := s.store.FindByHash(ctx, secrets.Digest(plain))
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(cred.ID, found.ID)
	s.Equal("u1", found.UserID)
	s.Empty(found.TokenPlain)

	missing, err := s.store.FindByHash(ctx, secrets.Digest("never-issued"))
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *PostgresStoreSuite) TestFindByPlainLegacyRow() {
	ctx := context.Background()

	legacy := &token.RefreshCredential{
		ID:         uuid.NewString(),
		UserID:     "u-legacy",
		TokenPlain: "legacy-opaque-token",
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now().Add(-24 * time.Hour),
	}
	s.Require().NoError(s.store.Create(ctx, legacy))

	found, err := s.store.FindByPlain(ctx, "legacy-opaque-token")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("u-legacy", found.UserID)
}

// TestEmptyTokenNeverMatchesHashedRows pins the empty-string guard: hashed
// rows persist token_plain = '', and FindByPlain("") must not resolve to one
// of them.
func (s *PostgresStoreSuite) TestEmptyTokenNeverMatchesHashedRows() {
	ctx := context.Background()

	cred, _ := s.newHashedCredential("victim-user")
	s.Require().NoError(s.store.Create(ctx, cred))

	found, err := s.store.FindByPlain(ctx, "")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *PostgresStoreSuite) TestMarkRevoked() {
	ctx := context.Background()

	cred, plain := s.newHashedCredential("u1")
	s.Require().NoError(s.store.Create(ctx, cred))

	s.Require().NoError(s.store.MarkRevoked(ctx, cred.ID))
	s.Require().NoError(s.store.MarkRevoked(ctx, cred.ID))

	found, err := s.store.FindByHash(ctx, secrets.Digest(plain))
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.True(found.Revoked)
}
