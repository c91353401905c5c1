package services

import (
	"testing"

	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestUserService(t *testing.T, db *database.DB) *UserService {
	t.Helper()
	return NewUserService(db, auth.NewBcryptHasher(bcrypt.MinCost))
}
