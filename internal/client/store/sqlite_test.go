package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:tokenstore?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestSQLiteTokenStore_EmptyByDefault(t *testing.T) {
	s := NewSQLiteTokenStore(setupDB(t))

	access, refresh, err := s.Tokens(context.Background())
	require.NoError(t, err)
	require.Empty(t, access)
	require.Empty(t, refresh)
}

func TestSQLiteTokenStore_SetThenGet(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteTokenStore(setupDB(t))

	require.NoError(t, s.SetTokens(ctx, "acc-1", "ref-1"))

	access, refresh, err := s.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "acc-1", access)
	require.Equal(t, "ref-1", refresh)

	// A second write replaces the pair.
	require.NoError(t, s.SetTokens(ctx, "acc-2", "ref-2"))
	access, refresh, err = s.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "acc-2", access)
	require.Equal(t, "ref-2", refresh)
}

func TestSQLiteTokenStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteTokenStore(setupDB(t))

	require.NoError(t, s.SetTokens(ctx, "acc", "ref"))
	require.NoError(t, s.Clear(ctx))

	access, refresh, err := s.Tokens(ctx)
	require.NoError(t, err)
	require.Empty(t, access)
	require.Empty(t, refresh)

	// Clearing an already empty store succeeds.
	require.NoError(t, s.Clear(ctx))
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, "file:tokenstore_migrated?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLiteTokenStore(db)
	require.NoError(t, s.SetTokens(ctx, "a", "r"))
	access, _, err := s.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", access)
}
