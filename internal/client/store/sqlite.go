package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homehubdev/homehub/internal/dbx"
)

// SQLiteTokenStore keeps the session token pair in a key-value metadata
// table. Reads and writes are synchronous; durability comes from sqlite.
type SQLiteTokenStore struct {
	db *sql.DB
}

func NewSQLiteTokenStore(db *sql.DB) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db}
}

func (s *SQLiteTokenStore) Tokens(ctx context.Context) (string, string, error) {
	access, err := s.get(ctx, s.db, keyAccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.get(ctx, s.db, keyRefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (s *SQLiteTokenStore) SetTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.set(ctx, tx, keyAccessToken, access); err != nil {
			return err
		}
		return s.set(ctx, tx, keyRefreshToken, refresh)
	})
}

func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range []string{keyAccessToken, keyRefreshToken} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
			}
		}
		return nil
	})
}

func (s *SQLiteTokenStore) get(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteTokenStore) set(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
