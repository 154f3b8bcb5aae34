package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/dbx"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// SQLiteStore keeps the session pair in a key/value table in the local
// sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists both keys in a single transaction, overwriting any prior
// session. The pair becomes durable before Save returns.
func (s *SQLiteStore) Save(ctx context.Context, token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyToken, []byte(token)); err != nil {
			return err
		}
		return set(ctx, tx, keyUser, data)
	})
}

// Load returns the stored pair. A missing key, an empty token, or a user
// blob that fails to decode all count as "no session".
func (s *SQLiteStore) Load(ctx context.Context) (string, *models.User, error) {
	token, err := get(ctx, s.db, keyToken)
	if err != nil {
		return "", nil, err
	}
	data, err := get(ctx, s.db, keyUser)
	if err != nil {
		return "", nil, err
	}
	if len(token) == 0 || data == nil {
		return "", nil, nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		// corrupted record, treat as absent
		return "", nil, nil
	}
	return string(token), &user, nil
}

// Clear removes the pair. Deleting keys that do not exist is a no-op.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key IN (?, ?)`, keyToken, keyUser)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Token satisfies the transport adapter's token source: it reports the
// stored bearer token, if any. Read errors count as "no token" so an
// unauthenticated request can still proceed.
func (s *SQLiteStore) Token(ctx context.Context) (string, bool) {
	token, err := get(ctx, s.db, keyToken)
	if err != nil || len(token) == 0 {
		return "", false
	}
	return string(token), true
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}
