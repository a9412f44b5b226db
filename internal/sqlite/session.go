package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/taskdesk/internal/session"
)

// ErrStoreBusy is returned when another process holds the session database.
var ErrStoreBusy = errors.New("session store is busy")

// SessionStore implements session.Store on top of the session_kv table.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Establish replaces every session entry in one transaction
func (s *SessionStore) Establish(ctx context.Context, sess session.Session) error {
	entries, err := sess.Entries()
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteEntries(ctx, tx); err != nil {
			return err
		}
		now := time.Now()
		for _, key := range session.Keys {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)`,
				key, entries[key], now,
			)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
		return nil
	})
}

// Clear removes every session entry
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteEntries(ctx, tx)
	})
}

// Current reads the session entries from disk
func (s *SessionStore) Current(ctx context.Context) (*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_kv`)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string, len(session.Keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session entry: %w", err)
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session entries: %w", err)
	}

	return session.FromEntries(entries)
}

func (s *SessionStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return ErrStoreBusy
		}
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if isBusy(err) {
			return ErrStoreBusy
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return ErrStoreBusy
		}
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

func deleteEntries(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM session_kv`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
