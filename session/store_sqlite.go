package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteStoreSchema = `
CREATE TABLE IF NOT EXISTS deployment_sessions (
	application TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore persists sessions in SQLite. Intended for server mode where
// concurrent access and durability matter more than a readable file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed session store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("session: sqlite store dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: sqlite store set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// List returns all sessions in deterministic (application-sorted) order.
func (s *SQLiteStore) List(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("session: sqlite store is nil")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT payload
FROM deployment_sessions
ORDER BY application ASC`)
	if err != nil {
		return nil, fmt.Errorf("session: sqlite list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("session: sqlite scan session: %w", err)
		}
		var sess Session
		if err := json.Unmarshal(payload, &sess); err != nil {
			return nil, fmt.Errorf("session: sqlite decode session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: sqlite iterate sessions: %w", err)
	}
	return sessions, nil
}

// Get returns a session by application name.
func (s *SQLiteStore) Get(ctx context.Context, application string) (Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}
	if s == nil || s.db == nil {
		return Session{}, false, errors.New("session: sqlite store is nil")
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, `
SELECT payload
FROM deployment_sessions
WHERE application = ?`, application).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session: sqlite get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, false, fmt.Errorf("session: sqlite decode session: %w", err)
	}
	return sess, true, nil
}

// Upsert inserts or updates a session by application name.
func (s *SQLiteStore) Upsert(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("session: sqlite store is nil")
	}
	if strings.TrimSpace(sess.Application) == "" {
		return errors.New("session: application name is required")
	}

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: sqlite encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO deployment_sessions (application, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(application) DO UPDATE SET
	payload = excluded.payload,
	updated_at = excluded.updated_at`,
		sess.Application, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("session: sqlite upsert session: %w", err)
	}
	return nil
}

// Delete removes a session by application name. Deleting a missing entry
// is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, application string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("session: sqlite store is nil")
	}

	if _, err := s.db.ExecContext(ctx, `
DELETE FROM deployment_sessions
WHERE application = ?`, application); err != nil {
		return fmt.Errorf("session: sqlite delete session: %w", err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
