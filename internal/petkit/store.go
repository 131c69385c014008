package petkit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StoredSession is a persisted vendor session for one account.
type StoredSession struct {
	Username  string
	UID       string
	Token     string
	UpdatedAt time.Time
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	// Load returns the persisted session for a username, or
	// ErrSessionNotFound when none exists.
	Load(ctx context.Context, username string) (*StoredSession, error)

	// Save upserts a session. When the token is unchanged the previous
	// updated_at is kept, so the timestamp reflects token age.
	Save(ctx context.Context, session *StoredSession) error
}

// SQLiteSessionStore implements SessionStore using SQLite.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Load retrieves the persisted session for a username.
func (s *SQLiteSessionStore) Load(ctx context.Context, username string) (*StoredSession, error) {
	var (
		session   = StoredSession{Username: username}
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, token, updated_at FROM petkit_sessions WHERE username = ?`, username,
	).Scan(&session.UID, &session.Token, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}

	session.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &session, nil
}

// Save upserts a session, preserving updated_at when the token matches
// the stored row.
func (s *SQLiteSessionStore) Save(ctx context.Context, session *StoredSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO petkit_sessions (username, uid, token, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(username) DO UPDATE SET
		     uid = excluded.uid,
		     token = excluded.token,
		     updated_at = CASE
		         WHEN petkit_sessions.token = excluded.token THEN petkit_sessions.updated_at
		         ELSE excluded.updated_at
		     END`,
		session.Username, session.UID, session.Token,
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
