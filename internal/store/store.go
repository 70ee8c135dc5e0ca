// Package store persists signing sessions in SQLite. The uploaded
// document travels inside the row as base64, so a session record is
// fully self-contained.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pensign/pensign/internal/signing"
)

// Open opens (or creates) the SQLite database at path and applies the
// schema. Safe to call on every startup.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// createSchema creates all tables. Uses IF NOT EXISTS so repeated
// startups are harmless.
func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS signing_session (
    token TEXT PRIMARY KEY,
    original_filename TEXT NOT NULL,
    document_b64 TEXT NOT NULL,
    signed_b64 TEXT NOT NULL DEFAULT '',
    fields_json TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'signed')),
    signer_email TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    signed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_signing_session_status ON signing_session(status);
`

// SessionStore is the SQLite-backed implementation of signing.Store.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore wraps an open database handle.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession inserts a new pending session.
func (s *SessionStore) CreateSession(ctx context.Context, sess *signing.Session) error {
	fieldsJSON, err := json.Marshal(sess.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO signing_session (token, original_filename, document_b64, fields_json, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.Token, sess.OriginalFilename, sess.DocumentB64, string(fieldsJSON), sess.Status, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession loads a session by token.
func (s *SessionStore) GetSession(ctx context.Context, token string) (*signing.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, original_filename, document_b64, signed_b64, fields_json, status, signer_email, created_at, signed_at
		FROM signing_session
		WHERE token = ?
	`, token)

	var (
		sess       signing.Session
		fieldsJSON string
		signedAt   sql.NullTime
	)
	err := row.Scan(&sess.Token, &sess.OriginalFilename, &sess.DocumentB64, &sess.SignedB64,
		&fieldsJSON, &sess.Status, &sess.SignerEmail, &sess.CreatedAt, &signedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, signing.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &sess.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	if signedAt.Valid {
		t := signedAt.Time
		sess.SignedAt = &t
	}
	return &sess, nil
}

// MarkSigned flips a pending session to signed and attaches the signed
// document, as one conditional update. Two concurrent submissions for
// the same token cannot both succeed: the status predicate makes the
// transition atomic, and the loser gets ErrAlreadySigned.
func (s *SessionStore) MarkSigned(ctx context.Context, token, signedB64, signerEmail string, signedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE signing_session
		SET status = ?, signed_b64 = ?, signer_email = ?, signed_at = ?
		WHERE token = ? AND status = ?
	`, signing.StatusSigned, signedB64, signerEmail, signedAt, token, signing.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: the token is either unknown or already signed.
	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM signing_session WHERE token = ?`, token).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return signing.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check session status: %w", err)
	}
	return signing.ErrAlreadySigned
}
