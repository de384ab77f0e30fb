package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/quizgen/quizgen/internal/model"
)

// AuthSessionTTL is how long a login stays valid.
const AuthSessionTTL = 7 * 24 * time.Hour

const sessionTokenBytes = 32

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateAuthSession starts a session for userID and returns its token.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	sess := model.AuthSession{ID: token, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(AuthSessionTTL)}
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt,
	); err != nil {
		return "", fmt.Errorf("create auth session: %w", err)
	}
	return token, nil
}

// GetAuthSession returns the live session for token. Unknown and expired
// tokens yield nil; an expired row is removed when it is found.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.After(time.Now()) {
		return nil, s.DeleteAuthSession(token)
	}
	return &sess, nil
}

// DeleteAuthSession ends a single session.
func (s *Store) DeleteAuthSession(token string) error {
	return s.deleteSessions(`id = ?`, token)
}

// DeleteUserSessions ends every session of a user.
func (s *Store) DeleteUserSessions(userID int64) error {
	return s.deleteSessions(`user_id = ?`, userID)
}

func (s *Store) deleteSessions(where string, arg any) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE `+where, arg)
	return err
}

// CleanupExpiredSessions removes expired sessions and reports how many were
// deleted.
func (s *Store) CleanupExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
