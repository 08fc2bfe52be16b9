package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpsertUser returns the user with email, creating it on first sign-in.
func (s *Store) UpsertUser(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT(email) DO NOTHING`,
		uuid.NewString(), email, formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE email = ?`, email))
}

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (s *Store) CreateLoginCode(ctx context.Context, userID string, expiresAt time.Time) (*LoginCode, error) {
	lc := &LoginCode{Code: uuid.NewString(), UserID: userID, ExpiresAt: expiresAt}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_codes (code, user_id, expires_at) VALUES (?, ?, ?)`,
		lc.Code, lc.UserID, formatTime(expiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create login code: %w", err)
	}
	return lc, nil
}

// ConsumeLoginCode marks an unused, unexpired code as used and returns its user id.
// Any other code yields ErrNotFound.
func (s *Store) ConsumeLoginCode(ctx context.Context, code string, now time.Time) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`UPDATE login_codes SET used_at = ?
		 WHERE code = ? AND used_at IS NULL AND expires_at > ?
		 RETURNING user_id`,
		formatTime(now), code, formatTime(now),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("consume login code: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("consume login code: %w", err)
	}
	return userID, nil
}

func (s *Store) CreateAuthSession(ctx context.Context, userID string) (*AuthSession, error) {
	as := &AuthSession{Token: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		as.Token, as.UserID, formatTime(as.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create auth session: %w", err)
	}
	return as, nil
}

// GetAuthSession returns a live (unrevoked) session.
func (s *Store) GetAuthSession(ctx context.Context, token string) (*AuthSession, error) {
	as := &AuthSession{}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at FROM auth_sessions WHERE token = ? AND revoked_at IS NULL`, token,
	).Scan(&as.Token, &as.UserID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get auth session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get auth session: %w", err)
	}
	as.CreatedAt = parseTime(createdAt)
	return as, nil
}

func (s *Store) RevokeAuthSession(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auth_sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		formatTime(time.Now()), token,
	)
	if err != nil {
		return fmt.Errorf("revoke auth session: %w", err)
	}
	return expectRow(res, "revoke auth session")
}
