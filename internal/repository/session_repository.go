package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/admin-dashboard/api/internal/model"
)

// SessionRepo persists/validates refresh token sessions (hash column only;
// the raw refresh token never touches the database).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Store inserts a session row for a freshly issued refresh token.
func (r *SessionRepo) Store(ctx context.Context, s *model.Session) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, ip_address, user_agent, expires_at) VALUES (?,?,?,?,?)",
		s.UserID, s.TokenHash, s.IPAddress, s.UserAgent, s.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Validate returns the owning user ID if a non-revoked, non-expired session
// exists for the token hash.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if revokedAt.Valid {
		return 0, ErrNotFound
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// RevokeByHash marks a single session as revoked.
func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a user's active sessions.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// GetByID fetches one session row.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, revoked_at, created_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	return s, nil
}

// ListByUser returns a user's sessions, newest first, for the session
// management page.
func (r *SessionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, revoked_at, created_at FROM sessions WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var (
			s         model.Session
			revokedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.ExpiresAt, &revokedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		if revokedAt.Valid {
			s.RevokedAt = &revokedAt.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountActive counts sessions that are neither revoked nor expired.  Feeds
// the dashboard stats card.
func (r *SessionRepo) CountActive(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE revoked_at IS NULL AND expires_at > NOW()").Scan(&n)
	return n, err
}
