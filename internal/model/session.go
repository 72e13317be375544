package model

import "time"

// Session models an entry in the `sessions` table.  One row exists per
// issued refresh token; the plain token is not stored, only its SHA-256
// hash.  Revocation is a soft flag so the session list can still show when
// a device was signed out.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the session.
//	TokenHash – SHA-256 hex digest of the refresh token.
//	IPAddress – client address captured at login.
//	UserAgent – client user agent captured at login.
//	ExpiresAt – expiration timestamp of the refresh token.
//	RevokedAt – when the session was revoked (nil if still active).
//	CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
