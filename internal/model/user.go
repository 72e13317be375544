package model

import "time"

// Roles recognized by the dashboard.  The role column is a plain string;
// these constants are the only values ever written.  Admins manage users,
// revenue and every API key; consultants see their own profile, billing and
// keys.
const (
	RoleAdmin      = "admin"
	RoleConsultant = "consultant"
)

// User represents an account record as stored in the `users` table.  The
// PasswordHash, ResetTokenHash and ResetTokenExpires fields never leave the
// server; handlers build separate response types.
//
// Fields:
//
//	ID                – primary key identifier of the user.
//	Name              – display name.
//	Email             – unique email address, stored lowercase.
//	PasswordHash      – bcrypt hashed password.
//	Role              – account role (admin or consultant).
//	Bio, Phone,
//	Location, Company – free-form profile fields edited on the profile page.
//	IsActive          – whether the account may authenticate.
//	LastLogin         – timestamp of the most recent successful login.
//	PasswordChangedAt – set on every password change; access tokens issued
//	                    before this instant are rejected.
//	ResetTokenHash    – SHA-256 of the outstanding password reset token.
//	ResetTokenExpires – when the reset token stops being redeemable.
type User struct {
	ID                uint64
	Name              string
	Email             string
	PasswordHash      string
	Role              string
	Bio               string
	Phone             string
	Location          string
	Company           string
	IsActive          bool
	LastLogin         *time.Time
	PasswordChangedAt *time.Time
	ResetTokenHash    string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidRole reports whether s is one of the recognized roles.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleConsultant
}

// ChangedPasswordAfter reports whether the user's password was changed
// after the given token issue time.  Tokens minted before the change are
// stale and must not authenticate.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil || iat.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(iat)
}
