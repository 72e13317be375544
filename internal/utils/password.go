package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.  A
// malformed hash simply fails the comparison; it never panics.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// passwordSpecials are the characters accepted as "special" by the
// strength check.  The set matches what the dashboard frontend tells
// users to pick from.
const passwordSpecials = "@$!%*?&#"

// ValidatePasswordStrength checks a candidate password against the account
// policy: at least 8 characters with one uppercase letter, one lowercase
// letter, one digit and one special character.  It returns the list of
// violated rules; an empty slice means the password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "password must be at least 8 characters long")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !upper {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if !lower {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if !digit {
		errs = append(errs, "password must contain at least one number")
	}
	if !special {
		errs = append(errs, "password must contain at least one special character (@$!%*?&#)")
	}
	return errs
}

// ResetToken carries the raw password reset token mailed to the user and
// the SHA-256 hash persisted on the user row.  Only the hash is stored so
// a leaked database cannot be used to reset accounts.
type ResetToken struct {
	Raw  string
	Hash string
}

// NewResetToken generates a 32-byte random reset token.  The raw hex string
// goes into the reset link; the hash is what the lookup on redemption
// matches against.
func NewResetToken() (ResetToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return ResetToken{}, err
	}
	raw := hex.EncodeToString(buf)
	return ResetToken{Raw: raw, Hash: HashResetToken(raw)}, nil
}

// HashResetToken returns the SHA-256 hash of a raw reset token as hex.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
