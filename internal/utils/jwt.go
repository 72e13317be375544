package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for refresh token storage
	"encoding/hex"  // hex encoding for digests
	"errors"        // sentinel errors for verification outcomes
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Verification failures are collapsed into two sentinels so callers can
// tell the client whether to refresh (expired) or to sign in again
// (anything else: bad signature, wrong secret, tampered payload, garbage).
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and carried in the Authorization header
// when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is the long-lived credential used to obtain new access
// tokens.  It is itself a JWT signed with a separate secret; the database
// only ever stores a SHA-256 hash of the serialized string so that a stolen
// sessions table cannot be replayed.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// Claims are the verified contents of an access token.  The access token is
// self-contained: middleware trusts these values without a session lookup
// and only hits the database to confirm the user still exists and is active.
type Claims struct {
	UserID   uint64    // subject (users.id)
	Email    string    // email claim
	Role     string    // role claim
	IssuedAt time.Time // iat, compared against password_changed_at
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT carries
// the subject (sub), email, role, expiration (exp) and issued at (iat)
// claims.  Email and role ride along so ordinary requests never need a user
// lookup just to render a response envelope.
func NewAccessToken(secret string, userID uint64, email, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken signs a minimal HS256 JWT for the refresh flow.  Only the
// subject and the standard timestamps are included; the refresh secret must
// be distinct from the access secret.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates an access token, returning its
// claims.  Expired tokens yield ErrTokenExpired; every other failure yields
// ErrTokenInvalid.
func VerifyAccessToken(secret, raw string) (Claims, error) {
	return verify(secret, raw)
}

// VerifyRefreshToken parses and validates a refresh token.  The same two
// sentinels apply; the caller must additionally check the server-side
// session record for revocation.
func VerifyRefreshToken(secret, raw string) (Claims, error) {
	return verify(secret, raw)
}

func verify(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is ever issued; reject anything else before the
		// signature check so an alg-substitution token cannot pass.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	var c Claims
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	default:
		return Claims{}, ErrTokenInvalid
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["role"].(string); ok {
		c.Role = v
	}
	if v, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	return c, nil
}

// HashToken returns the SHA-256 hash of a serialized token as a hex string.
// Sessions store this hash instead of the raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
