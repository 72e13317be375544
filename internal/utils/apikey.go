package utils

// apikey.go implements generation and parsing of machine API keys.  A raw
// key looks like ak_live_<48 hex chars>; the database keeps only the public
// prefix (ak_live / ak_test) and the SHA-256 hash of the full key, so the
// raw key is shown exactly once at creation and is never recoverable.

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"
)

// APIKeyHeader is the dedicated request header checked first when
// extracting a key.
const APIKeyHeader = "x-api-key"

// apiKeyPattern matches a full raw key: environment tag plus 24 random
// bytes hex-encoded (48 chars).
var apiKeyPattern = regexp.MustCompile(`^ak_(live|test)_[0-9a-f]{48}$`)

// GeneratedKey bundles the three parts produced for a new API key.  Raw is
// returned to the caller once; Prefix and HashedKey are what gets stored.
type GeneratedKey struct {
	Raw       string
	Prefix    string
	HashedKey string
}

// GenerateAPIKey creates a new key for the given environment ("live" or
// "test").  Anything else defaults to live, matching how keys are minted
// from the dashboard.
func GenerateAPIKey(environment string) (GeneratedKey, error) {
	if environment != "live" && environment != "test" {
		environment = "live"
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return GeneratedKey{}, err
	}
	prefix := "ak_" + environment
	raw := prefix + "_" + hex.EncodeToString(buf)
	return GeneratedKey{Raw: raw, Prefix: prefix, HashedKey: HashAPIKey(raw)}, nil
}

// HashAPIKey returns the SHA-256 hash of a raw key as hex.  The same digest
// is computed at creation and at lookup.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidAPIKeyFormat reports whether a raw key is well-formed.  Malformed
// keys are rejected before any database work.
func ValidAPIKeyFormat(raw string) bool {
	return apiKeyPattern.MatchString(raw)
}

// KeyPrefix returns the public ak_<env> prefix of a raw key, or "" when the
// key has no recognizable prefix.
func KeyPrefix(raw string) string {
	parts := strings.SplitN(raw, "_", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[0] + "_" + parts[1]
}

// ExtractAPIKey pulls a raw API key from the request, checking the
// dedicated header, then a bearer-shaped Authorization header whose value
// starts with the key prefix, then the api_key query parameter, in that
// priority order.  It returns "" when no key is present.
func ExtractAPIKey(r *http.Request) string {
	if v := r.Header.Get(APIKeyHeader); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tok := strings.TrimPrefix(auth, "Bearer ")
		if strings.HasPrefix(tok, "ak_") {
			return tok
		}
	}
	if v := r.URL.Query().Get("api_key"); v != "" {
		return v
	}
	return ""
}

// MaskAPIKey renders a key for display: the first 12 characters, a run of
// stars, and the last 4.  Strings too short to mask collapse to "****".
func MaskAPIKey(raw string) string {
	if len(raw) < 20 {
		return "****"
	}
	return raw[:12] + strings.Repeat("*", 32) + raw[len(raw)-4:]
}
