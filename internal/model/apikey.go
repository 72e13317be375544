package model

import "time"

// Permission scopes an API key may carry.  PermissionAdmin is a blanket
// grant that satisfies any requirement.
const (
	PermissionRead   = "read"
	PermissionWrite  = "write"
	PermissionDelete = "delete"
	PermissionAdmin  = "admin"
)

// APIKey models a row in the `api_keys` table.  The raw key is returned to
// the caller exactly once at creation; only the prefix and the SHA-256 hash
// are persisted.
//
// Fields:
//
//	ID          – primary key identifier.
//	UserID      – owning user.
//	Name        – caller-supplied label shown in the dashboard.
//	Prefix      – public ak_<env> segment used for fast lookup.
//	HashedKey   – SHA-256 hex digest of the full raw key.
//	Permissions – granted scopes (read/write/delete/admin).
//	IsActive    – false once the key has been revoked.
//	ExpiresAt   – optional hard expiry (nil means no expiry).
//	IPAllowlist – optional client addresses the key may be used from.
//	LastUsedAt  – timestamp of the most recent authenticated request.
//	UsageCount  – total number of authenticated requests.
type APIKey struct {
	ID          uint64
	UserID      uint64
	Name        string
	Prefix      string
	HashedKey   string
	Permissions []string
	IsActive    bool
	ExpiresAt   *time.Time
	IPAllowlist []string
	LastUsedAt  *time.Time
	UsageCount  uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the key has a hard expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// AllowsIP reports whether the key may be used from the given client
// address.  An empty allowlist admits every address.
func (k *APIKey) AllowsIP(ip string) bool {
	if len(k.IPAllowlist) == 0 {
		return true
	}
	for _, allowed := range k.IPAllowlist {
		if allowed == ip {
			return true
		}
	}
	return false
}

// HasPermissions is the single authorization check for API key scopes:
// the granted set satisfies a requirement when it is a superset of the
// required scopes, or when it carries the blanket admin permission.  Every
// permission decision in the codebase routes through this function.
func HasPermissions(granted []string, required ...string) bool {
	set := make(map[string]bool, len(granted))
	for _, g := range granted {
		if g == PermissionAdmin {
			return true
		}
		set[g] = true
	}
	for _, r := range required {
		if !set[r] {
			return false
		}
	}
	return true
}
