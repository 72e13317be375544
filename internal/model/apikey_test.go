package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasPermissions(t *testing.T) {
	cases := []struct {
		name     string
		granted  []string
		required []string
		want     bool
	}{
		{"exact match", []string{PermissionRead}, []string{PermissionRead}, true},
		{"superset", []string{PermissionRead, PermissionWrite}, []string{PermissionRead}, true},
		{"missing scope", []string{PermissionRead}, []string{PermissionWrite}, false},
		{"partial overlap", []string{PermissionRead}, []string{PermissionRead, PermissionDelete}, false},
		{"admin is blanket", []string{PermissionAdmin}, []string{PermissionRead, PermissionWrite, PermissionDelete}, true},
		{"admin among others", []string{PermissionRead, PermissionAdmin}, []string{PermissionDelete}, true},
		{"nothing granted", nil, []string{PermissionRead}, false},
		{"nothing required", []string{PermissionRead}, nil, true},
		{"nothing at all", nil, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermissions(tc.granted, tc.required...))
		})
	}
}

func TestAPIKeyExpired(t *testing.T) {
	now := time.Now().UTC()

	var k APIKey
	assert.False(t, k.Expired(now), "nil expiry never expires")

	past := now.Add(-time.Hour)
	k.ExpiresAt = &past
	assert.True(t, k.Expired(now))

	future := now.Add(time.Hour)
	k.ExpiresAt = &future
	assert.False(t, k.Expired(now))
}

func TestAPIKeyAllowsIP(t *testing.T) {
	var k APIKey
	assert.True(t, k.AllowsIP("203.0.113.9"), "empty allowlist admits everyone")

	k.IPAllowlist = []string{"10.0.0.1", "10.0.0.2"}
	assert.True(t, k.AllowsIP("10.0.0.2"))
	assert.False(t, k.AllowsIP("10.0.0.3"))
}
