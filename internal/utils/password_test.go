package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.True(t, VerifyPassword(hash, "Sup3r$ecret"))
	assert.False(t, VerifyPassword(hash, "sup3r$ecret"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Sup3r$ecret"))

	// Salted: hashing the same plaintext twice never repeats.
	again, err := HashPassword("Sup3r$ecret", 10)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
	assert.True(t, VerifyPassword(again, "Sup3r$ecret"))
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name       string
		password   string
		violations int
	}{
		{"acceptable", "Passw0rd!", 0},
		{"too short", "P0w!", 1},
		{"no uppercase", "passw0rd!", 1},
		{"no lowercase", "PASSW0RD!", 1},
		{"no digit", "Password!", 1},
		{"no special", "Passw0rdX", 1},
		{"unlisted special does not count", "Passw0rd~", 1},
		{"empty fails everything", "", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidatePasswordStrength(tc.password)
			assert.Len(t, errs, tc.violations)
		})
	}
}

func TestNewResetToken(t *testing.T) {
	tok, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, tok.Raw, 64) // 32 random bytes, hex encoded
	assert.Len(t, tok.Hash, 64)
	assert.Equal(t, HashResetToken(tok.Raw), tok.Hash)
	assert.NotEqual(t, tok.Raw, tok.Hash)

	other, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok.Raw, other.Raw)
}
