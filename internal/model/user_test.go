package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleConsultant))
	assert.False(t, ValidRole("Admin")) // roles are lowercase
	assert.False(t, ValidRole("manager"))
	assert.False(t, ValidRole(""))
}

func TestUserChangedPasswordAfter(t *testing.T) {
	issued := time.Now().UTC()

	var u User
	assert.False(t, u.ChangedPasswordAfter(issued), "never-changed password invalidates nothing")

	earlier := issued.Add(-time.Minute)
	u.PasswordChangedAt = &earlier
	assert.False(t, u.ChangedPasswordAfter(issued))

	later := issued.Add(time.Minute)
	u.PasswordChangedAt = &later
	assert.True(t, u.ChangedPasswordAfter(issued))

	u.PasswordChangedAt = &later
	assert.False(t, u.ChangedPasswordAfter(time.Time{}), "zero iat cannot be compared")
}
