package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	o := Options{User: "app", Pass: "s3cret", Host: "db", Port: "3306", Name: "dashboard"}
	assert.Equal(t,
		"app:s3cret@tcp(db:3306)/dashboard?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(o))

	o.Pass = ""
	assert.Equal(t,
		"app@tcp(db:3306)/dashboard?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn(o), "empty password drops the colon from the DSN")
}

func TestOptionsWithDefaults(t *testing.T) {
	d := Options{}.withDefaults()
	assert.Equal(t, 25, d.MaxOpenConns)
	assert.Equal(t, 25, d.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, d.ConnMaxLifetime)

	tuned := Options{MaxOpenConns: 10, ConnMaxLifetime: time.Hour}.withDefaults()
	assert.Equal(t, 10, tuned.MaxOpenConns)
	assert.Equal(t, 10, tuned.MaxIdleConns, "idle ceiling follows the open ceiling when unset")
	assert.Equal(t, time.Hour, tuned.ConnMaxLifetime)
}
