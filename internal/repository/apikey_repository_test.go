package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin-dashboard/api/internal/model"
)

func newAPIKeyMock(t *testing.T) (*APIKeyRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAPIKeyRepo(db), mock
}

func TestAPIKeyCreateJoinsLists(t *testing.T) {
	repo, mock := newAPIKeyMock(t)

	mock.ExpectExec("INSERT INTO api_keys (user_id, name, prefix, hashed_key, permissions, is_active, expires_at, ip_allowlist) VALUES (?,?,?,?,?,?,?,?)").
		WithArgs(uint64(4), "ci key", "ak_live", "hash", "read,write", true, nil, "10.0.0.1,10.0.0.2").
		WillReturnResult(sqlmock.NewResult(8, 1))

	k := model.APIKey{
		UserID:      4,
		Name:        "ci key",
		Prefix:      "ak_live",
		HashedKey:   "hash",
		Permissions: []string{model.PermissionRead, model.PermissionWrite},
		IsActive:    true,
		IPAllowlist: []string{"10.0.0.1", "10.0.0.2"},
	}
	require.NoError(t, repo.Create(context.Background(), &k))
	assert.Equal(t, uint64(8), k.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyGetActiveByHashSplitsLists(t *testing.T) {
	repo, mock := newAPIKeyMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "prefix", "hashed_key", "permissions",
		"is_active", "expires_at", "ip_allowlist", "last_used_at",
		"usage_count", "created_at", "updated_at",
	}).AddRow(8, 4, "ci key", "ak_live", "hash", "read,write", true, nil, "10.0.0.1", nil, 12, time.Now().UTC(), time.Now().UTC())

	mock.ExpectQuery("SELECT " + apiKeyColumns + " FROM api_keys WHERE prefix=? AND hashed_key=? AND is_active=1 LIMIT 1").
		WithArgs("ak_live", "hash").
		WillReturnRows(rows)

	k, err := repo.GetActiveByHash(context.Background(), "ak_live", "hash")
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, k.Permissions)
	assert.Equal(t, []string{"10.0.0.1"}, k.IPAllowlist)
	assert.Nil(t, k.ExpiresAt)
	assert.Equal(t, uint64(12), k.UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIKeyGetActiveByHashMiss(t *testing.T) {
	repo, mock := newAPIKeyMock(t)

	mock.ExpectQuery("SELECT " + apiKeyColumns + " FROM api_keys WHERE prefix=? AND hashed_key=? AND is_active=1 LIMIT 1").
		WithArgs("ak_live", "wrong").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetActiveByHash(context.Background(), "ak_live", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"read"}, splitList("read"))
	assert.Equal(t, []string{"read", "write"}, splitList("read, write"))
	assert.Equal(t, []string{"read", "write"}, splitList("read,,write,"))
}
