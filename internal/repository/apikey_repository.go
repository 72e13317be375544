package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/admin-dashboard/api/internal/model"
)

const apiKeyColumns = "id,user_id,name,prefix,hashed_key,permissions,is_active,expires_at,ip_allowlist,last_used_at,usage_count,created_at,updated_at"

// APIKeyRepo encapsulates all database queries against the api_keys table.
// Permissions and the IP allowlist are stored as comma-separated strings;
// the split/join stays inside this package.
type APIKeyRepo struct{ DB *sql.DB }

func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo { return &APIKeyRepo{DB: db} }

// APIKeyFilter narrows List and Count.
type APIKeyFilter struct {
	UserID   uint64 // 0 means all users (admin listing)
	IsActive *bool
	Page     int
	Limit    int
}

// Create inserts a key record. The raw key is not part of the model; only
// prefix and hash arrive here.
func (r *APIKeyRepo) Create(ctx context.Context, k *model.APIKey) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO api_keys (user_id, name, prefix, hashed_key, permissions, is_active, expires_at, ip_allowlist) VALUES (?,?,?,?,?,?,?,?)",
		k.UserID, k.Name, k.Prefix, k.HashedKey, joinList(k.Permissions), k.IsActive, k.ExpiresAt, joinList(k.IPAllowlist))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	k.ID = uint64(id)
	return nil
}

// GetActiveByHash looks up an active key by (prefix, hash). Expiry and the
// IP allowlist are checked by the caller against the model.
func (r *APIKeyRepo) GetActiveByHash(ctx context.Context, prefix, hashedKey string) (model.APIKey, error) {
	return r.getOne(ctx,
		"SELECT "+apiKeyColumns+" FROM api_keys WHERE prefix=? AND hashed_key=? AND is_active=1 LIMIT 1",
		prefix, hashedKey)
}

// GetByID fetches one key row regardless of state.
func (r *APIKeyRepo) GetByID(ctx context.Context, id uint64) (model.APIKey, error) {
	return r.getOne(ctx, "SELECT "+apiKeyColumns+" FROM api_keys WHERE id=? LIMIT 1", id)
}

func (r *APIKeyRepo) getOne(ctx context.Context, q string, args ...any) (model.APIKey, error) {
	var (
		k         model.APIKey
		perms     string
		allowlist sql.NullString
		expiresAt sql.NullTime
		lastUsed  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&k.ID, &k.UserID, &k.Name, &k.Prefix, &k.HashedKey, &perms,
		&k.IsActive, &expiresAt, &allowlist, &lastUsed, &k.UsageCount,
		&k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.APIKey{}, ErrNotFound
		}
		return model.APIKey{}, err
	}
	k.Permissions = splitList(perms)
	if allowlist.Valid {
		k.IPAllowlist = splitList(allowlist.String)
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	if lastUsed.Valid {
		k.LastUsedAt = &lastUsed.Time
	}
	return k, nil
}

// List returns a page of keys matching the filter, newest first.
func (r *APIKeyRepo) List(ctx context.Context, f APIKeyFilter) ([]model.APIKey, error) {
	where, args := apiKeyWhere(f)
	q := "SELECT " + apiKeyColumns + " FROM api_keys" + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, pageOffset(f.Page, f.Limit))
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.APIKey
	for rows.Next() {
		var (
			k         model.APIKey
			perms     string
			allowlist sql.NullString
			expiresAt sql.NullTime
			lastUsed  sql.NullTime
		)
		if err := rows.Scan(
			&k.ID, &k.UserID, &k.Name, &k.Prefix, &k.HashedKey, &perms,
			&k.IsActive, &expiresAt, &allowlist, &lastUsed, &k.UsageCount,
			&k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		k.Permissions = splitList(perms)
		if allowlist.Valid {
			k.IPAllowlist = splitList(allowlist.String)
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Time
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Count returns the number of keys matching the filter.
func (r *APIKeyRepo) Count(ctx context.Context, f APIKeyFilter) (uint64, error) {
	where, args := apiKeyWhere(f)
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys"+where, args...).Scan(&n)
	return n, err
}

func apiKeyWhere(f APIKeyFilter) (string, []any) {
	var conds []string
	var args []any
	if f.UserID != 0 {
		conds = append(conds, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.IsActive != nil {
		conds = append(conds, "is_active=?")
		args = append(args, *f.IsActive)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update applies owner/admin edits: name, permissions, active flag, expiry
// and allowlist.
func (r *APIKeyRepo) Update(ctx context.Context, k *model.APIKey) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE api_keys SET name=?, permissions=?, is_active=?, expires_at=?, ip_allowlist=? WHERE id=?",
		k.Name, joinList(k.Permissions), k.IsActive, k.ExpiresAt, joinList(k.IPAllowlist), k.ID)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// SetActive flips the soft revocation flag.
func (r *APIKeyRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE api_keys SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Delete removes a key row permanently.
func (r *APIKeyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM api_keys WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Touch bumps the usage counter and last-used timestamp after a successful
// authentication. A single UPDATE; failures are the caller's to ignore.
func (r *APIKeyRepo) Touch(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE api_keys SET usage_count=usage_count+1, last_used_at=NOW() WHERE id=?", id)
	return err
}

func joinList(items []string) string { return strings.Join(items, ",") }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
