package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/admin-dashboard/api/internal/model"
)

const userColumns = "id,name,email,password_hash,role,bio,phone,location,company,is_active,last_login,password_changed_at,reset_token_hash,reset_token_expires,created_at,updated_at"

// UserRepo encapsulates all database queries against the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserFilter narrows List and Count. Zero values mean "no filter".
type UserFilter struct {
	Search   string // matches name or email, case-insensitive
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// Create inserts a user with an already-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, is_active) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByResetToken fetches a user by the hash of an outstanding reset token,
// requiring the token to still be valid at the given instant.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash=? AND reset_token_expires > ? LIMIT 1",
		tokenHash, now)
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
		pwChanged sql.NullTime
		resetHash sql.NullString
		resetExp  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Bio, &u.Phone, &u.Location, &u.Company, &u.IsActive,
		&lastLogin, &pwChanged, &resetHash, &resetExp,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if pwChanged.Valid {
		u.PasswordChangedAt = &pwChanged.Time
	}
	if resetHash.Valid {
		u.ResetTokenHash = resetHash.String
	}
	if resetExp.Valid {
		u.ResetTokenExpires = &resetExp.Time
	}
	return u, nil
}

// List returns a page of users matching the filter, newest first.
func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]model.User, error) {
	where, args := userWhere(f)
	q := "SELECT " + userColumns + " FROM users" + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, pageOffset(f.Page, f.Limit))
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var (
			u         model.User
			lastLogin sql.NullTime
			pwChanged sql.NullTime
			resetHash sql.NullString
			resetExp  sql.NullTime
		)
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.Bio, &u.Phone, &u.Location, &u.Company, &u.IsActive,
			&lastLogin, &pwChanged, &resetHash, &resetExp,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		if pwChanged.Valid {
			u.PasswordChangedAt = &pwChanged.Time
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of users matching the filter.
func (r *UserRepo) Count(ctx context.Context, f UserFilter) (uint64, error) {
	where, args := userWhere(f)
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&n)
	return n, err
}

func userWhere(f UserFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		like := "%" + f.Search + "%"
		conds = append(conds, "(name LIKE ? OR email LIKE ?)")
		args = append(args, like, like)
	}
	if f.Role != "" {
		conds = append(conds, "role=?")
		args = append(args, f.Role)
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

// Update applies admin edits: name, email, role and active flag.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, role=?, is_active=? WHERE id=?",
		u.Name, u.Email, u.Role, u.IsActive, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return noneAffected(res)
}

// UpdateProfile applies owner edits to the free-form profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, bio=?, phone=?, location=?, company=? WHERE id=?",
		u.Name, u.Bio, u.Phone, u.Location, u.Company, u.ID)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Delete removes a user row permanently. Callers must forbid self-delete.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// SetLastLogin stamps the most recent successful login.
func (r *UserRepo) SetLastLogin(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login=? WHERE id=?", at, id)
	return err
}

// SetPassword stores a new password hash, bumps password_changed_at so
// outstanding access tokens die, and clears any pending reset token.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, password_changed_at=?, reset_token_hash=NULL, reset_token_expires=NULL WHERE id=?",
		hash, at, id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// SetResetToken stores the hash of a freshly issued password reset token.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token_hash=?, reset_token_expires=? WHERE id=?",
		tokenHash, expires, id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// CountCreatedBetween returns how many users registered in [from, to).
// Used by the dashboard growth calculation.
func (r *UserRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE created_at >= ? AND created_at < ?",
		from, to).Scan(&n)
	return n, err
}

// CountByRole returns user counts grouped by role.
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]uint64, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]uint64{}
	for rows.Next() {
		var role string
		var n uint64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

// Recent returns the newest registrations for the activity feed.
func (r *UserRepo) Recent(ctx context.Context, limit int) ([]model.User, error) {
	return r.List(ctx, UserFilter{Page: 1, Limit: limit})
}

// isDuplicate recognizes the MySQL duplicate-entry error (1062) without
// importing driver-specific error types.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// noneAffected maps a zero-row update/delete to ErrNotFound.
func noneAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver cannot report; assume success
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// pageOffset converts 1-based page/limit to a SQL offset.
func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
