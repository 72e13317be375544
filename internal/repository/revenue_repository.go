package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/admin-dashboard/api/internal/model"
)

const revenueColumns = "id,amount,source,category,description,date,created_by,created_at,updated_at"

// RevenueRepo encapsulates queries and aggregations against the revenue
// table.
type RevenueRepo struct{ DB *sql.DB }

func NewRevenueRepo(db *sql.DB) *RevenueRepo { return &RevenueRepo{DB: db} }

// RevenueFilter narrows List and Count.
type RevenueFilter struct {
	Source    string
	Category  string // substring match
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Create inserts a revenue record and populates its ID.
func (r *RevenueRepo) Create(ctx context.Context, rec *model.Revenue) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO revenue (amount, source, category, description, date, created_by) VALUES (?,?,?,?,?,?)",
		rec.Amount, rec.Source, rec.Category, rec.Description, rec.Date, rec.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// GetByID fetches one revenue record.
func (r *RevenueRepo) GetByID(ctx context.Context, id uint64) (model.Revenue, error) {
	var rec model.Revenue
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+revenueColumns+" FROM revenue WHERE id=? LIMIT 1", id).Scan(
		&rec.ID, &rec.Amount, &rec.Source, &rec.Category, &rec.Description,
		&rec.Date, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Revenue{}, ErrNotFound
		}
		return model.Revenue{}, err
	}
	return rec, nil
}

// List returns a page of revenue records matching the filter, newest first.
func (r *RevenueRepo) List(ctx context.Context, f RevenueFilter) ([]model.Revenue, error) {
	where, args := revenueWhere(f)
	q := "SELECT " + revenueColumns + " FROM revenue" + where + " ORDER BY date DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, pageOffset(f.Page, f.Limit))
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Revenue
	for rows.Next() {
		var rec model.Revenue
		if err := rows.Scan(
			&rec.ID, &rec.Amount, &rec.Source, &rec.Category, &rec.Description,
			&rec.Date, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records matching the filter.
func (r *RevenueRepo) Count(ctx context.Context, f RevenueFilter) (uint64, error) {
	where, args := revenueWhere(f)
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM revenue"+where, args...).Scan(&n)
	return n, err
}

func revenueWhere(f RevenueFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Source != "" {
		conds = append(conds, "source=?")
		args = append(args, f.Source)
	}
	if f.Category != "" {
		conds = append(conds, "category LIKE ?")
		args = append(args, "%"+f.Category+"%")
	}
	if f.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, *f.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update overwrites the editable fields of a record.
func (r *RevenueRepo) Update(ctx context.Context, rec *model.Revenue) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE revenue SET amount=?, source=?, category=?, description=?, date=? WHERE id=?",
		rec.Amount, rec.Source, rec.Category, rec.Description, rec.Date, rec.ID)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Delete removes a revenue record.
func (r *RevenueRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM revenue WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffected(res)
}

// Summary aggregates total amount and record count over the filter range.
func (r *RevenueRepo) Summary(ctx context.Context, f RevenueFilter) (model.RevenueSummary, error) {
	where, args := revenueWhere(f)
	var s model.RevenueSummary
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount),0), COUNT(*) FROM revenue"+where, args...).Scan(&s.Total, &s.Count)
	return s, err
}

// GroupBy aggregates totals grouped by the given column ("source" or
// "category"), largest first.
func (r *RevenueRepo) GroupBy(ctx context.Context, column string, f RevenueFilter) ([]model.RevenueGroup, error) {
	if column != "source" && column != "category" {
		return nil, fmt.Errorf("revenue: cannot group by %q", column)
	}
	where, args := revenueWhere(f)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+column+", COALESCE(SUM(amount),0), COUNT(*) FROM revenue"+where+
			" GROUP BY "+column+" ORDER BY SUM(amount) DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RevenueGroup
	for rows.Next() {
		var g model.RevenueGroup
		if err := rows.Scan(&g.Key, &g.Total, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Recent returns the newest records for the activity feed.
func (r *RevenueRepo) Recent(ctx context.Context, limit int) ([]model.Revenue, error) {
	return r.List(ctx, RevenueFilter{Page: 1, Limit: limit})
}
