package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/admin-dashboard/api/internal/model"
)

// InvoiceRepo encapsulates queries against the invoices table.
type InvoiceRepo struct{ DB *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{DB: db} }

// Create inserts an invoice and populates its ID. A duplicate invoice
// number maps to ErrConflict.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO invoices (user_id, invoice_number, date, amount, status, project_ref) VALUES (?,?,?,?,?,?)",
		inv.UserID, inv.InvoiceNumber, inv.Date, inv.Amount, inv.Status, inv.ProjectRef)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// ListByUser returns a user's invoices, most recent date first.
func (r *InvoiceRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, invoice_number, date, amount, status, project_ref, created_at, updated_at FROM invoices WHERE user_id=? ORDER BY date DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.Date, &inv.Amount, &inv.Status, &inv.ProjectRef, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// TotalPaidSince sums a user's paid invoices dated on or after the given
// instant. Backs the "total spent this year" billing card.
func (r *InvoiceRepo) TotalPaidSince(ctx context.Context, userID uint64, since time.Time) (float64, error) {
	var total float64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount),0) FROM invoices WHERE user_id=? AND status=? AND date >= ?",
		userID, model.InvoiceStatusPaid, since).Scan(&total)
	return total, err
}
