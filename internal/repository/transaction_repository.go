package repository

import (
	"context"
	"database/sql"

	"github.com/admin-dashboard/api/internal/model"
)

// TransactionRepo encapsulates queries against the transactions table.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

// Create inserts a transaction and populates its ID.
func (r *TransactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO transactions (amount, category, description, source, date) VALUES (?,?,?,?,?)",
		t.Amount, t.Category, t.Description, t.Source, t.Date)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// List returns all transactions ordered by date ascending, the order the
// revenue chart consumes them in.
func (r *TransactionRepo) List(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, amount, category, description, source, date, created_at, updated_at FROM transactions ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Category, &t.Description, &t.Source, &t.Date, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
