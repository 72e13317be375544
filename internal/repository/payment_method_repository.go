package repository

import (
	"context"
	"database/sql"

	"github.com/admin-dashboard/api/internal/model"
)

// PaymentMethodRepo encapsulates queries against the payment_methods table.
type PaymentMethodRepo struct{ DB *sql.DB }

func NewPaymentMethodRepo(db *sql.DB) *PaymentMethodRepo { return &PaymentMethodRepo{DB: db} }

// ListByUser returns a user's cards with the default first.
func (r *PaymentMethodRepo) ListByUser(ctx context.Context, userID uint64) ([]model.PaymentMethod, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, card_brand, last4, expiry_date, is_default, created_at, updated_at FROM payment_methods WHERE user_id=? ORDER BY is_default DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PaymentMethod
	for rows.Next() {
		var m model.PaymentMethod
		if err := rows.Scan(&m.ID, &m.UserID, &m.CardBrand, &m.Last4, &m.ExpiryDate, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts a card. When the new card is the default, the previous
// default is cleared first; two single-row statements, no transaction
// needed since the worst interleaving leaves one extra non-default card.
func (r *PaymentMethodRepo) Create(ctx context.Context, m *model.PaymentMethod) error {
	if m.IsDefault {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE payment_methods SET is_default=0 WHERE user_id=?", m.UserID); err != nil {
			return err
		}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO payment_methods (user_id, card_brand, last4, expiry_date, is_default) VALUES (?,?,?,?,?)",
		m.UserID, m.CardBrand, m.Last4, m.ExpiryDate, m.IsDefault)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}
