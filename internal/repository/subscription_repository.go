package repository

import (
	"context"
	"database/sql"

	"github.com/admin-dashboard/api/internal/model"
)

// SubscriptionRepo encapsulates queries against the subscriptions table.
// Each user has at most one row (unique key on user_id).
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// GetByUser fetches the subscription belonging to a user.
func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID uint64) (model.Subscription, error) {
	var (
		s           model.Subscription
		nextBilling sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, plan_name, monthly_price, dev_hours_allowed, dev_hours_used, next_billing_date, total_spent, created_at, updated_at FROM subscriptions WHERE user_id=? LIMIT 1",
		userID).Scan(&s.ID, &s.UserID, &s.PlanName, &s.MonthlyPrice, &s.DevHoursAllowed, &s.DevHoursUsed, &nextBilling, &s.TotalSpent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Subscription{}, ErrNotFound
		}
		return model.Subscription{}, err
	}
	if nextBilling.Valid {
		s.NextBillingDate = &nextBilling.Time
	}
	return s, nil
}

// Upsert inserts or overwrites the user's subscription in one statement,
// relying on the unique key on user_id.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *model.Subscription) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_name, monthly_price, dev_hours_allowed, dev_hours_used, next_billing_date, total_spent)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE plan_name=VALUES(plan_name), monthly_price=VALUES(monthly_price),
		 dev_hours_allowed=VALUES(dev_hours_allowed), dev_hours_used=VALUES(dev_hours_used),
		 next_billing_date=VALUES(next_billing_date), total_spent=VALUES(total_spent)`,
		s.UserID, s.PlanName, s.MonthlyPrice, s.DevHoursAllowed, s.DevHoursUsed, s.NextBillingDate, s.TotalSpent)
	if err != nil {
		return err
	}
	stored, err := r.GetByUser(ctx, s.UserID)
	if err != nil {
		return err
	}
	*s = stored
	return nil
}
