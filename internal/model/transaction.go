package model

import "time"

// Transaction models a row in the `transactions` table: a flat bookkeeping
// record with no cross-entity invariants.
type Transaction struct {
	ID          uint64
	Amount      float64
	Category    string
	Description string
	Source      string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
