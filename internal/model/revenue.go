package model

import "time"

// Revenue sources.  "other" is the fallback for records imported without a
// known origin.
const (
	RevenueSourceSubscription = "subscription"
	RevenueSourceOneTime      = "one-time"
	RevenueSourceRefund       = "refund"
	RevenueSourceOther        = "other"
)

// Revenue models a row in the `revenue` table.
type Revenue struct {
	ID          uint64
	Amount      float64
	Source      string
	Category    string
	Description string
	Date        time.Time
	CreatedBy   uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidRevenueSource reports whether s is a recognized revenue source.
func ValidRevenueSource(s string) bool {
	switch s {
	case RevenueSourceSubscription, RevenueSourceOneTime, RevenueSourceRefund, RevenueSourceOther:
		return true
	}
	return false
}

// RevenueSummary is the result of the total/count aggregation used by the
// analytics and dashboard endpoints.
type RevenueSummary struct {
	Total float64 `json:"total"`
	Count uint64  `json:"count"`
}

// RevenueGroup is one bucket of a grouped aggregation (by source or by
// category).
type RevenueGroup struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Count uint64  `json:"count"`
}
