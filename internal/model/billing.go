package model

import "time"

// Invoice statuses.
const (
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusPending = "Pending"
	InvoiceStatusOverdue = "Overdue"
)

// Card brands accepted for payment methods.
const (
	CardBrandVisa       = "Visa"
	CardBrandMastercard = "Mastercard"
	CardBrandAmex       = "Amex"
	CardBrandDiscover   = "Discover"
)

// Invoice models a row in the `invoices` table.  Each invoice belongs to a
// single user; InvoiceNumber is unique across the table.
type Invoice struct {
	ID            uint64
	UserID        uint64
	InvoiceNumber string
	Date          time.Time
	Amount        float64
	Status        string
	ProjectRef    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Subscription models a row in the `subscriptions` table.  Each user has at
// most one subscription (unique key on user_id); writes are upserts.
type Subscription struct {
	ID              uint64
	UserID          uint64
	PlanName        string
	MonthlyPrice    float64
	DevHoursAllowed float64
	DevHoursUsed    float64
	NextBillingDate *time.Time
	TotalSpent      float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentMethod models a row in the `payment_methods` table.  Only the card
// brand, the last four digits and the expiry are kept; at most one method
// per user is flagged as default.
type PaymentMethod struct {
	ID        uint64
	UserID    uint64
	CardBrand string
	Last4     string
	ExpiryDate string // MM/YY as entered on the billing page
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidCardBrand reports whether s is one of the accepted brands.
func ValidCardBrand(s string) bool {
	switch s {
	case CardBrandVisa, CardBrandMastercard, CardBrandAmex, CardBrandDiscover:
		return true
	}
	return false
}

// ValidInvoiceStatus reports whether s is a recognized invoice status.
func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusPending, InvoiceStatusOverdue:
		return true
	}
	return false
}
