package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// BillingHandler serves the billing page: the subscription summary,
// invoice history and stored payment methods for one user.  Routes take a
// :userId parameter guarded by the OwnerOrAdmin middleware.
type BillingHandler struct {
	Invoices      *repository.InvoiceRepo
	Subscriptions *repository.SubscriptionRepo
	Cards         *repository.PaymentMethodRepo
}

func NewBillingHandler(inv *repository.InvoiceRepo, subs *repository.SubscriptionRepo, cards *repository.PaymentMethodRepo) *BillingHandler {
	return &BillingHandler{Invoices: inv, Subscriptions: subs, Cards: cards}
}

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

type createInvoiceReq struct {
	InvoiceNumber string    `json:"invoice_number"`
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	ProjectRef    string    `json:"project_ref"`
}

type createCardReq struct {
	CardBrand  string `json:"card_brand"`
	Last4      string `json:"last4"`
	ExpiryDate string `json:"expiry_date"`
	IsDefault  bool   `json:"is_default"`
}

func invoiceView(inv model.Invoice) echo.Map {
	return echo.Map{
		"id":             inv.ID,
		"user_id":        inv.UserID,
		"invoice_number": inv.InvoiceNumber,
		"date":           inv.Date,
		"amount":         inv.Amount,
		"status":         inv.Status,
		"project_ref":    inv.ProjectRef,
		"created_at":     inv.CreatedAt,
	}
}

func subscriptionView(s model.Subscription) echo.Map {
	return echo.Map{
		"id":                s.ID,
		"user_id":           s.UserID,
		"plan_name":         s.PlanName,
		"monthly_price":     s.MonthlyPrice,
		"dev_hours_allowed": s.DevHoursAllowed,
		"dev_hours_used":    s.DevHoursUsed,
		"next_billing_date": s.NextBillingDate,
		"total_spent":       s.TotalSpent,
		"updated_at":        s.UpdatedAt,
	}
}

func cardView(m model.PaymentMethod) echo.Map {
	return echo.Map{
		"id":          m.ID,
		"user_id":     m.UserID,
		"card_brand":  m.CardBrand,
		"last4":       m.Last4,
		"expiry_date": m.ExpiryDate,
		"is_default":  m.IsDefault,
		"created_at":  m.CreatedAt,
	}
}

// Summary assembles the billing overview card: subscription state, spend
// for the current year, and the stored cards.  A missing subscription is
// not an error; the frontend shows an empty state.
func (h *BillingHandler) Summary(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var subView echo.Map
	sub, err := h.Subscriptions.GetByUser(ctx, userID)
	switch {
	case err == nil:
		subView = subscriptionView(sub)
	case err == repository.ErrNotFound:
		subView = nil
	default:
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	yearStart := time.Date(time.Now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	spentThisYear, err := h.Invoices.TotalPaidSince(ctx, userID, yearStart)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	cards, err := h.Cards.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	cardViews := make([]echo.Map, 0, len(cards))
	for _, m := range cards {
		cardViews = append(cardViews, cardView(m))
	}
	return ok(c, echo.Map{
		"subscription":    subView,
		"spent_this_year": spentThisYear,
		"payment_methods": cardViews,
	})
}

// ListInvoices returns a user's invoice history, newest first.
func (h *BillingHandler) ListInvoices(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	invoices, err := h.Invoices.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceView(inv))
	}
	return ok(c, echo.Map{"invoices": out})
}

// CreateInvoice records an invoice against a user.  Admin only; invoice
// numbers are unique across the system.
func (h *BillingHandler) CreateInvoice(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var req createInvoiceReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	if req.InvoiceNumber == "" {
		return fail(c, http.StatusBadRequest, "invoice_number is required")
	}
	if req.Status == "" {
		req.Status = model.InvoiceStatusPending
	}
	if !model.ValidInvoiceStatus(req.Status) {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv := model.Invoice{
		UserID:        userID,
		InvoiceNumber: req.InvoiceNumber,
		Date:          req.Date,
		Amount:        req.Amount,
		Status:        req.Status,
		ProjectRef:    req.ProjectRef,
	}
	if err := h.Invoices.Create(ctx, &inv); err != nil {
		if err == repository.ErrConflict {
			return fail(c, http.StatusConflict, "invoice number already exists")
		}
		return fail(c, http.StatusInternalServerError, "create invoice failed")
	}
	return created(c, "invoice created successfully", echo.Map{"invoice": invoiceView(inv)})
}

// ListPaymentMethods returns a user's stored cards, default first.
func (h *BillingHandler) ListPaymentMethods(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cards, err := h.Cards.ListByUser(ctx, userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(cards))
	for _, m := range cards {
		out = append(out, cardView(m))
	}
	return ok(c, echo.Map{"payment_methods": out})
}

// AddPaymentMethod stores a card stub.  Only brand, last four digits and
// expiry are accepted; full numbers never reach this API.
func (h *BillingHandler) AddPaymentMethod(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var req createCardReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !model.ValidCardBrand(req.CardBrand) {
		return fail(c, http.StatusBadRequest, "invalid card brand")
	}
	if len(req.Last4) != 4 {
		return fail(c, http.StatusBadRequest, "last4 must be exactly four digits")
	}
	for _, r := range req.Last4 {
		if r < '0' || r > '9' {
			return fail(c, http.StatusBadRequest, "last4 must be exactly four digits")
		}
	}
	if !expiryPattern.MatchString(req.ExpiryDate) {
		return fail(c, http.StatusBadRequest, "expiry_date must be MM/YY")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := model.PaymentMethod{
		UserID:     userID,
		CardBrand:  req.CardBrand,
		Last4:      req.Last4,
		ExpiryDate: req.ExpiryDate,
		IsDefault:  req.IsDefault,
	}
	if err := h.Cards.Create(ctx, &m); err != nil {
		return fail(c, http.StatusInternalServerError, "add payment method failed")
	}
	return created(c, "payment method added successfully", echo.Map{"payment_method": cardView(m)})
}
