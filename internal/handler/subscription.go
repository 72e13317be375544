package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// SubscriptionHandler serves a user's single subscription record.
type SubscriptionHandler struct {
	Subscriptions *repository.SubscriptionRepo
}

func NewSubscriptionHandler(subs *repository.SubscriptionRepo) *SubscriptionHandler {
	return &SubscriptionHandler{Subscriptions: subs}
}

type upsertSubscriptionReq struct {
	PlanName        string     `json:"plan_name"`
	MonthlyPrice    float64    `json:"monthly_price"`
	DevHoursAllowed float64    `json:"dev_hours_allowed"`
	DevHoursUsed    float64    `json:"dev_hours_used"`
	NextBillingDate *time.Time `json:"next_billing_date"`
	TotalSpent      float64    `json:"total_spent"`
}

// Get returns the subscription belonging to the :userId in the path.
func (h *SubscriptionHandler) Get(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Subscriptions.GetByUser(ctx, userID)
	if err != nil {
		return repoFail(c, err, "subscription not found")
	}
	return ok(c, echo.Map{"subscription": subscriptionView(s)})
}

// Upsert creates or replaces the user's subscription.  Admin only; a user
// has at most one subscription so the write is an insert-or-overwrite.
func (h *SubscriptionHandler) Upsert(c echo.Context) error {
	userID, err := pathID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var req upsertSubscriptionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.PlanName = strings.TrimSpace(req.PlanName)
	if req.PlanName == "" {
		return fail(c, http.StatusBadRequest, "plan_name is required")
	}
	if req.MonthlyPrice < 0 || req.DevHoursAllowed < 0 || req.DevHoursUsed < 0 || req.TotalSpent < 0 {
		return fail(c, http.StatusBadRequest, "amounts cannot be negative")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := model.Subscription{
		UserID:          userID,
		PlanName:        req.PlanName,
		MonthlyPrice:    req.MonthlyPrice,
		DevHoursAllowed: req.DevHoursAllowed,
		DevHoursUsed:    req.DevHoursUsed,
		NextBillingDate: req.NextBillingDate,
		TotalSpent:      req.TotalSpent,
	}
	if err := h.Subscriptions.Upsert(ctx, &s); err != nil {
		return fail(c, http.StatusInternalServerError, "save subscription failed")
	}
	return okMsg(c, "subscription saved successfully", echo.Map{"subscription": subscriptionView(s)})
}
