package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/repository"
)

// DashboardHandler aggregates cross-entity numbers for the overview and
// stats cards.  All reads; the heavier ones sit behind the response cache.
type DashboardHandler struct {
	Users    *repository.UserRepo
	Revenue  *repository.RevenueRepo
	Sessions *repository.SessionRepo
}

func NewDashboardHandler(users *repository.UserRepo, rev *repository.RevenueRepo, sessions *repository.SessionRepo) *DashboardHandler {
	return &DashboardHandler{Users: users, Revenue: rev, Sessions: sessions}
}

// growth computes the percent change between two window totals.  A zero
// previous window reads as 100% when anything happened, 0% otherwise.
func growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// Overview returns user and revenue totals plus 30-day growth versus the
// preceding 30-day window.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -30)
	prevStart := now.AddDate(0, 0, -60)

	totalUsers, err := h.Users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	usersThisWindow, err := h.Users.CountCreatedBetween(ctx, windowStart, now)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	usersPrevWindow, err := h.Users.CountCreatedBetween(ctx, prevStart, windowStart)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	revTotal, err := h.Revenue.Summary(ctx, repository.RevenueFilter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	revThisWindow, err := h.Revenue.Summary(ctx, repository.RevenueFilter{StartDate: &windowStart, EndDate: &now})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	revPrevWindow, err := h.Revenue.Summary(ctx, repository.RevenueFilter{StartDate: &prevStart, EndDate: &windowStart})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	return ok(c, echo.Map{
		"users": echo.Map{
			"total":          totalUsers,
			"new_this_month": usersThisWindow,
			"growth":         growth(float64(usersThisWindow), float64(usersPrevWindow)),
		},
		"revenue": echo.Map{
			"total":      revTotal.Total,
			"this_month": revThisWindow.Total,
			"growth":     growth(revThisWindow.Total, revPrevWindow.Total),
		},
	})
}

// activity is one row of the recent-activities feed.
type activity struct {
	Type        string    `json:"type"` // user_registered | revenue_recorded
	Description string    `json:"description"`
	Amount      float64   `json:"amount,omitempty"`
	At          time.Time `json:"at"`
}

// Activities merges recent registrations and revenue records into one
// feed, newest first.
func (h *DashboardHandler) Activities(c echo.Context) error {
	_, limit := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.Recent(ctx, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	revenue, err := h.Revenue.Recent(ctx, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	feed := make([]activity, 0, len(users)+len(revenue))
	for _, u := range users {
		feed = append(feed, activity{
			Type:        "user_registered",
			Description: u.Name + " registered",
			At:          u.CreatedAt,
		})
	}
	for _, r := range revenue {
		desc := r.Description
		if desc == "" {
			desc = "revenue from " + r.Source
		}
		feed = append(feed, activity{
			Type:        "revenue_recorded",
			Description: desc,
			Amount:      r.Amount,
			At:          r.Date,
		})
	}
	sort.Slice(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return ok(c, echo.Map{"activities": feed})
}

// Stats returns the flat totals for the stat cards.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	totalUsers, err := h.Users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	active := true
	activeUsers, err := h.Users.Count(ctx, repository.UserFilter{IsActive: &active})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	rev, err := h.Revenue.Summary(ctx, repository.RevenueFilter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	activeSessions, err := h.Sessions.CountActive(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return ok(c, echo.Map{
		"total_users":     totalUsers,
		"active_users":    activeUsers,
		"total_revenue":   rev.Total,
		"revenue_records": rev.Count,
		"active_sessions": activeSessions,
	})
}
