package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// RevenueHandler serves revenue records and their aggregations.
type RevenueHandler struct {
	Revenue *repository.RevenueRepo
}

func NewRevenueHandler(rev *repository.RevenueRepo) *RevenueHandler {
	return &RevenueHandler{Revenue: rev}
}

type revenueReq struct {
	Amount      *float64   `json:"amount"`
	Source      *string    `json:"source"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
}

func revenueView(r model.Revenue) echo.Map {
	return echo.Map{
		"id":          r.ID,
		"amount":      r.Amount,
		"source":      r.Source,
		"category":    r.Category,
		"description": r.Description,
		"date":        r.Date,
		"created_by":  r.CreatedBy,
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	}
}

// revenueFilter reads the shared query parameters for listings and
// aggregations.  Dates arrive as RFC3339 or plain YYYY-MM-DD.
func revenueFilter(c echo.Context) repository.RevenueFilter {
	f := repository.RevenueFilter{
		Source:   c.QueryParam("source"),
		Category: c.QueryParam("category"),
	}
	if t, ok := parseDate(c.QueryParam("start_date")); ok {
		f.StartDate = &t
	}
	if t, ok := parseDate(c.QueryParam("end_date")); ok {
		f.EndDate = &t
	}
	return f
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List returns a page of revenue records, newest first.
func (h *RevenueHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	f := revenueFilter(c)
	f.Page, f.Limit = page, limit

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recs, err := h.Revenue.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	total, err := h.Revenue.Count(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(recs))
	for _, r := range recs {
		out = append(out, revenueView(r))
	}
	return ok(c, echo.Map{"revenue": out, "pagination": newPageMeta(page, limit, total)})
}

// Get returns one revenue record.
func (h *RevenueHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Revenue.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "revenue record not found")
	}
	return ok(c, echo.Map{"revenue": revenueView(rec)})
}

// Create records a new revenue entry stamped with the creating user.
func (h *RevenueHandler) Create(c echo.Context) error {
	var req revenueReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Amount == nil {
		return fail(c, http.StatusBadRequest, "amount is required")
	}
	rec := model.Revenue{
		Amount:    *req.Amount,
		Source:    model.RevenueSourceOther,
		CreatedBy: currentUserID(c),
		Date:      time.Now().UTC(),
	}
	if req.Source != nil {
		if !model.ValidRevenueSource(*req.Source) {
			return fail(c, http.StatusBadRequest, "invalid source")
		}
		rec.Source = *req.Source
	}
	if req.Category != nil {
		rec.Category = *req.Category
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Date != nil {
		rec.Date = *req.Date
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Revenue.Create(ctx, &rec); err != nil {
		return fail(c, http.StatusInternalServerError, "create revenue failed")
	}
	return created(c, "revenue record created successfully", echo.Map{"revenue": revenueView(rec)})
}

// Update overwrites the editable fields of a record.
func (h *RevenueHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req revenueReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Revenue.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "revenue record not found")
	}
	if req.Amount != nil {
		rec.Amount = *req.Amount
	}
	if req.Source != nil {
		if !model.ValidRevenueSource(*req.Source) {
			return fail(c, http.StatusBadRequest, "invalid source")
		}
		rec.Source = *req.Source
	}
	if req.Category != nil {
		rec.Category = *req.Category
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Date != nil {
		rec.Date = *req.Date
	}
	if err := h.Revenue.Update(ctx, &rec); err != nil {
		return repoFail(c, err, "revenue record not found")
	}
	return okMsg(c, "revenue record updated successfully", echo.Map{"revenue": revenueView(rec)})
}

// Delete removes a revenue record.
func (h *RevenueHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Revenue.Delete(ctx, id); err != nil {
		return repoFail(c, err, "revenue record not found")
	}
	return okMsg(c, "revenue record deleted successfully", nil)
}

// Analytics aggregates revenue over the filtered range: a grand total plus
// breakdowns by source and by category.
func (h *RevenueHandler) Analytics(c echo.Context) error {
	f := revenueFilter(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	summary, err := h.Revenue.Summary(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	bySource, err := h.Revenue.GroupBy(ctx, "source", f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	byCategory, err := h.Revenue.GroupBy(ctx, "category", f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	return ok(c, echo.Map{
		"summary":     summary,
		"by_source":   bySource,
		"by_category": byCategory,
	})
}
