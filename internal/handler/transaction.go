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

// TransactionHandler serves the flat bookkeeping records behind the
// revenue chart.
type TransactionHandler struct {
	Transactions *repository.TransactionRepo
}

func NewTransactionHandler(tx *repository.TransactionRepo) *TransactionHandler {
	return &TransactionHandler{Transactions: tx}
}

type createTransactionReq struct {
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Date        time.Time `json:"date"`
}

func transactionView(t model.Transaction) echo.Map {
	return echo.Map{
		"id":          t.ID,
		"amount":      t.Amount,
		"category":    t.Category,
		"description": t.Description,
		"source":      t.Source,
		"date":        t.Date,
		"created_at":  t.CreatedAt,
		"updated_at":  t.UpdatedAt,
	}
}

// List returns every transaction in chart order (date ascending).
func (h *TransactionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.Transactions.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionView(t))
	}
	return ok(c, echo.Map{"transactions": out})
}

// Create records a new transaction.
func (h *TransactionHandler) Create(c echo.Context) error {
	var req createTransactionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		return fail(c, http.StatusBadRequest, "category is required")
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.Transaction{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Source:      req.Source,
		Date:        req.Date,
	}
	if err := h.Transactions.Create(ctx, &t); err != nil {
		return fail(c, http.StatusInternalServerError, "create transaction failed")
	}
	return created(c, "transaction created successfully", echo.Map{"transaction": transactionView(t)})
}
