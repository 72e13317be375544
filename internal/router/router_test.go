package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/handler"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/queue"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/utils"
)

type nopMailer struct{}

func (nopMailer) PublishEmailRequested(context.Context, queue.EmailRequestedEvent) error {
	return nil
}

// routerSetup registers the full route table over sqlmock with no Redis, so
// requests travel the same path they do in production.
func routerSetup(t *testing.T) (*echo.Echo, sqlmock.Sqlmock, config.Config) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Env:            "test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	keys := repository.NewAPIKeyRepo(db)
	transactions := repository.NewTransactionRepo(db)
	revenue := repository.NewRevenueRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	subscriptions := repository.NewSubscriptionRepo(db)
	cards := repository.NewPaymentMethodRepo(db)
	projects := repository.NewProjectRepo(db)

	h := Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, sessions, nopMailer{}),
		Users:         handler.NewUserHandler(cfg, users, sessions),
		APIKeys:       handler.NewAPIKeyHandler(cfg, keys),
		Transactions:  handler.NewTransactionHandler(transactions),
		Revenue:       handler.NewRevenueHandler(revenue),
		Billing:       handler.NewBillingHandler(invoices, subscriptions, cards),
		Subscriptions: handler.NewSubscriptionHandler(subscriptions),
		Projects:      handler.NewProjectHandler(projects),
		Dashboard:     handler.NewDashboardHandler(users, revenue, sessions),
	}

	e := echo.New()
	Register(e, cfg, db, nil, h, users, keys)
	return e, mock, cfg
}

func serve(e *echo.Echo, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// A client whose access token has long expired must still be able to end
// its session with nothing but the refresh token.
func TestRouterLogoutWithRefreshTokenOnly(t *testing.T) {
	e, mock, cfg := routerSetup(t)

	refresh, err := utils.NewRefreshToken(cfg.RefreshSecret, 7, cfg.RefreshTTLDays)
	require.NoError(t, err)
	hash := utils.HashToken(refresh.Raw)

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), nil))
	mock.ExpectExec("UPDATE sessions SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := serve(e, http.MethodPost, "/api/v1/auth/logout",
		`{"refresh_token":"`+refresh.Raw+`"}`, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterLogoutRequiresRefreshToken(t *testing.T) {
	e, mock, _ := routerSetup(t)

	rec := serve(e, http.MethodPost, "/api/v1/auth/logout", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterLogoutAllNeedsBearer(t *testing.T) {
	e, mock, _ := routerSetup(t)

	rec := serve(e, http.MethodPost, "/api/v1/auth/logout-all", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no credentials provided")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterLogoutAllRevokesEverySession(t *testing.T) {
	e, mock, cfg := routerSetup(t)

	access, err := utils.NewAccessToken(cfg.AccessSecret, 7, "ada@example.com", model.RoleConsultant, cfg.AccessTTLMin)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id,name,email,password_hash,role,bio,phone,location,company,is_active,last_login,password_changed_at,reset_token_hash,reset_token_expires,created_at,updated_at FROM users WHERE id=? LIMIT 1").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role", "bio", "phone",
			"location", "company", "is_active", "last_login",
			"password_changed_at", "reset_token_hash", "reset_token_expires",
			"created_at", "updated_at",
		}).AddRow(7, "Ada", "ada@example.com", "hash", model.RoleConsultant, "", "", "", "", true, nil, nil, nil, nil, now, now))
	mock.ExpectExec("UPDATE sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rec := serve(e, http.MethodPost, "/api/v1/auth/logout-all", "",
		map[string]string{"Authorization": "Bearer " + access.Token})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
