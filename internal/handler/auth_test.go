package handler

import (
	"context"
	"encoding/json"
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
	"github.com/admin-dashboard/api/internal/middleware"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/queue"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/utils"
)

const userColumnsSQL = "id,name,email,password_hash,role,bio,phone,location,company,is_active,last_login,password_changed_at,reset_token_hash,reset_token_expires,created_at,updated_at"

// mailerStub records published events instead of touching the broker.
type mailerStub struct {
	events []queue.EmailRequestedEvent
}

func (m *mailerStub) PublishEmailRequested(_ context.Context, ev queue.EmailRequestedEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4, // bcrypt.MinCost keeps the suite fast
		FrontendURL:    "http://localhost:5173",
		EmailFrom:      "no-reply@test",
	}
}

func authTestSetup(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *mailerStub) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mailer := &mailerStub{}
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewSessionRepo(db), mailer)
	return h, mock, mailer
}

func jsonRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func storedUserRows(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "bio", "phone",
		"location", "company", "is_active", "last_login",
		"password_changed_at", "reset_token_hash", "reset_token_expires",
		"created_at", "updated_at",
	}).AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Bio, u.Phone,
		u.Location, u.Company, u.IsActive, nil, nil, nil, nil,
		time.Now().UTC(), time.Now().UTC())
}

func expectSessionInsert(mock sqlmock.Sqlmock, userID uint64) {
	mock.ExpectExec("INSERT INTO sessions (user_id, token_hash, ip_address, user_agent, expires_at) VALUES (?,?,?,?,?)").
		WithArgs(userID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestRegister(t *testing.T) {
	h, mock, mailer := authTestSetup(t)

	mock.ExpectExec("INSERT INTO users (name, email, password_hash, role, is_active) VALUES (?,?,?,?,?)").
		WithArgs("Ada", "ada@example.com", sqlmock.AnyArg(), model.RoleConsultant, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectSessionInsert(mock, 1)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ada","email":"Ada@Example.com","password":"Passw0rd!"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			User struct {
				ID   uint64 `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
			Access  struct{ Token string } `json:"access"`
			Refresh struct{ Token string } `json:"refresh"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, uint64(1), resp.Data.User.ID)
	assert.Equal(t, model.RoleConsultant, resp.Data.User.Role, "self-registration never yields admin")
	assert.NotEmpty(t, resp.Data.Access.Token)
	assert.NotEmpty(t, resp.Data.Refresh.Token)
	assert.NotContains(t, rec.Body.String(), "password", "no password material in the response")

	// The access token must verify under the access secret.
	claims, err := utils.VerifyAccessToken(h.Cfg.AccessSecret, resp.Data.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)

	require.Len(t, mailer.events, 1)
	assert.Equal(t, queue.EmailKindWelcome, mailer.events[0].Kind)
	assert.Equal(t, "ada@example.com", mailer.events[0].To)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterWeakPassword(t *testing.T) {
	h, mock, mailer := authTestSetup(t)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"weak"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 8 characters")
	assert.Empty(t, mailer.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock, _ := authTestSetup(t)

	mock.ExpectExec("INSERT INTO users (name, email, password_hash, role, is_active) VALUES (?,?,?,?,?)").
		WillReturnError(dupErr("Error 1062: Duplicate entry"))

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Ada","email":"ada@example.com","password":"Passw0rd!"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	h, mock, _ := authTestSetup(t)

	hash, err := utils.HashPassword("Passw0rd!", h.Cfg.BcryptCost)
	require.NoError(t, err)
	stored := model.User{ID: 5, Name: "Ada", Email: "ada@example.com", PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}

	t.Run("wrong password is 401", func(t *testing.T) {
		mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
			WithArgs("ada@example.com").
			WillReturnRows(storedUserRows(stored))

		req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/login",
			`{"email":"ada@example.com","password":"WrongPass1!"}`)
		c := echo.New().NewContext(req, rec)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("unknown email reads the same", func(t *testing.T) {
		mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/login",
			`{"email":"nobody@example.com","password":"Passw0rd!"}`)
		c := echo.New().NewContext(req, rec)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	})

	t.Run("correct password issues tokens", func(t *testing.T) {
		mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
			WithArgs("ada@example.com").
			WillReturnRows(storedUserRows(stored))
		mock.ExpectExec("UPDATE users SET last_login=? WHERE id=?").
			WithArgs(sqlmock.AnyArg(), uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectSessionInsert(mock, 5)

		req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/login",
			`{"email":"ada@example.com","password":"Passw0rd!"}`)
		c := echo.New().NewContext(req, rec)

		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"access"`)
		assert.NotContains(t, rec.Body.String(), hash, "stored hash never leaves the server")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	h, mock, _ := authTestSetup(t)

	hash, err := utils.HashPassword("Passw0rd!", h.Cfg.BcryptCost)
	require.NoError(t, err)
	stored := model.User{ID: 5, Name: "Ada", Email: "ada@example.com", PasswordHash: hash, Role: model.RoleConsultant, IsActive: false}

	mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
		WithArgs("ada@example.com").
		WillReturnRows(storedUserRows(stored))

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"ada@example.com","password":"Passw0rd!"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "deactivated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRotatesSession(t *testing.T) {
	h, mock, _ := authTestSetup(t)

	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, 5, h.Cfg.RefreshTTLDays)
	require.NoError(t, err)
	hash := utils.HashToken(refresh.Raw)

	mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1").
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(5, time.Now().UTC().Add(time.Hour), nil))
	mock.ExpectExec("UPDATE sessions SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL").
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT "+userColumnsSQL+" FROM users WHERE id=? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(storedUserRows(model.User{ID: 5, Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true}))
	expectSessionInsert(mock, 5)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+refresh.Raw+`"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Refresh struct{ Token string } `json:"refresh"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, refresh.Raw, resp.Data.Refresh.Token, "refresh token is rotated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h, mock, _ := authTestSetup(t)

	// An access token is signed with the other secret; the refresh
	// endpoint must turn it away before any database work.
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, 5, "ada@example.com", model.RoleAdmin, 15)
	require.NoError(t, err)

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+access.Token+`"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMe(t *testing.T) {
	h, _, _ := authTestSetup(t)

	req, rec := jsonRequest(http.MethodGet, "/api/v1/auth/me", "")
	c := echo.New().NewContext(req, rec)
	c.Set(middleware.CtxUser, model.User{ID: 5, Name: "Ada", Email: "ada@example.com", PasswordHash: "secret-hash", Role: model.RoleAdmin, IsActive: true})

	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ada@example.com"`)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	h, mock, mailer := authTestSetup(t)

	mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/forgot-password",
		`{"email":"nobody@example.com"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code, "unknown addresses get the same 200")
	assert.Empty(t, mailer.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForgotPasswordKnownEmail(t *testing.T) {
	h, mock, mailer := authTestSetup(t)

	mock.ExpectQuery("SELECT " + userColumnsSQL + " FROM users WHERE email=? LIMIT 1").
		WithArgs("ada@example.com").
		WillReturnRows(storedUserRows(model.User{ID: 5, Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true}))
	mock.ExpectExec("UPDATE users SET reset_token_hash=?, reset_token_expires=? WHERE id=?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req, rec := jsonRequest(http.MethodPost, "/api/v1/auth/forgot-password",
		`{"email":"ada@example.com"}`)
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, mailer.events, 1)
	ev := mailer.events[0]
	assert.Equal(t, queue.EmailKindPasswordReset, ev.Kind)
	assert.True(t, strings.HasPrefix(ev.ResetURL, "http://localhost:5173/reset-password/"))
	// The link carries the raw token; the database only ever saw its hash.
	raw := strings.TrimPrefix(ev.ResetURL, "http://localhost:5173/reset-password/")
	assert.Len(t, raw, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// dupErr builds an error carrying a MySQL duplicate-entry code.
type dupErr string

func (e dupErr) Error() string { return string(e) }
