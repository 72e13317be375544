package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/admin-dashboard/api/internal/model"
)

func runGuard(mw echo.MiddlewareFunc, seed func(echo.Context), path string, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if seed != nil {
		seed(c)
	}
	_ = mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin)

	rec := runGuard(mw, func(c echo.Context) { c.Set(CtxRole, model.RoleAdmin) }, "/")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runGuard(mw, func(c echo.Context) { c.Set(CtxRole, model.RoleConsultant) }, "/")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runGuard(mw, nil, "/")
	assert.Equal(t, http.StatusForbidden, rec.Code, "missing role is rejected")
}

func TestOwnerOrAdmin(t *testing.T) {
	mw := OwnerOrAdmin("id")

	t.Run("admin passes for any id", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxRole, model.RoleAdmin)
			c.Set(CtxUserID, uint64(1))
		}, "/", "id", "99")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("owner passes for own id", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxRole, model.RoleConsultant)
			c.Set(CtxUserID, uint64(7))
		}, "/", "id", "7")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("consultant rejected for other id", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxRole, model.RoleConsultant)
			c.Set(CtxUserID, uint64(7))
		}, "/", "id", "8")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("garbage id rejected", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxRole, model.RoleConsultant)
			c.Set(CtxUserID, uint64(7))
		}, "/", "id", "abc")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequirePermissions(t *testing.T) {
	mw := RequirePermissions(model.PermissionWrite)

	t.Run("jwt admin passes", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxAuthMethod, AuthMethodJWT)
			c.Set(CtxRole, model.RoleAdmin)
		}, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("jwt consultant rejected", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxAuthMethod, AuthMethodJWT)
			c.Set(CtxRole, model.RoleConsultant)
		}, "/")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("api key with scope passes", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxAuthMethod, AuthMethodAPIKey)
			c.Set(CtxPermissions, []string{model.PermissionRead, model.PermissionWrite})
		}, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("api key with blanket admin passes", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxAuthMethod, AuthMethodAPIKey)
			c.Set(CtxPermissions, []string{model.PermissionAdmin})
		}, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("api key without scope rejected", func(t *testing.T) {
		rec := runGuard(mw, func(c echo.Context) {
			c.Set(CtxAuthMethod, AuthMethodAPIKey)
			c.Set(CtxPermissions, []string{model.PermissionRead})
		}, "/")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
