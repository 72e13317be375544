package handler // handler defines the HTTP handlers behind the REST routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/middleware"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// Every response uses the same envelope: {success, data?, message?, error?}.
// The helpers below are the only place the envelope is spelled out, so a
// handler cannot drift from the shape the frontend parses.

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

func okMsg(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": msg, "data": data})
}

func created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": msg, "data": data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// repoFail translates repository sentinels into envelope responses.  The
// fallback is a generic 500 so store internals never leak to the client.
func repoFail(c echo.Context, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "conflicting record already exists")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "not authorized to access this resource")
	}
	return fail(c, http.StatusInternalServerError, "internal error")
}

// currentUser returns the principal attached by the auth middleware.
func currentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(middleware.CtxUser).(model.User)
	return u, ok
}

// currentUserID returns the principal's ID, or 0 when unauthenticated.
func currentUserID(c echo.Context) uint64 {
	id, _ := c.Get(middleware.CtxUserID).(uint64)
	return id
}

// isAdmin reports whether the request principal carries the admin role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == model.RoleAdmin
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pagination reads ?page= and ?limit= with the usual defaults and caps.
func pagination(c echo.Context) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// boolFilter parses an optional true/false query parameter into a *bool.
func boolFilter(c echo.Context, name string) *bool {
	switch c.QueryParam(name) {
	case "true":
		t := true
		return &t
	case "false":
		f := false
		return &f
	}
	return nil
}

// pageMeta is the pagination block attached to list responses.
type pageMeta struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total uint64 `json:"total"`
	Pages uint64 `json:"pages"`
}

func newPageMeta(page, limit int, total uint64) pageMeta {
	pages := total / uint64(limit)
	if total%uint64(limit) != 0 {
		pages++
	}
	return pageMeta{Page: page, Limit: limit, Total: total, Pages: pages}
}
