package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// principal has one of the specified roles.  It assumes Authenticate has
// already stored the role in the context; missing or unknown roles are
// rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "access denied"})
			}
			return next(c)
		}
	}
}

// RequireAdmin is shorthand for the admin-only routes.
func RequireAdmin() echo.MiddlewareFunc { return RequireRole(model.RoleAdmin) }

// OwnerOrAdmin admits admins unconditionally and other principals only when
// the path parameter names their own ID.  Used on profile and API key
// routes so consultants can manage their own resources.
func OwnerOrAdmin(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == model.RoleAdmin {
				return next(c)
			}
			uid, ok := c.Get(CtxUserID).(uint64)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not authenticated"})
			}
			want, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || want != uid {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not authorized to access this resource"})
			}
			return next(c)
		}
	}
}

// RequirePermissions enforces API key scopes on machine-facing routes.
// JWT-authenticated admins pass outright; API key requests pass when the
// key's grants satisfy the requirement.  The actual set logic lives in
// model.HasPermissions so every permission decision shares one
// implementation.
func RequirePermissions(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if method, _ := c.Get(CtxAuthMethod).(string); method != AuthMethodAPIKey {
				if role, _ := c.Get(CtxRole).(string); role == model.RoleAdmin {
					return next(c)
				}
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "insufficient permissions"})
			}
			granted, _ := c.Get(CtxPermissions).([]string)
			if !model.HasPermissions(granted, perms...) {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "this API key does not grant the required permissions"})
			}
			return next(c)
		}
	}
}
