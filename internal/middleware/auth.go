package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/utils"
)

// Context keys set by Authenticate.  Handlers read the resolved principal
// through these; the guard middleware in role.go reads them too.
const (
	CtxUser        = "user"        // model.User of the principal
	CtxUserID      = "user_id"     // uint64 shortcut
	CtxRole        = "role"        // role string shortcut
	CtxAuthMethod  = "auth_method" // "jwt" or "api_key"
	CtxPermissions = "permissions" // []string, API key requests only
)

// Auth method values stored under CtxAuthMethod.
const (
	AuthMethodJWT    = "jwt"
	AuthMethodAPIKey = "api_key"
)

// Authenticate resolves the request's credentials into a principal and
// attaches it to the context.  It runs once per request with terminal
// outcomes only:
//
//  1. A well-formed API key, if present, is looked up by (prefix, hash);
//     the key and its owner must both be active, the key unexpired and the
//     client address on the allowlist.  Failure is a hard 401 — there is no
//     fallback to bearer auth once something shaped like a key arrived.
//  2. Otherwise a bearer access token is required.  Verification failures
//     distinguish "token expired" (client should refresh) from "invalid
//     token" (client should sign in again).
//  3. The principal is loaded by the token's subject; it must exist, be
//     active, and not have changed its password after the token was issued.
func Authenticate(cfg config.Config, users *repository.UserRepo, keys *repository.APIKeyRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if raw := utils.ExtractAPIKey(c.Request()); raw != "" {
				if !utils.ValidAPIKeyFormat(raw) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid API key format"})
				}
				key, err := keys.GetActiveByHash(ctx, utils.KeyPrefix(raw), utils.HashAPIKey(raw))
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or inactive API key"})
				}
				if key.Expired(time.Now().UTC()) || !key.AllowsIP(c.RealIP()) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or inactive API key"})
				}
				owner, err := users.GetByID(ctx, key.UserID)
				if err != nil || !owner.IsActive {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or inactive API key"})
				}
				// Usage bookkeeping is best effort; a failed UPDATE must
				// not fail the request.
				_ = keys.Touch(ctx, key.ID)

				c.Set(CtxUser, owner)
				c.Set(CtxUserID, owner.ID)
				c.Set(CtxRole, owner.Role)
				c.Set(CtxAuthMethod, AuthMethodAPIKey)
				c.Set(CtxPermissions, key.Permissions)
				return next(c)
			}

			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "no credentials provided"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.VerifyAccessToken(cfg.AccessSecret, raw)
			if err != nil {
				if err == utils.ErrTokenExpired {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
			}

			user, err := users.GetByID(ctx, claims.UserID)
			if err != nil || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "not authorized"})
			}
			if user.ChangedPasswordAfter(claims.IssuedAt) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "password changed, please reauthenticate"})
			}

			c.Set(CtxUser, user)
			c.Set(CtxUserID, user.ID)
			c.Set(CtxRole, user.Role)
			c.Set(CtxAuthMethod, AuthMethodJWT)
			return next(c)
		}
	}
}
