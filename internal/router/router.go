// Package router wires handlers, guards and shared middleware onto the
// Echo instance.  All API routes live under /api/v1; the health check sits
// at the root for load balancers.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/handler"
	"github.com/admin-dashboard/api/internal/middleware"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// Handlers carries every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	APIKeys       *handler.APIKeyHandler
	Transactions  *handler.TransactionHandler
	Revenue       *handler.RevenueHandler
	Billing       *handler.BillingHandler
	Subscriptions *handler.SubscriptionHandler
	Projects      *handler.ProjectHandler
	Dashboard     *handler.DashboardHandler
}

// Register mounts every route.  rdb may be nil; rate limiting and response
// caching then turn themselves off.
func Register(e *echo.Echo, cfg config.Config, db *sql.DB, rdb *redis.Client, h Handlers, users *repository.UserRepo, keys *repository.APIKeyRepo) {
	e.GET("/health", handler.Health(db))

	api := e.Group("/api/v1")

	// Public auth routes. Rate limited so credential stuffing burns out
	// against the bucket, not against bcrypt.
	auth := api.Group("/auth")
	auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.PUT("/reset-password/:token", h.Auth.ResetPassword)

	// Everything below requires a principal: bearer token or API key.
	authed := api.Group("")
	authed.Use(middleware.Authenticate(cfg, users, keys))

	authed.GET("/auth/me", h.Auth.Me)
	// Revokes every session of the caller; needs only a bearer token.
	authed.POST("/auth/logout-all", h.Auth.LogoutAll)
	authed.PUT("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/auth/sessions", h.Auth.ListSessions)
	authed.DELETE("/auth/sessions/:id", h.Auth.RevokeSession)

	// User management. Listing, creation, deletion and stats are admin
	// only; single-user reads allow the owner.
	usersG := authed.Group("/users")
	usersG.GET("", h.Users.List, middleware.RequireAdmin())
	usersG.POST("", h.Users.Create, middleware.RequireAdmin())
	usersG.GET("/stats", h.Users.Stats, middleware.RequireAdmin())
	usersG.GET("/profile", h.Users.GetProfile)
	usersG.PUT("/profile", h.Users.UpdateProfile)
	usersG.GET("/:id", h.Users.Get, middleware.OwnerOrAdmin("id"))
	usersG.PUT("/:id", h.Users.Update, middleware.RequireAdmin())
	usersG.DELETE("/:id", h.Users.Delete, middleware.RequireAdmin())

	// API keys. Ownership is checked inside the handler so admins can
	// manage everyone's keys through the same routes.
	keysG := authed.Group("/api-keys")
	keysG.POST("", h.APIKeys.Create)
	keysG.GET("", h.APIKeys.List)
	keysG.GET("/:id", h.APIKeys.Get)
	keysG.PUT("/:id", h.APIKeys.Update)
	keysG.POST("/:id/revoke", h.APIKeys.Revoke)
	keysG.DELETE("/:id", h.APIKeys.Delete)

	// Bookkeeping. Reads need the read scope, writes the write scope;
	// JWT admins pass either.
	txG := authed.Group("/transactions")
	txG.GET("", h.Transactions.List, middleware.RequirePermissions(model.PermissionRead))
	txG.POST("", h.Transactions.Create, middleware.RequirePermissions(model.PermissionWrite))

	revG := authed.Group("/revenue")
	revG.GET("", h.Revenue.List, middleware.RequirePermissions(model.PermissionRead))
	revG.GET("/analytics", h.Revenue.Analytics, middleware.RequirePermissions(model.PermissionRead))
	revG.GET("/:id", h.Revenue.Get, middleware.RequirePermissions(model.PermissionRead))
	revG.POST("", h.Revenue.Create, middleware.RequirePermissions(model.PermissionWrite))
	revG.PUT("/:id", h.Revenue.Update, middleware.RequirePermissions(model.PermissionWrite))
	revG.DELETE("/:id", h.Revenue.Delete, middleware.RequirePermissions(model.PermissionDelete))

	// Billing routes are per-user; consultants see their own, admins see
	// anyone's. Mutations stay admin only.
	billG := authed.Group("/billing/:userId", middleware.OwnerOrAdmin("userId"))
	billG.GET("/summary", h.Billing.Summary)
	billG.GET("/invoices", h.Billing.ListInvoices)
	billG.POST("/invoices", h.Billing.CreateInvoice, middleware.RequireAdmin())
	billG.GET("/payment-methods", h.Billing.ListPaymentMethods)
	billG.POST("/payment-methods", h.Billing.AddPaymentMethod)

	subG := authed.Group("/subscriptions/:userId", middleware.OwnerOrAdmin("userId"))
	subG.GET("", h.Subscriptions.Get)
	subG.PUT("", h.Subscriptions.Upsert, middleware.RequireAdmin())

	projG := authed.Group("/projects")
	projG.GET("", h.Projects.List)
	projG.GET("/:id", h.Projects.Get)
	projG.POST("", h.Projects.Create, middleware.RequireAdmin())
	projG.PUT("/:id", h.Projects.Update, middleware.RequireAdmin())
	projG.DELETE("/:id", h.Projects.Delete, middleware.RequireAdmin())

	// Dashboard reads are the hottest queries; cache them in Redis.
	dashG := authed.Group("/dashboard", middleware.RequireAdmin(),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb))
	dashG.GET("/overview", h.Dashboard.Overview)
	dashG.GET("/activities", h.Dashboard.Activities)
	dashG.GET("/stats", h.Dashboard.Stats)
}
