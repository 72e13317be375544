package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/utils"
)

// APIKeyHandler serves API key issuance and management.  A raw key leaves
// the server exactly once, in the Create response; every later read shows
// the masked form.
type APIKeyHandler struct {
	Cfg  config.Config
	Keys *repository.APIKeyRepo
}

func NewAPIKeyHandler(cfg config.Config, keys *repository.APIKeyRepo) *APIKeyHandler {
	return &APIKeyHandler{Cfg: cfg, Keys: keys}
}

type createKeyReq struct {
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IPAllowlist []string   `json:"ip_allowlist"`
}

type updateKeyReq struct {
	Name        *string    `json:"name"`
	Permissions []string   `json:"permissions"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IPAllowlist []string   `json:"ip_allowlist"`
}

// keyView renders a key for listings.  The stored hash never leaves the
// server; the masked form is reconstructed from the prefix.
func keyView(k model.APIKey) echo.Map {
	return echo.Map{
		"id":           k.ID,
		"user_id":      k.UserID,
		"name":         k.Name,
		"prefix":       k.Prefix,
		"masked_key":   k.Prefix + "_" + strings.Repeat("*", 32),
		"permissions":  k.Permissions,
		"is_active":    k.IsActive,
		"expires_at":   k.ExpiresAt,
		"ip_allowlist": k.IPAllowlist,
		"last_used_at": k.LastUsedAt,
		"usage_count":  k.UsageCount,
		"created_at":   k.CreatedAt,
		"updated_at":   k.UpdatedAt,
	}
}

func validPermissions(perms []string) bool {
	for _, p := range perms {
		switch p {
		case model.PermissionRead, model.PermissionWrite, model.PermissionDelete, model.PermissionAdmin:
		default:
			return false
		}
	}
	return true
}

// Create issues a new key for the caller.  The response carries the only
// copy of the raw key the server will ever produce.
func (h *APIKeyHandler) Create(c echo.Context) error {
	var req createKeyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	if len(req.Permissions) == 0 {
		req.Permissions = []string{model.PermissionRead}
	}
	if !validPermissions(req.Permissions) {
		return fail(c, http.StatusBadRequest, "invalid permissions")
	}
	// Only admins can mint keys carrying the blanket admin scope.
	if model.HasPermissions(req.Permissions, model.PermissionAdmin) && !isAdmin(c) {
		return fail(c, http.StatusForbidden, "admin permission requires the admin role")
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now().UTC()) {
		return fail(c, http.StatusBadRequest, "expires_at must be in the future")
	}

	gen, err := utils.GenerateAPIKey(h.Cfg.Env)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "key generation failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k := model.APIKey{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Prefix:      gen.Prefix,
		HashedKey:   gen.HashedKey,
		Permissions: req.Permissions,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		IPAllowlist: req.IPAllowlist,
	}
	if err := h.Keys.Create(ctx, &k); err != nil {
		return fail(c, http.StatusInternalServerError, "create key failed")
	}

	view := keyView(k)
	view["key"] = gen.Raw // shown once, never retrievable again
	// Only here is the raw key around to build the full first-and-last mask;
	// listings fall back to the prefix form.
	view["masked_key"] = utils.MaskAPIKey(gen.Raw)
	return created(c, "api key created successfully", echo.Map{"api_key": view})
}

// List returns the caller's keys, or every key when an admin passes
// ?all=true.
func (h *APIKeyHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	f := repository.APIKeyFilter{
		UserID:   currentUserID(c),
		IsActive: boolFilter(c, "is_active"),
		Page:     page,
		Limit:    limit,
	}
	if c.QueryParam("all") == "true" && isAdmin(c) {
		f.UserID = 0
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	keys, err := h.Keys.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	total, err := h.Keys.Count(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyView(k))
	}
	return ok(c, echo.Map{"api_keys": out, "pagination": newPageMeta(page, limit, total)})
}

// owned loads a key and enforces that the caller owns it or is an admin.
func (h *APIKeyHandler) owned(ctx context.Context, c echo.Context) (model.APIKey, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return model.APIKey{}, repository.ErrNotFound
	}
	k, err := h.Keys.GetByID(ctx, id)
	if err != nil {
		return model.APIKey{}, err
	}
	if k.UserID != currentUserID(c) && !isAdmin(c) {
		return model.APIKey{}, repository.ErrForbidden
	}
	return k, nil
}

// Get returns one key, masked.
func (h *APIKeyHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.owned(ctx, c)
	if err != nil {
		return repoFail(c, err, "api key not found")
	}
	return ok(c, echo.Map{"api_key": keyView(k)})
}

// Update edits name, permissions, expiry, allowlist or the active flag.
func (h *APIKeyHandler) Update(c echo.Context) error {
	var req updateKeyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Permissions != nil && !validPermissions(req.Permissions) {
		return fail(c, http.StatusBadRequest, "invalid permissions")
	}
	if req.Permissions != nil && model.HasPermissions(req.Permissions, model.PermissionAdmin) && !isAdmin(c) {
		return fail(c, http.StatusForbidden, "admin permission requires the admin role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.owned(ctx, c)
	if err != nil {
		return repoFail(c, err, "api key not found")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fail(c, http.StatusBadRequest, "name cannot be empty")
		}
		k.Name = strings.TrimSpace(*req.Name)
	}
	if req.Permissions != nil {
		k.Permissions = req.Permissions
	}
	if req.IsActive != nil {
		k.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		k.ExpiresAt = req.ExpiresAt
	}
	if req.IPAllowlist != nil {
		k.IPAllowlist = req.IPAllowlist
	}
	if err := h.Keys.Update(ctx, &k); err != nil {
		return repoFail(c, err, "api key not found")
	}
	return okMsg(c, "api key updated successfully", echo.Map{"api_key": keyView(k)})
}

// Revoke soft-disables a key without deleting its audit trail.
func (h *APIKeyHandler) Revoke(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.owned(ctx, c)
	if err != nil {
		return repoFail(c, err, "api key not found")
	}
	if err := h.Keys.SetActive(ctx, k.ID, false); err != nil {
		return repoFail(c, err, "api key not found")
	}
	return okMsg(c, "api key revoked successfully", nil)
}

// Delete removes a key row permanently.
func (h *APIKeyHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	k, err := h.owned(ctx, c)
	if err != nil {
		return repoFail(c, err, "api key not found")
	}
	if err := h.Keys.Delete(ctx, k.ID); err != nil {
		return repoFail(c, err, "api key not found")
	}
	return okMsg(c, "api key deleted successfully", nil)
}
