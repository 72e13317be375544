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

// UserHandler serves the admin user management endpoints plus the
// self-service profile routes.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, sessions *repository.SessionRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

// profileView is the JSON shape of a user everywhere in the API.  The
// password hash and reset token columns are deliberately absent.
func profileView(u model.User) echo.Map {
	return echo.Map{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"bio":        u.Bio,
		"phone":      u.Phone,
		"location":   u.Location,
		"company":    u.Company,
		"is_active":  u.IsActive,
		"last_login": u.LastLogin,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type updateProfileReq struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	Company  *string `json:"company"`
}

// Create lets an admin provision a user with any role, active immediately.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, email and password are required")
	}
	if req.Role == "" {
		req.Role = model.RoleConsultant
	}
	if !model.ValidRole(req.Role) {
		return fail(c, http.StatusBadRequest, "invalid role")
	}
	if violations := utils.ValidatePasswordStrength(req.Password); len(violations) > 0 {
		return fail(c, http.StatusBadRequest, strings.Join(violations, "; "))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "create user failed")
	}
	u := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if _, err := h.Users.Create(ctx, &u); err != nil {
		return repoFail(c, err, "user not found")
	}
	return created(c, "user created successfully", echo.Map{"user": profileView(u)})
}

// List returns a paginated, filterable user listing for admins.
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	f := repository.UserFilter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Role:     c.QueryParam("role"),
		IsActive: boolFilter(c, "is_active"),
		Page:     page,
		Limit:    limit,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	total, err := h.Users.Count(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, profileView(u))
	}
	return ok(c, echo.Map{"users": out, "pagination": newPageMeta(page, limit, total)})
}

// Get returns a single user.  Admins can read anyone; a consultant can
// only read their own record (enforced by the OwnerOrAdmin middleware).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "user not found")
	}
	return ok(c, echo.Map{"user": profileView(u)})
}

// Update applies admin edits to name, email, role and active flag.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Role != nil && !model.ValidRole(*req.Role) {
		return fail(c, http.StatusBadRequest, "invalid role")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "user not found")
	}
	// An admin may not demote or deactivate themselves; it is too easy to
	// lock the last admin out of the system.
	if id == currentUserID(c) {
		if req.Role != nil && *req.Role != u.Role {
			return fail(c, http.StatusBadRequest, "cannot change your own role")
		}
		if req.IsActive != nil && !*req.IsActive {
			return fail(c, http.StatusBadRequest, "cannot deactivate your own account")
		}
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if err := h.Users.Update(ctx, &u); err != nil {
		return repoFail(c, err, "user not found")
	}
	return okMsg(c, "user updated successfully", echo.Map{"user": profileView(u)})
}

// Delete removes a user permanently and revokes all their sessions.
// Self-delete is rejected.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	if id == currentUserID(c) {
		return fail(c, http.StatusBadRequest, "cannot delete your own account")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return repoFail(c, err, "user not found")
	}
	_ = h.Sessions.RevokeAllForUser(ctx, id)
	return okMsg(c, "user deleted successfully", nil)
}

// Stats returns aggregate user counts for the admin dashboard.
func (h *UserHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	total, err := h.Users.Count(ctx, repository.UserFilter{})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	active := true
	activeCount, err := h.Users.Count(ctx, repository.UserFilter{IsActive: &active})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	byRole, err := h.Users.CountByRole(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	newThisMonth, err := h.Users.CountCreatedBetween(ctx, monthStart, now.Add(time.Second))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}

	return ok(c, echo.Map{
		"total":          total,
		"active":         activeCount,
		"inactive":       total - activeCount,
		"by_role":        byRole,
		"new_this_month": newThisMonth,
	})
}

// GetProfile returns the caller's own record.
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, currentUserID(c))
	if err != nil {
		return repoFail(c, err, "user not found")
	}
	return ok(c, echo.Map{"user": profileView(u)})
}

// UpdateProfile applies the caller's edits to the free-form profile
// fields.  Role, email and active flag are admin territory.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, currentUserID(c))
	if err != nil {
		return repoFail(c, err, "user not found")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fail(c, http.StatusBadRequest, "name cannot be empty")
		}
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Location != nil {
		u.Location = *req.Location
	}
	if req.Company != nil {
		u.Company = *req.Company
	}
	if err := h.Users.UpdateProfile(ctx, &u); err != nil {
		return repoFail(c, err, "user not found")
	}
	return okMsg(c, "profile updated successfully", echo.Map{"user": profileView(u)})
}
