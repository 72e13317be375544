package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/config"
	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/queue"
	"github.com/admin-dashboard/api/internal/repository"
	"github.com/admin-dashboard/api/internal/utils"
)

// resetTokenTTL bounds how long a password reset link stays redeemable.
const resetTokenTTL = 10 * time.Minute

// mailPublisher is the slice of the email publisher the auth handler needs.
// Delivery is fire and forget; the returned error is ignored by callers.
type mailPublisher interface {
	PublishEmailRequested(ctx context.Context, ev queue.EmailRequestedEvent) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	Mailer   mailPublisher
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, sessions *repository.SessionRepo, mailer mailPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions, Mailer: mailer}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// issueTokens signs an access/refresh pair and records the refresh session.
func (h *AuthHandler) issueTokens(ctx context.Context, c echo.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	sess := &model.Session{
		UserID:    u.ID,
		TokenHash: utils.HashToken(refresh.Raw),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		ExpiresAt: refresh.Exp,
	}
	if err := h.Sessions.Store(ctx, sess); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register creates a consultant account and returns tokens immediately.
// Admin accounts are only created through the admin user management
// endpoints, never by self-registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "name, email and password are required")
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
		Role:         model.RoleConsultant,
		IsActive:     true,
	}
	if _, err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "user already exists with this email")
		}
		return fail(c, http.StatusInternalServerError, "create user failed")
	}

	// Welcome mail is best effort.
	_ = h.Mailer.PublishEmailRequested(ctx, queue.EmailRequestedEvent{
		Kind:        queue.EmailKindWelcome,
		To:          u.Email,
		Name:        u.Name,
		From:        h.Cfg.EmailFrom,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})

	resp, err := h.issueTokens(ctx, c, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return created(c, "user registered successfully", resp)
}

// Login verifies credentials and returns a new token pair.  Unknown email
// and wrong password collapse into the same message so the endpoint cannot
// be used to probe for accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.IsActive {
		return fail(c, http.StatusUnauthorized, "account is deactivated")
	}

	now := time.Now().UTC()
	_ = h.Users.SetLastLogin(ctx, u.ID, now) // cosmetic, failure is not fatal
	u.LastLogin = &now

	resp, err := h.issueTokens(ctx, c, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return okMsg(c, "login successful", resp)
}

// Refresh validates a refresh token against both its signature and the
// server-side session, revokes the old session and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	raw := strings.TrimSpace(req.RefreshToken)

	claims, err := utils.VerifyRefreshToken(h.Cfg.RefreshSecret, raw)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid or expired refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashToken(raw)
	userID, err := h.Sessions.Validate(ctx, hash)
	if err != nil || userID != claims.UserID {
		return fail(c, http.StatusUnauthorized, "invalid or expired refresh token")
	}
	_ = h.Sessions.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return fail(c, http.StatusUnauthorized, "invalid or expired refresh token")
	}

	resp, err := h.issueTokens(ctx, c, u)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "issue tokens failed")
	}
	return okMsg(c, "token refreshed successfully", resp)
}

// Logout revokes the single session named by the refresh token in the
// body.  The route is public: a client whose access token already expired
// can still end its session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refresh_token required")
	}
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashToken(raw)
	if _, err := h.Sessions.Validate(ctx, hash); err != nil {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	if err := h.Sessions.RevokeByHash(ctx, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session of the authenticated caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.RevokeAllForUser(ctx, uid); err != nil {
		return fail(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated principal's profile.  The password hash and
// reset token fields never appear in the response.
func (h *AuthHandler) Me(c echo.Context) error {
	u, okc := currentUser(c)
	if !okc {
		return fail(c, http.StatusUnauthorized, "not authenticated")
	}
	return ok(c, echo.Map{"user": profileView(u)})
}

// ListSessions lists the principal's sessions, newest first.
func (h *AuthHandler) ListSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Sessions.ListByUser(ctx, currentUserID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, echo.Map{
			"id":         s.ID,
			"ip_address": s.IPAddress,
			"user_agent": s.UserAgent,
			"expires_at": s.ExpiresAt,
			"revoked_at": s.RevokedAt,
			"created_at": s.CreatedAt,
		})
	}
	return ok(c, echo.Map{"sessions": out})
}

// RevokeSession revokes one of the principal's sessions by ID.  Admins may
// revoke anyone's session.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "session not found")
	}
	if sess.UserID != currentUserID(c) && !isAdmin(c) {
		return fail(c, http.StatusForbidden, "not authorized to access this resource")
	}
	if err := h.Sessions.RevokeByHash(ctx, sess.TokenHash); err != nil {
		return fail(c, http.StatusInternalServerError, "revoke failed")
	}
	return okMsg(c, "session revoked successfully", nil)
}

// ForgotPassword issues a reset token and queues the reset email.  The
// response does not reveal whether the address exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return fail(c, http.StatusBadRequest, "email is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		// Same response as success; do not leak which emails are registered.
		return okMsg(c, "password reset email sent if the account exists", nil)
	}
	tok, err := utils.NewResetToken()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "reset failed")
	}
	if err := h.Users.SetResetToken(ctx, u.ID, tok.Hash, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		return fail(c, http.StatusInternalServerError, "reset failed")
	}
	_ = h.Mailer.PublishEmailRequested(ctx, queue.EmailRequestedEvent{
		Kind:        queue.EmailKindPasswordReset,
		To:          u.Email,
		Name:        u.Name,
		From:        h.Cfg.EmailFrom,
		ResetURL:    h.Cfg.FrontendURL + "/reset-password/" + tok.Raw,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return okMsg(c, "password reset email sent if the account exists", nil)
}

// ResetPassword redeems a reset token from the emailed link and stores the
// new password.  All sessions are revoked so stolen refresh tokens die
// with the old password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return fail(c, http.StatusBadRequest, "password is required")
	}
	if violations := utils.ValidatePasswordStrength(req.Password); len(violations) > 0 {
		return fail(c, http.StatusBadRequest, strings.Join(violations, "; "))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	u, err := h.Users.GetByResetToken(ctx, utils.HashResetToken(c.Param("token")), now)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid or expired reset token")
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "reset failed")
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash, now); err != nil {
		return fail(c, http.StatusInternalServerError, "reset failed")
	}
	_ = h.Sessions.RevokeAllForUser(ctx, u.ID)
	return okMsg(c, "password reset successfully", nil)
}

// ChangePassword lets an authenticated user rotate their password.  The
// current password is required; all sessions are revoked afterwards.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return fail(c, http.StatusBadRequest, "current_password and new_password are required")
	}
	if violations := utils.ValidatePasswordStrength(req.NewPassword); len(violations) > 0 {
		return fail(c, http.StatusBadRequest, strings.Join(violations, "; "))
	}
	u, okc := currentUser(c)
	if !okc {
		return fail(c, http.StatusUnauthorized, "not authenticated")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusUnauthorized, "current password is incorrect")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "change failed")
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash, time.Now().UTC()); err != nil {
		return fail(c, http.StatusInternalServerError, "change failed")
	}
	_ = h.Sessions.RevokeAllForUser(ctx, u.ID)
	return okMsg(c, "password changed successfully", nil)
}
