package auth

import (
	"errors"
	"fmt"
	"time"

	"go_sitebuilder/api/v1/middleware"
	"go_sitebuilder/internal/auth"
	"go_sitebuilder/internal/config"
	"go_sitebuilder/internal/httpx"
	"go_sitebuilder/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents login response data
type LoginResponse struct {
	Token    string   `json:"token"`
	ExpireAt string   `json:"expireAt"`
	User     UserInfo `json:"user"`
}

// UserInfo represents user information in response
type UserInfo struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"companyId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// Handler serves login, logout and me
type Handler struct {
	db       *gorm.DB
	sessions auth.SessionStore
	jwt      config.JWTConfig
	session  config.SessionConfig
}

// NewHandler creates the auth handler
func NewHandler(db *gorm.DB, sessions auth.SessionStore, cfg *config.Config) *Handler {
	return &Handler{db: db, sessions: sessions, jwt: cfg.JWT, session: cfg.Session}
}

func attemptKey(username string) string {
	return "login:" + model.NormalizeUsername(username)
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request body"))
		return
	}
	ctx := c.Request.Context()
	key := attemptKey(req.Username)
	window := time.Duration(h.session.LockoutMinutes) * time.Minute

	// Locked out until the window passes, whatever the password
	attempts, err := h.sessions.Attempts(ctx, key)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("session store error", err))
		return
	}
	if h.session.MaxLoginAttempts > 0 && attempts >= h.session.MaxLoginAttempts {
		httpx.FailErr(c, httpx.ErrTooManyRequests("too many failed login attempts, try again later"))
		return
	}

	// Query user by username
	var user model.User
	if err := h.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = auth.CompareDummy(req.Password)
			h.failLogin(c, key, window)
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("database error", err))
		return
	}

	// Verify password
	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		h.failLogin(c, key, window)
		return
	}

	// Check user status
	if !user.Active() {
		httpx.FailErr(c, httpx.ErrForbidden("user is inactive"))
		return
	}

	if err := h.sessions.ResetAttempts(ctx, key); err != nil {
		logrus.WithError(err).Warn("failed to reset login attempts")
	}

	// Session first, token carries its id
	expireAt := time.Now().Add(time.Duration(h.jwt.ExpireMinutes) * time.Minute)
	session := auth.Session{ID: uuid.NewString(), UID: user.ID, CompanyID: user.CompanyID, ExpiresAt: expireAt}
	if err := h.sessions.Create(ctx, session); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to create session", err))
		return
	}

	token, err := auth.GenerateToken(auth.TokenSpec{
		UID:       user.ID,
		CompanyID: user.CompanyID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: session.ID,
		ExpireAt:  expireAt,
		Issuer:    h.jwt.Issuer,
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate token", err))
		return
	}

	httpx.OK(c, LoginResponse{
		Token:    token,
		ExpireAt: expireAt.Format(time.RFC3339),
		User: UserInfo{
			ID:        user.ID,
			CompanyID: user.CompanyID,
			Username:  user.Username,
			Role:      user.Role,
		},
	})
}

// failLogin counts a failed attempt; the attempt that reaches the limit is already 429
func (h *Handler) failLogin(c *gin.Context, key string, window time.Duration) {
	n, err := h.sessions.IncrAttempts(c.Request.Context(), key, window)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("session store error", err))
		return
	}
	if h.session.MaxLoginAttempts > 0 && n >= h.session.MaxLoginAttempts {
		httpx.FailErr(c, httpx.ErrTooManyRequests(fmt.Sprintf("too many failed login attempts, locked for %d minutes", h.session.LockoutMinutes)))
		return
	}
	// User not found or wrong password - return same error for security
	httpx.FailErr(c, httpx.ErrInvalidToken("invalid credentials"))
}

// Logout revokes the caller's session
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), c.GetString(middleware.CtxSessionID)); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to revoke session", err))
		return
	}
	httpx.OKMsg(c, "logged out", nil)
}

// Me returns current user information
func (h *Handler) Me(c *gin.Context) {
	httpx.OK(c, gin.H{
		"uid":       c.GetInt(middleware.CtxUID),
		"companyId": c.GetInt(middleware.CtxCompanyID),
		"username":  c.GetString(middleware.CtxUsername),
		"role":      c.GetString(middleware.CtxRole),
	})
}
