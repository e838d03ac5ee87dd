package handler

import (
	"errors"
	"net/http"

	"seragon/internal/domain"
	"seragon/internal/logger"
	"seragon/internal/middleware"
	"seragon/internal/models"
	"seragon/internal/repository"
	"seragon/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc       *service.AuthService
	auditRepo *repository.AuditLogRepository
}

func NewAuthHandler(svc *service.AuthService, auditRepo *repository.AuditLogRepository) *AuthHandler {
	return &AuthHandler{svc: svc, auditRepo: auditRepo}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AdminLogin handles POST /api/auth/admin/login for the password-backed admin account.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, tokens, err := h.svc.LoginWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}
	if !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	h.auditLog(c, u.ID, "admin_login")
	c.JSON(http.StatusOK, gin.H{"user": u, "access_token": tokens.AccessToken, "refresh_token": tokens.RefreshToken})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Me handles GET /api/auth/user.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Logout is stateless: clients drop their tokens. Authenticated calls are audited.
func (h *AuthHandler) Logout(c *gin.Context) {
	if uid := middleware.GetUserID(c); uid != "" {
		h.auditLog(c, uid, "logout")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) auditLog(c *gin.Context, userID, action string) {
	writeAudit(c, h.auditRepo, userID, action)
}

func writeAudit(c *gin.Context, repo *repository.AuditLogRepository, userID, action string) {
	if repo == nil {
		return
	}
	err := repo.Create(c.Request.Context(), &models.AuditLog{
		UserID:    &userID,
		Action:    action,
		Resource:  "auth",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		logger.Warn(c, "audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
