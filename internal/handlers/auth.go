package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/config"
	"pulse-server/internal/middleware"
	"pulse-server/internal/models"
	"pulse-server/internal/store"
	"pulse-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Store store.Store
	Cfg   *config.Config
	log   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st store.Store, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Store: st, Cfg: cfg, log: log}
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken string               `json:"accessToken"`
	ExpiresAt   time.Time            `json:"expiresAt"`
	User        models.UserSanitized `json:"user"`
}

// Login handles staff login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
			return
		}
		respondError(c, h.log, err, "", "look up user")
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	token, expiresAt, err := utils.GenerateToken(user, h.Cfg)
	if err != nil {
		respondError(c, h.log, err, "", "generate token")
		return
	}

	h.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user.Sanitize(),
	})
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "User profile not found", "fetch profile")
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}
