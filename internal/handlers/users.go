package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/service"
	"pulse-server/internal/utils"
)

// UserHandler handles staff account management (admin operations).
type UserHandler struct {
	Users *service.UserService
	log   *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, log: log}
}

// CreateUserRequest represents the request body for creating a staff account.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=admin health_worker"`
}

// CreateUser handles creating a staff account.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Users.Create(c.Request.Context(), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
	})
	if errors.Is(err, service.ErrEmailTaken) {
		utils.BadRequest(c, "User with this email already exists")
		return
	}
	if err != nil {
		respondError(c, h.log, err, "", "create user")
		return
	}
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all staff accounts.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "", "fetch users")
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i := range users {
		sanitized[i] = users[i].Sanitize()
	}
	utils.Success(c, "Users fetched successfully", sanitized)
}
