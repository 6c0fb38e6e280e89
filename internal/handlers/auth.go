package handlers

import (
	"github.com/atelierhq/atelier/backend/internal/config"
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/internal/utils"
	"github.com/atelierhq/atelier/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService *services.UserService
	jwtCfg      *config.JWTConfig
}

func NewAuthHandler(userService *services.UserService, jwtCfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{userService: userService, jwtCfg: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.GetByUsername(req.Username)
	if err != nil || !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	token, err := utils.GenerateToken(user.ID, user.Username, role, h.jwtCfg.ExpireHour)
	if err != nil {
		response.ServerError(c, "failed to issue token")
		return
	}

	h.userService.TouchLastLogin(user.ID)
	response.Success(c, LoginResponse{Token: token, User: user})
}

// Signup registers a new user
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Signup(&req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, user)
}

// Refresh issues a fresh token for the already-authenticated caller
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, err := h.userService.GetByID(middleware.GetUserID(c))
	if err != nil || !user.IsActive {
		response.Unauthorized(c, "account no longer active")
		return
	}

	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	token, err := utils.GenerateToken(user.ID, user.Username, role, h.jwtCfg.ExpireHour)
	if err != nil {
		response.ServerError(c, "failed to issue token")
		return
	}
	response.Success(c, gin.H{"token": token})
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.GetByID(middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}
