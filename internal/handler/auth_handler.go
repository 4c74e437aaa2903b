package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type EmailLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse отдаётся /me и /validate
type AuthResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Roles    []string `json:"roles"`
	Token    string   `json:"token"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.service.Register(c.Request.Context(), &models.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		h.logger.Warn("Registration failed", zap.String("username", req.Username), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pair)
}

// Login godoc
// @Summary Log in with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.service.Login(c.Request.Context(), &models.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.loginFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// LoginWithEmail godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailLoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Router /api/auth/login/email [post]
func (h *AuthHandler) LoginWithEmail(c *gin.Context) {
	var req EmailLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.service.LoginWithEmail(c.Request.Context(), &models.EmailLoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.loginFailed(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// loginFailed не различает неизвестного пользователя и неверный пароль
func (h *AuthHandler) loginFailed(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrUnauthorized) {
		h.logger.Info("Login rejected", zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "invalid_credentials", "Invalid credentials")
		return
	}
	respondError(c, err)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	h.currentUser(c, "User retrieved successfully")
}

// Validate godoc
// @Summary Validate an access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/validate [post]
func (h *AuthHandler) Validate(c *gin.Context) {
	h.currentUser(c, "Token is valid")
}

func (h *AuthHandler) currentUser(c *gin.Context, message string) {
	user, err := h.service.CurrentUser(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// токен валиден, но пользователя уже нет
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "User no longer exists")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Success:  true,
		Message:  message,
		Username: user.Username,
		Role:     user.Role,
		Roles:    user.Roles,
		Token:    user.Token,
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer <refresh token>"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Authorization header must be 'Bearer <refresh token>'")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), strings.TrimSpace(header[len("Bearer "):]))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrUnauthorized) {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid refresh token")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; the client discards them.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}
