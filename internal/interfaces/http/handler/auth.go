package handler

import (
	"strings"
	"time"

	identityapp "github.com/estatecrm/backend/internal/application/identity"
	"github.com/estatecrm/backend/internal/domain/identity"
	"github.com/estatecrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes login, logout, registration and session validation.
type AuthHandler struct {
	Base
	auth *identityapp.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(base Base, auth *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{Base: base, auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID      string `json:"_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    string `json:"role"`
	Enabled bool   `json:"enabled"`
}

type loginResponse struct {
	userResponse
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newUserResponse(u *identity.User) userResponse {
	return userResponse{
		ID:      u.ID.String(),
		Email:   u.Email,
		Name:    u.Name,
		Surname: u.Surname,
		Role:    string(u.Role),
		Enabled: u.Enabled,
	}
}

// Login authenticates the email/password pair and issues a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Email and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.ok(c, loginResponse{
		userResponse: newUserResponse(result.User),
		Token:        result.Token,
		ExpiresAt:    result.ExpiresAt,
	}, "Successfully login user")
}

// Register creates a new employee account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Email, name, surname and password are required")
		return
	}

	user, err := h.auth.Register(c.Request.Context(),
		strings.TrimSpace(req.Email), strings.TrimSpace(req.Name), strings.TrimSpace(req.Surname), req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.logger.Info("User registered via API", zap.String("user_id", user.ID.String()))
	h.ok(c, newUserResponse(user), "Successfully registered user")
}

// Logout revokes exactly the presented session token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		h.badRequest(c, "No authentication token provided")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.handleError(c, err)
		return
	}

	h.ok(c, nil, "Successfully logout user")
}

// Validate returns the principal behind the current session.
func (h *AuthHandler) Validate(c *gin.Context) {
	user := middleware.GetPrincipal(c)
	if user == nil {
		// Only reachable with the insecure local bypass active.
		h.ok(c, nil, "Session valid")
		return
	}
	h.ok(c, newUserResponse(user), "Session valid")
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
