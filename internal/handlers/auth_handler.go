package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/logger"
	"boekhouden/internal/middleware"
)

// webActor is the subject of every web token. There is one user.
const webActor = "owner"

// AuthHandler handles the web login.
type AuthHandler struct {
	passwordHash string
	secret       []byte
	expiry       time.Duration
}

// NewAuthHandler creates a new AuthHandler. passwordHash is a bcrypt hash.
func NewAuthHandler(passwordHash string, secret []byte, expiry time.Duration) *AuthHandler {
	return &AuthHandler{passwordHash: passwordHash, secret: secret, expiry: expiry}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Password string `json:"password" binding:"required,max=128"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login handles the web login
// @Summary     Login
// @Description Check the configured password and issue an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Password"
// @Success     200 {object} AuthResponse "Token issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if !middleware.CheckPassword(h.passwordHash, req.Password) {
		logger.Get().Warnw("failed login", "client_ip", c.ClientIP())
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateAccessToken(h.secret, webActor, h.expiry)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	expiry := h.expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	c.JSON(http.StatusOK, AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiry.Seconds()),
	})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
