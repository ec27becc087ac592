package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/service"
)

// AuthHandler handles registration and token routes
type AuthHandler struct {
	Users *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindingError(err))
		return
	}

	if _, err := h.Users.Register(c.Request.Context(), input.Username, input.Email, input.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully."})
}

// Token exchanges credentials for an access/refresh pair
func (h *AuthHandler) Token(c *gin.Context) {
	var input models.UserLogin
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindingError(err))
		return
	}

	_, pair, err := h.Users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// TokenRefresh issues a new access token from a refresh token
func (h *AuthHandler) TokenRefresh(c *gin.Context) {
	var input models.TokenRefresh
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindingError(err))
		return
	}

	token, expiry, err := h.Users.Refresh(c.Request.Context(), input.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": token, "access_expiry": expiry})
}

// Protected greets the authenticated caller
func (h *AuthHandler) Protected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, " + c.GetString(usernameKey) + ". You are authenticated"})
}
