package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/logger"
	"github.com/ammar1510/inbox/internal/models"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
	// This variable will be initialized either from environment
	// variables or explicitly via InitJWTKey function
	jwtKey = []byte(os.Getenv("JWT_SECRET"))

	accessTokenTTL  = 5 * time.Minute
	refreshTokenTTL = 24 * time.Hour

	log = logger.New("auth")
)

// InitJWTKey initializes the JWT key with the provided secret
// This allows for explicit initialization after environment variables are loaded
// or for setting a custom key during testing
func InitJWTKey(key []byte) {
	jwtKey = key
}

// SetTokenTTLs overrides the access and refresh token lifetimes.
// Non-positive values leave the current setting untouched.
func SetTokenTTLs(access, refresh time.Duration) {
	if access > 0 {
		accessTokenTTL = access
	}
	if refresh > 0 {
		refreshTokenTTL = refresh
	}
}

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is returned by the token endpoint
type TokenPair struct {
	Access        string    `json:"access"`
	Refresh       string    `json:"refresh"`
	AccessExpiry  time.Time `json:"access_expiry"`
	RefreshExpiry time.Time `json:"refresh_expiry"`
}

// GenerateToken creates a new access token for a user
func GenerateToken(user *models.User) (string, time.Time, error) {
	return generate(user, TokenTypeAccess, accessTokenTTL)
}

// GenerateRefreshToken creates a long-lived token that can only be
// exchanged for new access tokens
func GenerateRefreshToken(user *models.User) (string, time.Time, error) {
	return generate(user, TokenTypeRefresh, refreshTokenTTL)
}

// GenerateTokenPair issues an access and a refresh token for a user
func GenerateTokenPair(user *models.User) (*TokenPair, error) {
	access, accessExpiry, err := GenerateToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiry, err := GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:        access,
		Refresh:       refresh,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: refreshExpiry,
	}, nil
}

func generate(user *models.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	// Check for nil user
	if user == nil {
		return "", time.Time{}, errors.New("user cannot be nil")
	}

	// Check for zero UUID (missing ID)
	if user.ID == uuid.Nil {
		return "", time.Time{}, errors.New("user ID cannot be empty")
	}

	now := time.Now()
	expirationTime := now.Add(ttl)

	claims := &JWTClaims{
		UserID:    user.ID.String(),
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expirationTime, nil
}

// ValidateToken validates an access token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	return validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns the claims
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return validate(tokenString, TokenTypeRefresh)
}

func validate(tokenString, tokenType string) (*JWTClaims, error) {
	// Safe logging of token preview
	if len(tokenString) > 10 {
		log.Debug("Validating %s token: %s...", tokenType, tokenString[:10])
	} else if len(tokenString) == 0 {
		log.Warn("Validating empty %s token", tokenType)
	}

	claims := &JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Check signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Error("Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})

	if err != nil {
		log.Debug("Token validation error: %v", err)
		return nil, err
	}

	if !token.Valid {
		log.Warn("Token is invalid")
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenType {
		log.Warn("Expected %s token, got %q", tokenType, claims.TokenType)
		return nil, ErrWrongTokenType
	}

	log.Debug("Token validated successfully for user: %s", claims.Username)
	return claims, nil
}

// GetUserIDFromToken extracts the UserID from claims
func GetUserIDFromToken(claims *JWTClaims) (uuid.UUID, error) {
	if claims == nil {
		return uuid.Nil, errors.New("claims cannot be nil")
	}
	return uuid.Parse(claims.UserID)
}
