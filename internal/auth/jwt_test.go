package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/inbox/internal/models"
)

func TestInitJWTKey(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")

	InitJWTKey(testKey)

	user := &models.User{
		ID:       uuid.New(),
		Username: "testuser",
		Email:    "test@example.com",
	}

	token, _, err := GenerateToken(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestGenerateToken(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")
	InitJWTKey(testKey)

	tests := []struct {
		name    string
		user    *models.User
		wantErr bool
	}{
		{
			name: "valid user",
			user: &models.User{
				ID:       uuid.New(),
				Username: "testuser",
				Email:    "test@example.com",
			},
			wantErr: false,
		},
		{
			name: "missing user ID",
			user: &models.User{
				Username: "testuser",
				Email:    "test@example.com",
			},
			wantErr: true,
		},
		{
			name:    "nil user",
			user:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiry, err := GenerateToken(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)

				assert.True(t, expiry.After(time.Now()))

				claims, err := ValidateToken(token)
				assert.NoError(t, err)
				assert.NotNil(t, claims)
				assert.Equal(t, tt.user.ID.String(), claims.UserID)
				assert.Equal(t, tt.user.Username, claims.Username)
				assert.Equal(t, TokenTypeAccess, claims.TokenType)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")
	InitJWTKey(testKey)

	validUser := &models.User{
		ID:       uuid.New(),
		Username: "testuser",
		Email:    "test@example.com",
	}
	validToken, _, err := GenerateToken(validUser)
	assert.NoError(t, err)

	refreshToken, _, err := GenerateRefreshToken(validUser)
	assert.NoError(t, err)

	InitJWTKey([]byte("some-other-key"))
	foreignToken, _, err := GenerateToken(validUser)
	assert.NoError(t, err)
	InitJWTKey(testKey)

	tests := []struct {
		name        string
		tokenString string
		wantErr     bool
	}{
		{
			name:        "valid token",
			tokenString: validToken,
			wantErr:     false,
		},
		{
			name:        "empty token",
			tokenString: "",
			wantErr:     true,
		},
		{
			name:        "invalid token format",
			tokenString: "not.a.valid.jwt.token",
			wantErr:     true,
		},
		{
			name:        "tampered token",
			tokenString: validToken + "tampered",
			wantErr:     true,
		},
		{
			name:        "refresh token used as access token",
			tokenString: refreshToken,
			wantErr:     true,
		},
		{
			name:        "signed with another key",
			tokenString: foreignToken,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.tokenString)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
				assert.Equal(t, validUser.ID.String(), claims.UserID)
				assert.Equal(t, validUser.Username, claims.Username)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	InitJWTKey([]byte("test-secret-key-for-jwt-tests"))

	user := &models.User{ID: uuid.New(), Username: "testuser"}
	token, _, err := generate(user, TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestGenerateTokenPair(t *testing.T) {
	InitJWTKey([]byte("test-secret-key-for-jwt-tests"))
	SetTokenTTLs(2*time.Minute, time.Hour)
	t.Cleanup(func() { SetTokenTTLs(5*time.Minute, 24*time.Hour) })

	user := &models.User{ID: uuid.New(), Username: "alice"}

	pair, err := GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)
	assert.True(t, pair.RefreshExpiry.After(pair.AccessExpiry))

	refreshClaims, err := ValidateRefreshToken(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), refreshClaims.UserID)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)

	_, err = ValidateRefreshToken(pair.Access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = GenerateTokenPair(nil)
	assert.Error(t, err)
}

func TestGetUserIDFromToken(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")
	InitJWTKey(testKey)

	validUser := &models.User{
		ID:       uuid.New(),
		Username: "testuser",
		Email:    "test@example.com",
	}
	validToken, _, err := GenerateToken(validUser)
	assert.NoError(t, err)

	validClaims, err := ValidateToken(validToken)
	assert.NoError(t, err)

	invalidClaims := &JWTClaims{
		UserID:   "not-a-valid-uuid",
		Username: "testuser",
	}

	tests := []struct {
		name    string
		claims  *JWTClaims
		wantErr bool
	}{
		{
			name:    "valid claims",
			claims:  validClaims,
			wantErr: false,
		},
		{
			name:    "invalid UUID format",
			claims:  invalidClaims,
			wantErr: true,
		},
		{
			name:    "nil claims",
			claims:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := GetUserIDFromToken(tt.claims)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, uuid.Nil, userID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, validUser.ID, userID)
			}
		})
	}
}
