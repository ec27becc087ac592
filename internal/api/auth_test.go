package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/inbox/internal/auth"
	"github.com/ammar1510/inbox/internal/models"
)

// TestRegister tests user registration endpoint
func TestRegister(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name       string
		input      models.UserRegistration
		wantStatus int
		wantFields []string
	}{
		{
			name:       "valid registration",
			input:      models.UserRegistration{Username: "alice", Email: "a@x.com", Password: "secret1"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate username",
			input:      models.UserRegistration{Username: "alice", Email: "other@x.com", Password: "secret2"},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"username"},
		},
		{
			name:       "duplicate email",
			input:      models.UserRegistration{Username: "alicia", Email: "a@x.com", Password: "secret2"},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"email"},
		},
		{
			name:       "invalid input",
			input:      models.UserRegistration{Username: "", Email: "invalid-email", Password: "123"},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"username", "email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/register", "", tt.input)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantFields == nil {
				body := decode[map[string]string](t, w)
				assert.NotEmpty(t, body["message"])
				return
			}

			body := decode[errorBody](t, w)
			for _, f := range tt.wantFields {
				assert.Contains(t, body.Fields, f)
			}
		})
	}

	assert.Equal(t, 1, env.db.UserCount())
}

func TestRegisterMalformedBody(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/register", "", "just a string")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.db.UserCount())
}

// TestToken tests the credential exchange
func TestToken(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	tests := []struct {
		name       string
		input      any
		wantStatus int
	}{
		{name: "valid credentials", input: models.UserLogin{Username: "alice", Password: "secret1"}, wantStatus: http.StatusOK},
		{name: "wrong password", input: models.UserLogin{Username: "alice", Password: "nope-nope"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", input: models.UserLogin{Username: "bob", Password: "secret1"}, wantStatus: http.StatusUnauthorized},
		{name: "missing fields", input: gin.H{"username": "alice"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/token", "", tt.input)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusOK {
				pair := decode[auth.TokenPair](t, w)
				assert.NotEmpty(t, pair.Access)
				assert.NotEmpty(t, pair.Refresh)
				assert.True(t, pair.AccessExpiry.After(time.Now()))
			}
		})
	}
}

func TestTokenRefresh(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doJSON(t, http.MethodPost, "/api/token", "", models.UserLogin{Username: "alice", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[auth.TokenPair](t, w)

	w = env.doJSON(t, http.MethodPost, "/api/token/refresh", "", models.TokenRefresh{Refresh: pair.Refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	access, _ := body["access"].(string)
	require.NotEmpty(t, access)

	// The new access token works on protected routes.
	w = env.doJSON(t, http.MethodGet, "/api/protected", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for name, token := range map[string]string{
		"access token instead of refresh": pair.Access,
		"garbage":                         "x.y.z",
	} {
		t.Run(name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/token/refresh", "", models.TokenRefresh{Refresh: token})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w = env.doJSON(t, http.MethodPost, "/api/token/refresh", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtected(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doJSON(t, http.MethodGet, "/api/protected", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello, alice. You are authenticated", decode[map[string]string](t, w)["message"])

	w = env.doJSON(t, http.MethodGet, "/api/protected", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stranger, _, err := auth.GenerateToken(&models.User{ID: uuid.New(), Username: "mallory"})
	require.NoError(t, err)
	w = env.doJSON(t, http.MethodGet, "/api/protected", stranger, nil)
	assert.Equal(t, http.StatusOK, w.Code, "the greeting only needs a valid token")
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.db.Fail["Ping"] = assert.AnError
	w = env.doJSON(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
