package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/storage"
)

type profileUpdateResponse struct {
	Message string              `json:"message"`
	Data    models.UserResponse `json:"data"`
}

// mockStore is a testify mock of storage.ObjectStore
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return m.Called(ctx, key, body, contentType).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)
	alice, aliceToken := env.registerAndLogin(t, "alice", "a@x.com", "secret1")
	bob, _ := env.registerAndLogin(t, "bob", "b@x.com", "secret2")
	env.db.AddSystemUser("admin", "admin@x.com")

	w := env.doJSON(t, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	users := decode[[]models.UserResponse](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)
	assert.Equal(t, "bob", users[0].Username)
	assert.Nil(t, users[0].AvatarURL)
	for _, u := range users {
		assert.NotEqual(t, alice.ID, u.ID)
	}

	w = env.doJSON(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetProfile(t *testing.T) {
	env := setupTestEnv(t)
	alice, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doJSON(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	profile := decode[models.UserResponse](t, w)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Nil(t, profile.Avatar)
	assert.Nil(t, profile.AvatarURL)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUpdateProfileAvatarLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	alice, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic.png", pngData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	first := decode[profileUpdateResponse](t, w)
	assert.Equal(t, "Profile updated successfully", first.Message)
	require.NotNil(t, first.Data.Avatar)
	require.NotNil(t, first.Data.AvatarURL)
	firstKey := storage.AvatarKey(alice.ID, "pic.png")
	assert.Equal(t, firstKey, *first.Data.Avatar)
	assert.Equal(t, mediaBase+firstKey, *first.Data.AvatarURL)

	w = env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic2.png", pngData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	second := decode[profileUpdateResponse](t, w)
	require.NotNil(t, second.Data.AvatarURL)
	assert.True(t, strings.HasSuffix(*second.Data.AvatarURL, "/pic2.png"))
	assert.Equal(t, []string{storage.AvatarKey(alice.ID, "pic2.png")}, env.store.Keys())
	assert.Contains(t, env.store.Deleted(), firstKey)

	w = env.doMultipart(t, http.MethodPut, "/api/profile", token, map[string]string{"clear_avatar": "true"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cleared := decode[profileUpdateResponse](t, w)
	assert.Nil(t, cleared.Data.Avatar)
	assert.Nil(t, cleared.Data.AvatarURL)
	assert.Empty(t, env.store.Keys())
}

func TestUpdateProfileAvatarDeleteFailureStillSucceeds(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic.png", pngData})
	require.Equal(t, http.StatusOK, w.Code)

	env.store.DeleteErr = errors.New("bucket unavailable")
	w = env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic2.png", pngData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasSuffix(*decode[profileUpdateResponse](t, w).Data.AvatarURL, "/pic2.png"))
}

func TestUpdateProfileWithoutChanges(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	req := httptest.NewRequest(http.MethodPut, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice", decode[profileUpdateResponse](t, w).Data.Username)
	assert.Empty(t, env.store.Keys())
}

func TestUpdateProfileRejectsBadUploads(t *testing.T) {
	env := setupTestEnv(t, withMaxUpload(64))
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	tests := []struct {
		name string
		file formFile
	}{
		{name: "not an image", file: formFile{"avatar", "notes.png", []byte("plain text pretending")}},
		{name: "too large", file: formFile{"avatar", "big.png", append(append([]byte{}, pngData...), make([]byte, 128)...)}},
		{name: "empty file", file: formFile{"avatar", "empty.png", nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, tt.file)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[errorBody](t, w).Fields, "avatar")
		})
	}
	assert.Empty(t, env.store.Keys())
}

func TestUpdateProfileStorageFailure(t *testing.T) {
	store := new(mockStore)
	store.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, "image/png").
		Return(errors.New("access denied"))

	env := setupTestEnv(t, withStore(store))
	_, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic.png", pngData})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode[errorBody](t, w)
	assert.Equal(t, "Failed to store file", body.Error)
	assert.Contains(t, body.Detail, "access denied")

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMediaServedFromLocalStore(t *testing.T) {
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	env := setupTestEnv(t, withStore(local), func(d *Deps) { d.MediaRoot = local.Root() })
	alice, token := env.registerAndLogin(t, "alice", "a@x.com", "secret1")

	w := env.doMultipart(t, http.MethodPut, "/api/profile", token, nil, formFile{"avatar", "pic.png", pngData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/media/"+storage.AvatarKey(alice.ID, "pic.png"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngData, w.Body.Bytes())
}
