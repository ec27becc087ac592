package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/auth"
	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/storage"
)

const (
	minPasswordLength = 6
	maxUsernameLength = 150
)

var (
	validate = validator.New()

	errBadCredentials = &AuthenticationError{Reason: "No active account found with the given credentials"}
	errBadRefresh     = &AuthenticationError{Reason: "Token is invalid or expired"}
)

// UserService owns accounts, credentials and avatars
type UserService struct {
	db    database.DBInterface
	store storage.ObjectStore
}

func NewUserService(db database.DBInterface, store storage.ObjectStore) *UserService {
	return &UserService{db: db, store: store}
}

// Register creates an account. Duplicate usernames or emails yield a
// ConflictError and leave the directory unchanged.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	fields := map[string]string{}
	switch {
	case username == "":
		fields["username"] = "This field is required."
	case len(username) > maxUsernameLength:
		fields["username"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameLength)
	}
	if err := validate.Var(email, "required,email"); err != nil {
		fields["email"] = "Enter a valid email address."
	}
	if len([]rune(password)) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		// bcrypt refuses passwords longer than 72 bytes
		return nil, invalid("password", "Password is too long.")
	}

	user, err := s.db.CreateUser(ctx, username, email, hash)
	var dup *database.DuplicateUserError
	switch {
	case errors.As(err, &dup):
		conflict := &ConflictError{Fields: map[string]string{}}
		for _, f := range dup.Fields {
			conflict.Fields[f] = fmt.Sprintf("A user with that %s already exists.", f)
		}
		return nil, conflict
	case errors.Is(err, database.ErrUserAlreadyExists):
		return nil, &ConflictError{Fields: map[string]string{"username": "A user with that username already exists."}}
	case err != nil:
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info("Registered user %s (%s)", user.Username, user.ID)
	return user, nil
}

// Authenticate checks credentials and issues an access/refresh token pair
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, *auth.TokenPair, error) {
	user, err := s.db.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, nil, errBadCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, errBadCredentials
	}

	if err := s.db.UpdateLastSeen(ctx, user.ID); err != nil {
		log.Warn("Failed to update last_seen for %s: %v", user.ID, err)
	}

	pair, err := auth.GenerateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access token. The account
// must still exist.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := auth.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", time.Time{}, errBadRefresh
	}
	userID, err := auth.GetUserIDFromToken(claims)
	if err != nil {
		return "", time.Time{}, errBadRefresh
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		return "", time.Time{}, errBadRefresh
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("get user: %w", err)
	}

	token, expiry, err := auth.GenerateToken(user)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expiry, nil
}

// Profile returns the caller's account
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, &AuthenticationError{Reason: "User not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListOthers returns every account except the caller and system accounts
func (s *UserService) ListOthers(ctx context.Context, callerID uuid.UUID, page database.Page) ([]*models.User, error) {
	users, err := s.db.GetAllUsers(ctx, callerID, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateAvatar replaces the caller's avatar, or clears it when upload is nil.
//
// The new object is stored before the user row points at it, and the previous
// object is only removed after the row has been updated. Removal of the old
// object is best-effort.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, upload *Upload) (*models.User, error) {
	current, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upload == nil {
		updated, err := s.db.UpdateAvatar(ctx, userID, nil)
		if err != nil {
			return nil, fmt.Errorf("clear avatar: %w", err)
		}
		if current.HasAvatar() {
			deleteQuietly(ctx, s.store, *current.AvatarKey)
		}
		log.Info("Cleared avatar for %s", userID)
		return updated, nil
	}

	contentType, err := storage.ImageContentType(upload.Data)
	if err != nil {
		return nil, invalid("avatar", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	key := storage.AvatarKey(userID, upload.Filename)
	if err := s.store.Put(ctx, key, upload.Data, contentType); err != nil {
		return nil, &StorageError{Op: "put", Key: key, Err: err}
	}

	sameKey := current.HasAvatar() && *current.AvatarKey == key

	updated, err := s.db.UpdateAvatar(ctx, userID, &key)
	if err != nil {
		if !sameKey {
			deleteQuietly(ctx, s.store, key)
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	if current.HasAvatar() && !sameKey {
		deleteQuietly(ctx, s.store, *current.AvatarKey)
	}

	log.Info("Updated avatar for %s: %s", userID, key)
	return updated, nil
}
