package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the messaging system
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never send to client
	AvatarKey    *string   `json:"-"` // Relative storage key, resolved at response time
	IsSystem     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}

// HasAvatar reports whether the user references a stored avatar object
func (u *User) HasAvatar() bool {
	return u.AvatarKey != nil && *u.AvatarKey != ""
}

// UserRegistration contains data needed for user registration
type UserRegistration struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UserLogin contains the credentials exchanged for a token pair
type UserLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenRefresh carries a refresh token
type TokenRefresh struct {
	Refresh string `json:"refresh" binding:"required"`
}

// ProfileUpdate carries the non-file fields of a profile update.
// The avatar itself arrives as the multipart file "avatar".
type ProfileUpdate struct {
	ClearAvatar bool `json:"clear_avatar" form:"clear_avatar"`
}

// UserResponse is what we return to the client
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    *string   `json:"avatar"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}
