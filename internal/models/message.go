package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a direct message between two users.
// Sender and receiver details are filled in from a join on users when the
// message is read back from the store.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   uuid.UUID `json:"sender"`
	ReceiverID uuid.UUID `json:"receiver"`
	Content    string    `json:"content"`
	ImageKey   *string   `json:"-"`
	SentAt     time.Time `json:"sent_at"`

	SenderUsername    string  `json:"-"`
	SenderAvatarKey   *string `json:"-"`
	ReceiverUsername  string  `json:"-"`
	ReceiverAvatarKey *string `json:"-"`
}

// MessageRequest is the structure for message creation requests.
// It binds from JSON bodies and from multipart forms; the receiver id is
// parsed by the handler so a malformed id reports as a field error.
type MessageRequest struct {
	Receiver string `json:"receiver" form:"receiver"`
	Content  string `json:"content" form:"content"`
}

// MessageResponse is what we return to clients
type MessageResponse struct {
	ID                int64     `json:"id"`
	SenderID          uuid.UUID `json:"sender"`
	SenderUsername    string    `json:"sender_username"`
	SenderAvatarURL   *string   `json:"sender_avatar_url"`
	ReceiverID        uuid.UUID `json:"receiver"`
	ReceiverUsername  string    `json:"receiver_username"`
	ReceiverAvatarURL *string   `json:"receiver_avatar_url"`
	Content           string    `json:"content"`
	Image             *string   `json:"image"`
	SentAt            time.Time `json:"sent_at"`
}
