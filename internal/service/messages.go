package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/storage"
)

// Notifier is told about every stored message. Implementations must not
// block and their failures never reach the sender.
type Notifier interface {
	MessageSent(msg *models.Message)
}

// MessageService stores and lists direct messages
type MessageService struct {
	db       database.DBInterface
	store    storage.ObjectStore
	notifier Notifier
}

// NewMessageService returns a message service. notifier may be nil.
func NewMessageService(db database.DBInterface, store storage.ObjectStore, notifier Notifier) *MessageService {
	return &MessageService{db: db, store: store, notifier: notifier}
}

// Send stores a message from senderID to receiverID. A message needs text,
// an image, or both. The image is uploaded before the message row that
// references it is written.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string, image *Upload) (*models.Message, error) {
	content = strings.TrimSpace(content)

	if receiverID == uuid.Nil {
		return nil, invalid("receiver", "This field is required.")
	}
	if content == "" && image == nil {
		return nil, invalid("content", "Content is required when no image is attached.")
	}

	if _, err := s.db.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, unknownReceiver(receiverID)
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	var imageKey *string
	if image != nil {
		contentType, err := storage.ImageContentType(image.Data)
		if err != nil {
			return nil, invalid("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		}

		key := storage.MessageImageKey(image.Filename)
		if err := s.store.Put(ctx, key, image.Data, contentType); err != nil {
			return nil, &StorageError{Op: "put", Key: key, Err: err}
		}
		imageKey = &key
	}

	msg, err := s.db.CreateMessage(ctx, senderID, receiverID, content, imageKey)
	if err != nil {
		if imageKey != nil {
			deleteQuietly(ctx, s.store, *imageKey)
		}
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, unknownReceiver(receiverID)
		}
		return nil, fmt.Errorf("create message: %w", err)
	}

	log.Debug("Message %d stored: %s -> %s", msg.ID, senderID, receiverID)

	if s.notifier != nil {
		s.notifier.MessageSent(msg)
	}
	return msg, nil
}

func unknownReceiver(id uuid.UUID) *ValidationError {
	return invalid("receiver", fmt.Sprintf("Invalid pk %q - object does not exist.", id.String()))
}

// ListFor returns messages the user sent or received, newest first
func (s *MessageService) ListFor(ctx context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return s.list(ctx, "messages", s.db.GetMessagesByUser, userID, page)
}

// ListReceived returns messages addressed to the user, newest first
func (s *MessageService) ListReceived(ctx context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return s.list(ctx, "received messages", s.db.GetReceivedMessages, userID, page)
}

// ListSent returns messages the user sent, newest first
func (s *MessageService) ListSent(ctx context.Context, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	return s.list(ctx, "sent messages", s.db.GetSentMessages, userID, page)
}

type listFunc func(context.Context, uuid.UUID, database.Page) ([]*models.Message, error)

func (s *MessageService) list(ctx context.Context, what string, fn listFunc, userID uuid.UUID, page database.Page) ([]*models.Message, error) {
	messages, err := fn(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	return messages, nil
}
