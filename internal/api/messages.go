package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ammar1510/inbox/internal/database"
	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/service"
)

// MessageHandler handles message-related routes
type MessageHandler struct {
	Messages       *service.MessageService
	Presenter      *Presenter
	MaxUploadBytes int64
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService, presenter *Presenter, maxUploadBytes int64) *MessageHandler {
	return &MessageHandler{Messages: messages, Presenter: presenter, MaxUploadBytes: maxUploadBytes}
}

// CreateMessage sends a message from a JSON body or a form, with an
// optional "image" file when the form is multipart
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	h.send(c)
}

// SendMessage is the form-only variant used by clients uploading images
func (h *MessageHandler) SendMessage(c *gin.Context) {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		h.send(c)
	default:
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("Unsupported media type %q in request.", c.ContentType()),
		})
	}
}

func (h *MessageHandler) send(c *gin.Context) {
	caller, _ := callerID(c)

	var req models.MessageRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	receiver, err := parseReceiver(req.Receiver)
	if err != nil {
		respondError(c, err)
		return
	}

	image, err := formUpload(c, "image", h.MaxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	msg, err := h.Messages.Send(c.Request.Context(), caller, receiver, req.Content, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.Presenter.Message(msg))
}

// parseReceiver leaves a missing receiver as uuid.Nil for the service to
// reject
func parseReceiver(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &service.ValidationError{Fields: map[string]string{
			"receiver": fmt.Sprintf("%q is not a valid UUID.", raw),
		}}
	}
	return id, nil
}

// GetMessages returns every message the caller sent or received
func (h *MessageHandler) GetMessages(c *gin.Context) {
	h.list(c, h.Messages.ListFor)
}

// GetReceived returns the caller's inbox
func (h *MessageHandler) GetReceived(c *gin.Context) {
	h.list(c, h.Messages.ListReceived)
}

// GetSent returns the caller's outbox
func (h *MessageHandler) GetSent(c *gin.Context) {
	h.list(c, h.Messages.ListSent)
}

func (h *MessageHandler) list(c *gin.Context, fetch func(context.Context, uuid.UUID, database.Page) ([]*models.Message, error)) {
	caller, _ := callerID(c)

	messages, err := fetch(c.Request.Context(), caller, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.Presenter.Messages(messages))
}
