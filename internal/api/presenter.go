package api

import (
	"github.com/ammar1510/inbox/internal/models"
	"github.com/ammar1510/inbox/internal/storage"
)

// Presenter renders stored records for clients, expanding storage keys into
// URLs through the resolver.
type Presenter struct {
	resolver *storage.Resolver
}

func NewPresenter(resolver *storage.Resolver) *Presenter {
	return &Presenter{resolver: resolver}
}

func (p *Presenter) User(u *models.User) models.UserResponse {
	resp := models.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: p.resolver.Resolve(u.AvatarKey),
		CreatedAt: u.CreatedAt,
	}
	if u.HasAvatar() {
		key := *u.AvatarKey
		resp.Avatar = &key
	}
	return resp
}

func (p *Presenter) Users(users []*models.User) []models.UserResponse {
	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, p.User(u))
	}
	return out
}

func (p *Presenter) Message(m *models.Message) models.MessageResponse {
	return models.MessageResponse{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		SenderAvatarURL:   p.resolver.Resolve(m.SenderAvatarKey),
		ReceiverID:        m.ReceiverID,
		ReceiverUsername:  m.ReceiverUsername,
		ReceiverAvatarURL: p.resolver.Resolve(m.ReceiverAvatarKey),
		Content:           m.Content,
		Image:             p.resolver.Resolve(m.ImageKey),
		SentAt:            m.SentAt,
	}
}

func (p *Presenter) Messages(messages []*models.Message) []models.MessageResponse {
	out := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, p.Message(m))
	}
	return out
}

// Event renders a message for the websocket notifier
func (p *Presenter) Event(m *models.Message) any {
	return p.Message(m)
}
