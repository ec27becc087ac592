package websocket

import (
	"encoding/json"

	"github.com/ammar1510/inbox/internal/models"
)

// Notifier pushes stored messages to the receiver's open connections.
// Render converts the stored message into its public representation.
type Notifier struct {
	manager *Manager
	render  func(*models.Message) any
}

func NewNotifier(manager *Manager, render func(*models.Message) any) *Notifier {
	return &Notifier{manager: manager, render: render}
}

// MessageSent never blocks; undelivered events are dropped.
func (n *Notifier) MessageSent(msg *models.Message) {
	ev := newEvent(EventMessage)
	ev.Message = n.render(msg)

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("Failed to encode message %d: %v", msg.ID, err)
		return
	}

	if !n.manager.SendToUser(msg.ReceiverID, payload) {
		log.Debug("Receiver %s offline, message %d not pushed", msg.ReceiverID, msg.ID)
	}
}
