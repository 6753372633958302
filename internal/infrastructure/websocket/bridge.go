package websocket

import (
	"encoding/json"

	"rently/internal/domain/entity"
	"rently/pkg/logger"
)

// Subscriber is the push-channel side of the bridge.
type Subscriber interface {
	Subscribe(subject string, handler func(*entity.Message)) (func(), error)
}

// Bridge forwards message-insert events from the push channel to both
// participants' open WebSocket connections. Clients with no open connection
// simply miss the push; they reconcile on their next history fetch.
type Bridge struct {
	manager     *Manager
	unsubscribe func()
}

func NewBridge(manager *Manager) *Bridge {
	return &Bridge{manager: manager}
}

// Start subscribes to every conversation subject and begins forwarding.
func (b *Bridge) Start(subscriber Subscriber, subject string) error {
	unsubscribe, err := subscriber.Subscribe(subject, b.forward)
	if err != nil {
		return err
	}
	b.unsubscribe = unsubscribe
	return nil
}

func (b *Bridge) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Bridge) forward(message *entity.Message) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    "message_inserted",
		"message": message,
	})
	if err != nil {
		logger.Error("bridge: failed to encode push payload: %v", err)
		return
	}

	// The sender gets the echo too, so other tabs of the same user stay in
	// sync.
	b.manager.SendToUser(message.SenderID, payload)
	b.manager.SendToUser(message.ReceiverID, payload)
}
