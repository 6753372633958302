package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go"

	"rently/internal/domain/entity"
	"rently/pkg/logger"
)

const subjectPrefix = "messages.inserted"

// PairSubject returns the NATS subject for a conversation. The user-id pair
// is sorted so both participants derive the same subject.
func PairSubject(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return fmt.Sprintf("%s.%s-%s", subjectPrefix, pair[0], pair[1])
}

// AllSubject matches every conversation. Subscribers using it receive a
// superset of events and must filter at the edge.
func AllSubject() string {
	return subjectPrefix + ".>"
}

// Client is the push-channel transport. Reconnection on transient network
// loss is handled by the NATS client itself, not by subscribers.
type Client struct {
	nc *nats.Conn
}

func NewClient(natsURL string) (*Client, error) {
	nc, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{nc: nc}, nil
}

func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}

// Publish broadcasts a persisted message's insert event to its conversation
// subject.
func (c *Client) Publish(ctx context.Context, message *entity.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	subject := PairSubject(message.SenderID, message.ReceiverID)
	if err := c.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers decoded insert events to the handler until the returned
// unsubscribe function runs. Unsubscribing is synchronous: once it returns,
// the handler is never invoked again.
func (c *Client) Subscribe(subject string, handler func(*entity.Message)) (func(), error) {
	sub, err := c.nc.Subscribe(subject, func(natsMsg *nats.Msg) {
		var message entity.Message
		if err := json.Unmarshal(natsMsg.Data, &message); err != nil {
			logger.Warn("push: dropping undecodable event on %s: %v", natsMsg.Subject, err)
			return
		}
		handler(&message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	unsubscribe := func() {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("push: unsubscribe from %s failed: %v", subject, err)
		}
	}
	return unsubscribe, nil
}
