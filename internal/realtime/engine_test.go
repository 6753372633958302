package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rently/internal/domain/entity"
)

// fakeTransport delivers emitted events to every live handler, regardless of
// subject, mimicking a conversation-agnostic push channel.
type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(*entity.Message)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[int]func(*entity.Message))}
}

func (t *fakeTransport) Subscribe(subject string, handler func(*entity.Message)) (func(), error) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.handlers[id] = handler
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.handlers, id)
		t.mu.Unlock()
	}, nil
}

func (t *fakeTransport) Emit(message *entity.Message) {
	t.mu.Lock()
	live := make([]func(*entity.Message), 0, len(t.handlers))
	for _, h := range t.handlers {
		live = append(live, h)
	}
	t.mu.Unlock()

	for _, h := range live {
		h(message)
	}
}

func msg(id, sender, receiver string, at time.Time) *entity.Message {
	return &entity.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       "m-" + id,
		CreatedAt:  at,
	}
}

func TestEngineAppendsConversationEvents(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	var delivered []*entity.Message
	unsubscribe, err := engine.Subscribe("alice", "bob", func(m *entity.Message) {
		delivered = append(delivered, m)
	})
	require.NoError(t, err)
	defer unsubscribe()

	transport.Emit(msg("1", "bob", "alice", time.Now()))

	assert.Equal(t, 1, engine.Len())
	require.Len(t, delivered, 1)
	assert.Equal(t, "1", delivered[0].ID)
}

func TestEngineDedupsById(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)
	defer unsubscribe()

	event := msg("dup", "alice", "bob", time.Now())
	transport.Emit(event)
	transport.Emit(event)

	assert.Equal(t, 1, engine.Len(), "re-delivered event must be a no-op")
}

func TestEngineDedupsAgainstSeededHistory(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)
	defer unsubscribe()

	fetched := msg("echo", "alice", "bob", time.Now())
	engine.Seed([]*entity.Message{fetched})

	// The sender's own echo arrives on the push channel after the fetch.
	transport.Emit(fetched)

	assert.Equal(t, 1, engine.Len())
}

func TestEngineFiltersForeignConversations(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)
	defer unsubscribe()

	transport.Emit(msg("x", "carol", "dave", time.Now()))
	transport.Emit(msg("y", "alice", "carol", time.Now()))

	assert.Zero(t, engine.Len())
}

func TestEngineOrdersByCreatedAt(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)
	defer unsubscribe()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	transport.Emit(msg("late", "bob", "alice", base.Add(2*time.Minute)))
	transport.Emit(msg("early", "alice", "bob", base))

	ordered := engine.Messages()
	require.Len(t, ordered, 2)
	assert.Equal(t, "early", ordered[0].ID)
	assert.Equal(t, "late", ordered[1].ID)
}

func TestEngineEqualTimestampsKeepInsertionOrder(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)
	defer unsubscribe()

	at := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	transport.Emit(msg("first", "alice", "bob", at))
	transport.Emit(msg("second", "bob", "alice", at))

	ordered := engine.Messages()
	require.Len(t, ordered, 2)
	assert.Equal(t, "first", ordered[0].ID)
	assert.Equal(t, "second", ordered[1].ID)
}

func TestUnsubscribeStopsLateEvents(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	unsubscribe, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)

	unsubscribe()
	transport.Emit(msg("late", "bob", "alice", time.Now()))

	assert.Zero(t, engine.Len())
}

func TestStaleSubscriptionCannotPolluteNewThread(t *testing.T) {
	transport := newFakeTransport()
	engine := NewEngine(transport)

	// Capture the first subscription's handler by never unsubscribing it at
	// the transport level; the generation guard alone must protect the new
	// thread.
	_, err := engine.Subscribe("alice", "bob", nil)
	require.NoError(t, err)

	unsubscribe2, err := engine.Subscribe("alice", "carol", nil)
	require.NoError(t, err)
	defer unsubscribe2()

	// This event matches the old pair and is delivered to both handlers; the
	// old one is stale and must not append.
	transport.Emit(msg("old-pair", "bob", "alice", time.Now()))

	assert.Zero(t, engine.Len())
}
