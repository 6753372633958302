package realtime

import (
	"sort"
	"sync"

	"rently/internal/domain/entity"
	"rently/internal/infrastructure/push"
	"rently/internal/metrics"
	"rently/pkg/logger"
)

// Subscriber is the push-channel edge the engine consumes. push.Client
// satisfies it; tests use an in-memory fake.
type Subscriber interface {
	Subscribe(subject string, handler func(*entity.Message)) (func(), error)
}

// Engine owns the rendered message list for the active conversation. It is
// the single source of truth for "have we already rendered this message":
// both the initial fetch (via Seed) and live push events funnel through its
// id-based dedup before anything is appended.
type Engine struct {
	subscriber Subscriber

	mu         sync.Mutex
	generation int
	selfID     string
	otherID    string
	rendered   map[string]struct{}
	messages   []*entity.Message
	onMessage  func(*entity.Message)
}

func NewEngine(subscriber Subscriber) *Engine {
	return &Engine{
		subscriber: subscriber,
		rendered:   make(map[string]struct{}),
	}
}

// Subscribe attaches a live subscription for the conversation between selfID
// and otherID, resetting the rendered state. The transport may deliver a
// superset of events; anything not matching the pair is discarded at the
// edge. The returned unsubscribe is synchronous and leak-free: after it
// returns, no event from this subscription is appended, even if the
// transport delivers late.
func (e *Engine) Subscribe(selfID, otherID string, onMessage func(*entity.Message)) (func(), error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.selfID = selfID
	e.otherID = otherID
	e.rendered = make(map[string]struct{})
	e.messages = nil
	e.onMessage = onMessage
	e.mu.Unlock()

	transportUnsub, err := e.subscriber.Subscribe(push.PairSubject(selfID, otherID), func(message *entity.Message) {
		e.handleEvent(gen, message)
	})
	if err != nil {
		return nil, err
	}

	unsubscribe := func() {
		transportUnsub()
		e.mu.Lock()
		if e.generation == gen {
			e.generation++
			e.onMessage = nil
		}
		e.mu.Unlock()
	}
	return unsubscribe, nil
}

func (e *Engine) handleEvent(gen int, message *entity.Message) {
	e.mu.Lock()
	if gen != e.generation {
		// Stale subscription from a previously-viewed thread.
		e.mu.Unlock()
		return
	}

	if !message.InvolvedWith(e.selfID, e.otherID) {
		e.mu.Unlock()
		return
	}

	if _, seen := e.rendered[message.ID]; seen {
		metrics.PushEventsDeduped.Inc()
		logger.Debug("realtime: deduped push event for message %s", message.ID)
		e.mu.Unlock()
		return
	}

	e.rendered[message.ID] = struct{}{}
	e.messages = append(e.messages, message)
	onMessage := e.onMessage
	e.mu.Unlock()

	if onMessage != nil {
		onMessage(message)
	}
}

// Seed registers already-fetched history with the rendered set so the echo
// of a message delivered by both fetch and push renders once. Messages whose
// id is already rendered are skipped.
func (e *Engine) Seed(history []*entity.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, message := range history {
		if _, seen := e.rendered[message.ID]; seen {
			continue
		}
		e.rendered[message.ID] = struct{}{}
		e.messages = append(e.messages, message)
	}
}

// Messages returns a display-ordered snapshot: ascending created_at, with
// insertion order as the tiebreak. Appends never reorder the internal list;
// out-of-order pushes are fixed up here at display time.
func (e *Engine) Messages() []*entity.Message {
	e.mu.Lock()
	snapshot := make([]*entity.Message, len(e.messages))
	copy(snapshot, e.messages)
	e.mu.Unlock()

	SortMessages(snapshot)
	return snapshot
}

// Len reports how many distinct messages have been rendered.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

// SortMessages orders messages ascending by CreatedAt, preserving insertion
// order between equal timestamps.
func SortMessages(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
