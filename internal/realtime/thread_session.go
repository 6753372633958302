package realtime

import (
	"context"
	"sync"

	"rently/internal/domain/entity"
	"rently/pkg/errors"
	"rently/pkg/logger"
)

// HistoryLoader hydrates a conversation's message history. Implemented by
// the message usecase.
type HistoryLoader interface {
	FetchHistory(ctx context.Context, selfID, otherID, listingID string, limit, offset int) ([]*entity.Message, error)
}

// ThreadSession manages the lifecycle of the currently-viewed thread:
// hydration, live subscription, switching, and the one-in-flight-send
// debounce. Exactly one thread is active at a time; switching tears down the
// previous subscription before the new one attaches, and a history response
// that lands after a switch is discarded instead of committed.
type ThreadSession struct {
	loader HistoryLoader
	engine *Engine

	mu          sync.Mutex
	activeKey   string
	unsubscribe func()
	sending     bool
}

func NewThreadSession(loader HistoryLoader, engine *Engine) *ThreadSession {
	return &ThreadSession{
		loader: loader,
		engine: engine,
	}
}

func threadKey(otherID, listingID string) string {
	if listingID == "" {
		return otherID
	}
	return listingID + "_" + otherID
}

// Open switches the session to the given thread. The previous thread's
// subscription is torn down first so a stale subscription can never append
// into the new thread's list. History is fetched after the subscription
// attaches; its result is committed only if the session still targets the
// same thread when the response arrives.
func (s *ThreadSession) Open(ctx context.Context, selfID, otherID, listingID string, limit int, onMessage func(*entity.Message)) error {
	key := threadKey(otherID, listingID)

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.activeKey = key
	s.mu.Unlock()

	unsubscribe, err := s.engine.Subscribe(selfID, otherID, onMessage)
	if err != nil {
		return errors.Unavailable("Failed to attach live subscription", err)
	}

	s.mu.Lock()
	if s.activeKey != key {
		// Another Open won the race while we were subscribing.
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	// Opening always loads the newest page; older pages are pulled on
	// demand through LoadOlder.
	history, err := s.loader.FetchHistory(ctx, selfID, otherID, listingID, limit, 0)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.activeKey != key {
		logger.Debug("thread session: discarding history for %s, thread switched", key)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.engine.Seed(history)
	return nil
}

// LoadOlder fetches the page of history preceding what is already rendered,
// using the rendered count as the offset into the newest-first ordering.
// Messages that raced in over push are absorbed by the engine's id dedup.
// The result is discarded if the session switched threads while the fetch
// was in flight.
func (s *ThreadSession) LoadOlder(ctx context.Context, selfID, otherID, listingID string, limit int) error {
	key := threadKey(otherID, listingID)

	s.mu.Lock()
	if s.activeKey != key {
		s.mu.Unlock()
		return errors.BadRequest("Thread is not active", nil)
	}
	s.mu.Unlock()

	offset := s.engine.Len()
	history, err := s.loader.FetchHistory(ctx, selfID, otherID, listingID, limit, offset)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.activeKey != key {
		logger.Debug("thread session: discarding older page for %s, thread switched", key)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.engine.Seed(history)
	return nil
}

// Send runs the given send action, rejecting it if a previous send for this
// session is still outstanding.
func (s *ThreadSession) Send(ctx context.Context, send func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return errors.BadRequest("A send is already in progress", nil)
	}
	s.sending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	return send(ctx)
}

// Close tears down the active subscription. Safe to call repeatedly.
func (s *ThreadSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.activeKey = ""
}

// Messages exposes the engine's display-ordered snapshot for the active
// thread.
func (s *ThreadSession) Messages() []*entity.Message {
	return s.engine.Messages()
}
