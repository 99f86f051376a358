package notifications

import (
	"sync"
	"time"

	"tripsocial/internal/observability"
)

// Subscriber receives the events addressed to one user.
type Subscriber struct {
	UserID string

	events chan Event
	hub    *Hub

	mu      sync.Mutex
	closed  bool
	dropped int
}

func newSubscriber(hub *Hub, userID string, size int) *Subscriber {
	return &Subscriber{
		UserID: userID,
		events: make(chan Event, size),
		hub:    hub,
	}
}

// Events returns the receive side of the subscription. It is closed on Unsubscribe
// and on hub shutdown.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// TrySend delivers the event without blocking. When the buffer is full the event is
// dropped; the next delivery that finds room is preceded by a drop marker.
func (s *Subscriber) TrySend(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		observability.EventDrops.WithLabelValues("closed").Inc()
		return false
	}

	if s.dropped > 0 && len(s.events) < cap(s.events)-1 {
		s.events <- Event{Type: eventDropped, UserID: s.UserID, Payload: s.dropped, At: time.Now()}
		s.dropped = 0
	}

	select {
	case s.events <- e:
		return true
	default:
		s.dropped++
		observability.EventDrops.WithLabelValues("full").Inc()
		s.hub.logger.LogDrop(s.UserID, e.Type)
		return false
	}
}

// Dropped returns how many events were lost since the last drop marker.
func (s *Subscriber) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
