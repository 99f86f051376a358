package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tripsocial/internal/observability"
)

const (
	// Max subscriptions per user
	maxSubsPerUser = 12
	// Max total subscriptions
	maxTotalSubs = 10000
	// DefaultBufferSize is the per-subscriber buffer when none is configured.
	DefaultBufferSize = 64
)

// ErrHubClosed is returned by Subscribe after Shutdown.
var ErrHubClosed = errors.New("event hub is shut down")

// Hub maps userID -> set of Subscribers and fans change events out to them.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Subscriber]struct{}
	totalSubs  int
	bufferSize int
	closed     bool

	relay  *Notifier
	logger *observability.EventLogger
}

// NewHub creates a hub with the given per-subscriber buffer. A non-nil relay also
// publishes every event to Redis.
func NewHub(bufferSize int, relay *Notifier) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subs:       make(map[string]map[*Subscriber]struct{}),
		bufferSize: bufferSize,
		relay:      relay,
		logger:     observability.NewEventLogger("event hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// Subscribe registers a new subscriber for userID.
func (h *Hub) Subscribe(userID string) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalSubs >= maxTotalSubs {
		return nil, errors.New("subscription limit reached")
	}

	m, ok := h.subs[userID]
	if !ok {
		m = make(map[*Subscriber]struct{})
		h.subs[userID] = m
	}
	if len(m) >= maxSubsPerUser {
		return nil, errors.New("user subscription limit reached")
	}

	sub := newSubscriber(h, userID, h.bufferSize)
	m[sub] = struct{}{}
	h.totalSubs++
	h.logger.LogSubscribe(userID)
	return sub, nil
}

// Unsubscribe removes the subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if m, ok := h.subs[sub.UserID]; ok {
		if _, exists := m[sub]; exists {
			delete(m, sub)
			h.totalSubs--
		}
		if len(m) == 0 {
			delete(h.subs, sub.UserID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Subscribers returns how many subscriptions userID holds.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Publish delivers an event to every subscriber of userID and relays it when Redis
// is configured. Relay failures are logged, never returned.
func (h *Hub) Publish(ctx context.Context, userID, eventType string, payload any) {
	e := Event{Type: eventType, UserID: userID, Payload: payload, At: time.Now()}
	h.deliver(e)

	if h.relay == nil {
		return
	}
	if err := h.relay.PublishUser(ctx, e); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "event relay failed",
			"event_type", eventType,
			"user_id", userID,
			"error", err.Error(),
		)
	}
}

func (h *Hub) deliver(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[e.UserID] {
		sub.TrySend(e)
	}
}

// StartWiring connects the Notifier to this hub: events published by other processes
// on the user channels are delivered to local subscribers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := strings.CutPrefix(channel, userChannelPrefix)
		if !ok || userID == "" {
			observability.GlobalLogger.Warn("invalid event channel", "channel", channel)
			return
		}
		e, err := decodeEvent(payload)
		if err != nil {
			observability.GlobalLogger.Warn("invalid event payload", "channel", channel, "error", err.Error())
			return
		}
		e.UserID = userID
		h.deliver(e)
	})
}

// Shutdown closes every subscriber channel. Later Subscribe calls fail.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]map[*Subscriber]struct{})
	total := h.totalSubs
	h.totalSubs = 0
	h.mu.Unlock()

	for _, m := range subs {
		for sub := range m {
			sub.close()
		}
	}
	h.logger.LogLifecycle("shutdown", map[string]interface{}{"subscribers": total})
	return nil
}
