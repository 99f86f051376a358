// Package notifications fans data layer change events out to in-process subscribers and,
// when Redis is configured, relays them over pub/sub.
package notifications

import (
	"encoding/json"
	"time"
)

// Event types published by the services.
const (
	EventPostCreated          = "post.created"
	EventPostUpdated          = "post.updated"
	EventPostDeleted          = "post.deleted"
	EventCommentAdded         = "comment.added"
	EventCommentDeleted       = "comment.deleted"
	EventStoryUpdated         = "story.updated"
	EventGraphChanged         = "graph.changed"
	EventMessageSent          = "message.sent"
	EventMessageReceived      = "message.received"
	EventConversationUpdated  = "conversation.updated"
	EventNotificationCreated  = "notification.created"
	EventNotificationsUpdated = "notifications.updated"
	EventPreferenceChanged    = "preference.changed"

	// eventDropped is delivered in place of events lost to a full buffer so the
	// subscriber knows to re-read its snapshot.
	eventDropped = "events.dropped"
)

// Event tells a subscriber that something it may display changed.
type Event struct {
	Type    string    `json:"type"`
	UserID  string    `json:"user_id"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// Dropped reports whether the event is the buffer overflow marker.
func (e Event) Dropped() bool {
	return e.Type == eventDropped
}

func (e Event) encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEvent(payload string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(payload), &e)
	return e, err
}
