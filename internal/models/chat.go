package models

import (
	"encoding/json"
	"time"
)

// Participant is the display snapshot of a user cached on a conversation.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
}

// Conversation represents a direct chat between participants.
type Conversation struct {
	ID             string        `json:"id"`
	ParticipantIDs []string      `json:"participant_ids"`
	Participants   []Participant `json:"participants"`
	LastMessage    *Message      `json:"last_message,omitempty"`
	UnreadCount    int           `json:"unread_count"`
	TypingUserIDs  []string      `json:"typing_user_ids"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the first participant that is not userID.
func (c Conversation) Counterpart(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

// IsTyping reports whether userID is currently typing.
func (c Conversation) IsTyping(userID string) bool {
	for _, id := range c.TypingUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	out := c
	out.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	out.Participants = append([]Participant(nil), c.Participants...)
	out.TypingUserIDs = append([]string(nil), c.TypingUserIDs...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		out.LastMessage = &m
	}
	return out
}

// PayloadKind names the variant held by a MessagePayload.
type PayloadKind string

const (
	PayloadText       PayloadKind = "text"
	PayloadSharedPost PayloadKind = "shared_post"
	PayloadMedia      PayloadKind = "media"
)

// MessagePayload is the body of a message: exactly one of TextPayload,
// SharedPostPayload or MediaPayload.
type MessagePayload interface {
	Kind() PayloadKind
	// Preview is the one-line summary shown in conversation lists.
	Preview() string
	isMessagePayload()
}

// TextPayload is a plain text message.
type TextPayload struct {
	Text string `json:"text"`
}

func (TextPayload) Kind() PayloadKind { return PayloadText }
func (p TextPayload) Preview() string { return p.Text }
func (TextPayload) isMessagePayload() {}

// SharedPostPayload references a post shared into a conversation.
type SharedPostPayload struct {
	PostID    string `json:"post_id"`
	Thumbnail string `json:"thumbnail"`
	Caption   string `json:"caption"`
	Username  string `json:"username"`
}

func (SharedPostPayload) Kind() PayloadKind { return PayloadSharedPost }
func (p SharedPostPayload) Preview() string { return "Shared a post by @" + p.Username }
func (SharedPostPayload) isMessagePayload() {}

// MediaPayload references a photo or video.
type MediaPayload struct {
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
}

func (MediaPayload) Kind() PayloadKind { return PayloadMedia }
func (p MediaPayload) Preview() string {
	if p.MediaType == "video" {
		return "Sent a video"
	}
	return "Sent a photo"
}
func (MediaPayload) isMessagePayload() {}

// Message represents a chat message.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	RecipientID    string         `json:"recipient_id"`
	Payload        MessagePayload `json:"-"`
	Read           bool           `json:"read"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	Reaction       string         `json:"reaction,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// MarshalJSON flattens the payload into a tagged object.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	out := struct {
		alias
		Type    PayloadKind    `json:"type,omitempty"`
		Payload MessagePayload `json:"payload,omitempty"`
	}{alias: alias(m), Payload: m.Payload}
	if m.Payload != nil {
		out.Type = m.Payload.Kind()
	}
	return json.Marshal(out)
}
