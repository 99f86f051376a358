package models

import "time"

// NotificationType represents what happened to trigger a notification.
type NotificationType string

const (
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationFollow        NotificationType = "follow"
	NotificationMention       NotificationType = "mention"
	NotificationStoryReaction NotificationType = "story_reaction"
	NotificationStoryReply    NotificationType = "story_reply"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow,
		NotificationMention, NotificationStoryReaction, NotificationStoryReply:
		return true
	}
	return false
}

// Notification represents an activity entry addressed to a user.
type Notification struct {
	ID          string           `json:"id" yaml:"id"`
	RecipientID string           `json:"recipient_id" yaml:"recipient_id"`
	Type        NotificationType `json:"type" yaml:"type"`
	FromUserID  string           `json:"from_user_id" yaml:"from_user_id"`
	PostID      string           `json:"post_id,omitempty" yaml:"post_id"`
	CommentID   string           `json:"comment_id,omitempty" yaml:"comment_id"`
	StoryID     string           `json:"story_id,omitempty" yaml:"story_id"`
	Text        string           `json:"text,omitempty" yaml:"text"`
	Read        bool             `json:"read" yaml:"read"`
	CreatedAt   time.Time        `json:"created_at" yaml:"created_at"`
}
