package models

import "time"

// StoryTTL is how long a story stays visible after it is posted.
const StoryTTL = 24 * time.Hour

// Story represents a user's ordered set of story images.
type Story struct {
	ID        string          `json:"id" yaml:"id"`
	UserID    string          `json:"user_id" yaml:"user_id"`
	Images    []StoryImage    `json:"images" yaml:"images"`
	Seen      bool            `json:"seen" yaml:"seen"`
	Reactions []StoryReaction `json:"reactions" yaml:"reactions"`
	Replies   []StoryReply    `json:"replies" yaml:"replies"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	ExpiresAt time.Time       `json:"expires_at" yaml:"expires_at"`
}

// StoryImage is a single frame of a story.
type StoryImage struct {
	ID  string `json:"id" yaml:"id"`
	URL string `json:"url" yaml:"url"`
}

// StoryReaction is an emoji reaction; a user holds at most one per story.
type StoryReaction struct {
	UserID    string    `json:"user_id" yaml:"user_id"`
	Emoji     string    `json:"emoji" yaml:"emoji"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// StoryReply is a text answer to a story.
type StoryReply struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Active reports whether the story is still visible at now.
func (s Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers cannot alias the stored slices.
func (s Story) Clone() Story {
	out := s
	out.Images = append([]StoryImage(nil), s.Images...)
	out.Reactions = append([]StoryReaction(nil), s.Reactions...)
	out.Replies = append([]StoryReply(nil), s.Replies...)
	return out
}
