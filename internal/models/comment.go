package models

import "time"

// Comment represents a comment on a post. ParentID is empty for top-level comments;
// replies always point at a top-level comment.
type Comment struct {
	ID           string    `json:"id" yaml:"id"`
	PostID       string    `json:"post_id" yaml:"post_id"`
	UserID       string    `json:"user_id" yaml:"user_id"`
	Text         string    `json:"text" yaml:"text"`
	Likes        int       `json:"likes" yaml:"likes"`
	ParentID     string    `json:"parent_id,omitempty" yaml:"parent_id"`
	RepliesCount int       `json:"replies_count" yaml:"replies_count"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`

	// Liked is relative to the viewer the comment was read for.
	Liked bool `json:"liked" yaml:"-"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}
