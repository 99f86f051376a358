package models

import "time"

// LikeTargetKind names the kind of record a like points at.
type LikeTargetKind string

const (
	// LikeTargetPost marks a like on a post.
	LikeTargetPost LikeTargetKind = "post"
	// LikeTargetComment marks a like on a comment.
	LikeTargetComment LikeTargetKind = "comment"
)

// LikeTarget identifies exactly one liked record.
type LikeTarget struct {
	Kind LikeTargetKind `json:"kind"`
	ID   string         `json:"id"`
}

// PostTarget returns the like target for a post.
func PostTarget(postID string) LikeTarget {
	return LikeTarget{Kind: LikeTargetPost, ID: postID}
}

// CommentTarget returns the like target for a comment.
func CommentTarget(commentID string) LikeTarget {
	return LikeTarget{Kind: LikeTargetComment, ID: commentID}
}

// Like represents a user's like on a post or comment.
// The combination of UserID and Target is unique.
type Like struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Target    LikeTarget `json:"target"`
	CreatedAt time.Time  `json:"created_at"`
}
