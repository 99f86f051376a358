package models

import "time"

// RelationKind represents the kind of directed edge between two users.
type RelationKind string

const (
	// RelationFollow indicates the source follows the target.
	RelationFollow RelationKind = "follow"
	// RelationBlock indicates the source blocked the target.
	RelationBlock RelationKind = "block"
)

// Edge is the key of a directed relationship. Relationship sets are keyed by it, so
// inserting the same edge twice leaves one row.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Reverse returns the edge pointing the other way.
func (e Edge) Reverse() Edge {
	return Edge{From: e.To, To: e.From}
}

// Follow represents FollowerID following FollowingID.
type Follow struct {
	FollowerID  string    `json:"follower_id" yaml:"follower_id"`
	FollowingID string    `json:"following_id" yaml:"following_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Edge returns the relationship key of the follow.
func (f Follow) Edge() Edge {
	return Edge{From: f.FollowerID, To: f.FollowingID}
}

// Block represents BlockerID blocking BlockedID.
type Block struct {
	BlockerID string    `json:"blocker_id" yaml:"blocker_id"`
	BlockedID string    `json:"blocked_id" yaml:"blocked_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Edge returns the relationship key of the block.
func (b Block) Edge() Edge {
	return Edge{From: b.BlockerID, To: b.BlockedID}
}
