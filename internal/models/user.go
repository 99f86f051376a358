// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a traveller profile. Counters start from seeded baselines and are
// adjusted whenever a follow edge or post is actually added or removed.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Username  string    `json:"username" yaml:"username"`
	Avatar    string    `json:"avatar" yaml:"avatar"`
	Bio       string    `json:"bio" yaml:"bio"`
	Verified  bool      `json:"verified" yaml:"verified"`
	Followers int       `json:"followers" yaml:"followers"`
	Following int       `json:"following" yaml:"following"`
	Posts     int       `json:"posts" yaml:"posts"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Snapshot returns the display subset of the user cached on conversations.
func (u User) Snapshot() Participant {
	return Participant{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.Avatar,
		Verified: u.Verified,
	}
}
