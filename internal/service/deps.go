// Package service provides the data layer business logic: the social store (posts,
// comments, stories, follow graph), chat, and notifications.
package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"tripsocial/internal/featureflags"
	"tripsocial/internal/models"
	"tripsocial/internal/repository"
)

// NotificationSink receives the notifications produced by social actions.
type NotificationSink interface {
	Notify(ctx context.Context, n models.Notification)
}

// EventPublisher tells subscribers of userID that something they display changed.
type EventPublisher interface {
	Publish(ctx context.Context, userID, eventType string, payload any)
}

// Deps carries the collaborators shared by every service. It is filled once by the
// composition root.
type Deps struct {
	Repos  *repository.Set
	Notify NotificationSink
	Events EventPublisher
	Flags  *featureflags.Manager
	Now    func() time.Time
}

type noopSink struct{}

func (noopSink) Notify(context.Context, models.Notification) {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) {}

func (d Deps) withDefaults() Deps {
	if d.Repos == nil {
		d.Repos = repository.NewSet()
	}
	if d.Notify == nil {
		d.Notify = noopSink{}
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Flags == nil {
		d.Flags = featureflags.NewManager("")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// CascadeResult reports how many rows one delete removed per collection.
type CascadeResult struct {
	Posts         int
	Comments      int
	Likes         int
	Bookmarks     int
	Notifications int
}

// Rows returns the per-collection counts keyed by collection name.
func (r CascadeResult) Rows() map[string]int {
	return map[string]int{
		"posts":         r.Posts,
		"comments":      r.Comments,
		"likes":         r.Likes,
		"bookmarks":     r.Bookmarks,
		"notifications": r.Notifications,
	}
}

func decrement(v, by int) int {
	if v -= by; v < 0 {
		return 0
	}
	return v
}

const maxEmojiRunes = 8

// validEmoji accepts a short run of symbol runes such as "❤️" or "👍🏽".
func validEmoji(s string) bool {
	if s == "" || len([]rune(s)) > maxEmojiRunes {
		return false
	}
	for _, r := range s {
		if r < 0x80 || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
