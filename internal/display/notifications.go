package display

import (
	"strconv"

	"tripsocial/internal/models"
)

// NotificationGroup is one row of the activity list. Likes on the same post collapse
// into a single group; every other notification forms a group of one.
type NotificationGroup struct {
	// Notification is the most recent member.
	Notification models.Notification
	// IDs lists member notification ids, most recent first.
	IDs []string
	// UserIDs lists the distinct acting users, most recent first.
	UserIDs []string
	// Read is true only when every member is read.
	Read bool
}

// Type returns the notification type of the group.
func (g NotificationGroup) Type() models.NotificationType {
	return g.Notification.Type
}

// GroupNotifications merges post like notifications that share a post id. Comment likes
// stay ungrouped. A group keeps the position of its first member in list; order is
// otherwise preserved.
func GroupNotifications(list []models.Notification) []NotificationGroup {
	groups := make([]NotificationGroup, 0, len(list))
	byPost := make(map[string]int)

	for _, n := range list {
		if n.Type == models.NotificationLike && n.PostID != "" && n.CommentID == "" {
			if idx, ok := byPost[n.PostID]; ok {
				g := &groups[idx]
				g.IDs = append(g.IDs, n.ID)
				g.Read = g.Read && n.Read
				if n.CreatedAt.After(g.Notification.CreatedAt) {
					g.Notification = n
					g.UserIDs = prependUnique(g.UserIDs, n.FromUserID)
				} else {
					g.UserIDs = appendUnique(g.UserIDs, n.FromUserID)
				}
				continue
			}
			byPost[n.PostID] = len(groups)
		}
		groups = append(groups, NotificationGroup{
			Notification: n,
			IDs:          []string{n.ID},
			UserIDs:      []string{n.FromUserID},
			Read:         n.Read,
		})
	}
	return groups
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func prependUnique(ids []string, id string) []string {
	out := []string{id}
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// NameFunc resolves a user id to the name shown in notification texts.
type NameFunc func(userID string) string

// FormatNotificationText renders the sentence shown for a group. A nil names func
// renders raw user ids.
func FormatNotificationText(g NotificationGroup, names NameFunc) string {
	if names == nil {
		names = func(id string) string { return id }
	}
	if len(g.UserIDs) == 0 {
		return ""
	}
	actor := names(g.UserIDs[0])
	n := g.Notification

	switch n.Type {
	case models.NotificationLike:
		if n.CommentID != "" {
			return actor + " liked your comment"
		}
		switch len(g.UserIDs) {
		case 1:
			return actor + " liked your post"
		case 2:
			return actor + " and " + names(g.UserIDs[1]) + " liked your post"
		default:
			return actor + " and " + strconv.Itoa(len(g.UserIDs)-1) + " others liked your post"
		}
	case models.NotificationComment:
		if n.Text != "" {
			return actor + " commented: " + n.Text
		}
		return actor + " commented on your post"
	case models.NotificationFollow:
		return actor + " started following you"
	case models.NotificationMention:
		if n.CommentID != "" {
			return actor + " mentioned you in a comment"
		}
		return actor + " mentioned you in a post"
	case models.NotificationStoryReaction:
		if n.Text != "" {
			return actor + " reacted " + n.Text + " to your story"
		}
		return actor + " reacted to your story"
	case models.NotificationStoryReply:
		if n.Text != "" {
			return actor + " replied to your story: " + n.Text
		}
		return actor + " replied to your story"
	default:
		return actor
	}
}
