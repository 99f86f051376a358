package service

import (
	"context"
	"sort"

	"tripsocial/internal/display"
	"tripsocial/internal/featureflags"
	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// NotificationService holds the activity notifications. Reads are for the session's
// current user; Add and Notify accept notifications for any recipient.
type NotificationService struct {
	deps          Deps
	currentUserID string
	logger        *observability.StoreLogger
	metrics       *observability.StoreMetrics
}

// NewNotificationService returns a new NotificationService for currentUserID.
func NewNotificationService(deps Deps, currentUserID string) *NotificationService {
	return &NotificationService{
		deps:          deps.withDefaults(),
		currentUserID: currentUserID,
		logger:        observability.NewStoreLogger("notifications"),
		metrics:       observability.NewStoreMetrics("notifications"),
	}
}

// Add stores the notification at the head of the list. An empty recipient means the
// current user. Self notifications are dropped and return nil.
func (s *NotificationService) Add(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if !n.Type.Valid() {
		return nil, models.NewValidationError("Unknown notification type")
	}
	if n.RecipientID == "" {
		n.RecipientID = s.currentUserID
	}
	if n.FromUserID == "" {
		return nil, models.NewValidationError("Notification sender is required")
	}
	if n.FromUserID == n.RecipientID {
		return nil, nil
	}

	n.ID = repository.NewID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.deps.Now()
	}
	n.Read = false
	s.deps.Repos.Notifications.Create(n)

	s.metrics.Record("create")
	s.logger.LogCreate(ctx, map[string]interface{}{
		"notification_id": n.ID,
		"type":            string(n.Type),
		"recipient_id":    n.RecipientID,
	})
	s.deps.Events.Publish(ctx, n.RecipientID, notifications.EventNotificationCreated, n.ID)
	return &n, nil
}

// Notify implements NotificationSink.
func (s *NotificationService) Notify(ctx context.Context, n models.Notification) {
	if _, err := s.Add(ctx, n); err != nil {
		s.logger.LogError(ctx, err, "notify")
	}
}

// List returns the current user's notifications, newest first.
func (s *NotificationService) List() []models.Notification {
	list := s.deps.Repos.Notifications.ListByRecipient(s.currentUserID)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// MarkAsRead flags one notification as read. Unknown ids are ignored.
func (s *NotificationService) MarkAsRead(ctx context.Context, id string) bool {
	n, ok := s.deps.Repos.Notifications.Update(id, func(n *models.Notification) { n.Read = true })
	if ok {
		s.metrics.Record("mark_read")
		s.deps.Events.Publish(ctx, n.RecipientID, notifications.EventNotificationsUpdated, id)
	}
	return ok
}

// MarkAllAsRead flags every notification of the current user as read and returns how
// many were touched.
func (s *NotificationService) MarkAllAsRead(ctx context.Context) int {
	n := s.deps.Repos.Notifications.UpdateByRecipient(s.currentUserID, func(n *models.Notification) { n.Read = true })
	s.metrics.Record("mark_all_read")
	s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventNotificationsUpdated, n)
	return n
}

// UnreadCount returns how many of the current user's notifications are unread.
func (s *NotificationService) UnreadCount() int {
	count := 0
	for _, n := range s.deps.Repos.Notifications.ListByRecipient(s.currentUserID) {
		if !n.Read {
			count++
		}
	}
	return count
}

// Grouped returns the activity rows for the current user. Likes on the same post are
// merged when the group_likes flag is on.
func (s *NotificationService) Grouped() []display.NotificationGroup {
	list := s.List()
	if s.deps.Flags.Enabled(featureflags.GroupLikes, s.currentUserID) {
		return display.GroupNotifications(list)
	}
	groups := make([]display.NotificationGroup, len(list))
	for i, n := range list {
		groups[i] = display.NotificationGroup{
			Notification: n,
			IDs:          []string{n.ID},
			UserIDs:      []string{n.FromUserID},
			Read:         n.Read,
		}
	}
	return groups
}

// Text renders the sentence for a group using usernames.
func (s *NotificationService) Text(g display.NotificationGroup) string {
	return display.FormatNotificationText(g, func(id string) string {
		if u, ok := s.deps.Repos.Users.GetByID(id); ok {
			return u.Username
		}
		return id
	})
}
