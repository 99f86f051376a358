package repository

import (
	"tripsocial/internal/models"
)

// NotificationRepository stores notifications, newest first.
type NotificationRepository interface {
	Create(n models.Notification)
	Append(n models.Notification)
	GetByID(id string) (models.Notification, bool)
	ListByRecipient(recipientID string) []models.Notification
	Update(id string, fn func(*models.Notification)) (models.Notification, bool)
	UpdateByRecipient(recipientID string, fn func(*models.Notification)) int
	DeleteWhere(match func(models.Notification) bool) int
}

type notificationRepository struct {
	notifications *table[models.Notification]
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository() NotificationRepository {
	return &notificationRepository{
		notifications: newTable(func(n models.Notification) string { return n.ID }, nil),
	}
}

func (r *notificationRepository) Create(n models.Notification) {
	r.notifications.prepend(n)
}

func (r *notificationRepository) Append(n models.Notification) {
	r.notifications.append(n)
}

func (r *notificationRepository) GetByID(id string) (models.Notification, bool) {
	return r.notifications.get(id)
}

func (r *notificationRepository) ListByRecipient(recipientID string) []models.Notification {
	return r.notifications.filter(func(n models.Notification) bool { return n.RecipientID == recipientID })
}

func (r *notificationRepository) Update(id string, fn func(*models.Notification)) (models.Notification, bool) {
	return r.notifications.update(id, fn)
}

func (r *notificationRepository) UpdateByRecipient(recipientID string, fn func(*models.Notification)) int {
	return r.notifications.updateWhere(func(n models.Notification) bool { return n.RecipientID == recipientID }, fn)
}

func (r *notificationRepository) DeleteWhere(match func(models.Notification) bool) int {
	return len(r.notifications.removeWhere(match))
}
