package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/featureflags"
	"tripsocial/internal/models"
)

func TestNotificationService_Add(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewNotificationService(f.deps, "u_me")
	ctx := context.Background()

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.Add(ctx, models.Notification{Type: "poke", FromUserID: "u_kai"})
		assertValidationError(t, err)
	})

	t.Run("missing sender", func(t *testing.T) {
		_, err := svc.Add(ctx, models.Notification{Type: models.NotificationFollow})
		assertValidationError(t, err)
	})

	t.Run("self notification is dropped", func(t *testing.T) {
		n, err := svc.Add(ctx, models.Notification{Type: models.NotificationFollow, FromUserID: "u_me"})
		assert.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("empty recipient means current user", func(t *testing.T) {
		n, err := svc.Add(ctx, models.Notification{Type: models.NotificationFollow, FromUserID: "u_kai"})
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Equal(t, "u_me", n.RecipientID)
		assert.False(t, n.Read)
		assert.NotEmpty(t, n.ID)
	})

	_, err := svc.Add(ctx, models.Notification{RecipientID: "u_maria", Type: models.NotificationFollow, FromUserID: "u_kai"})
	require.NoError(t, err)

	assert.Len(t, svc.List(), 1, "other recipients are not listed")
	assert.Contains(t, f.events.published(), "u_maria:notification.created")
}

func TestNotificationService_ReadState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewNotificationService(f.deps, "u_me")
	ctx := context.Background()

	var ids []string
	for _, from := range []string{"u_maria", "u_kai", "u_sam"} {
		n, err := svc.Add(ctx, models.Notification{Type: models.NotificationFollow, FromUserID: from})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	list := svc.List()
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "newest first")
	assert.Equal(t, 3, svc.UnreadCount())

	assert.True(t, svc.MarkAsRead(ctx, ids[0]))
	assert.False(t, svc.MarkAsRead(ctx, "missing"))
	assert.Equal(t, 2, svc.UnreadCount())

	assert.Equal(t, 3, svc.MarkAllAsRead(ctx))
	assert.Zero(t, svc.UnreadCount())
}

func TestNotificationService_Grouped(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, svc *NotificationService) {
		t.Helper()
		ctx := context.Background()
		for _, n := range []models.Notification{
			{Type: models.NotificationLike, FromUserID: "u_maria", PostID: "p1"},
			{Type: models.NotificationLike, FromUserID: "u_kai", PostID: "p1"},
			{Type: models.NotificationComment, FromUserID: "u_kai", PostID: "p1", Text: "epic"},
			{Type: models.NotificationLike, FromUserID: "u_sam", PostID: "p1"},
		} {
			_, err := svc.Add(ctx, n)
			require.NoError(t, err)
		}
	}

	t.Run("likes merge when enabled", func(t *testing.T) {
		f := newFixture(t)
		svc := NewNotificationService(f.deps, "u_me")
		seed(t, svc)

		groups := svc.Grouped()
		require.Len(t, groups, 2)
		assert.Equal(t, []string{"u_sam", "u_kai", "u_maria"}, groups[0].UserIDs)
		assert.Equal(t, "samwanders and 2 others liked your post", svc.Text(groups[0]))
		assert.Equal(t, "kai_99 commented: epic", svc.Text(groups[1]))
	})

	t.Run("one row per notification when disabled", func(t *testing.T) {
		f := newFixture(t)
		f.deps.Flags = featureflags.NewManager("group_likes=off")
		svc := NewNotificationService(f.deps, "u_me")
		seed(t, svc)

		groups := svc.Grouped()
		require.Len(t, groups, 4)
		assert.Equal(t, "samwanders liked your post", svc.Text(groups[0]))
	})
}

func TestNotificationService_ActsAsSink(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	notes := NewNotificationService(f.deps, "u_me")
	deps := f.deps
	deps.Notify = notes
	graph := NewGraphService(deps)

	_, err := graph.FollowUser(context.Background(), "u_kai", "u_me")
	require.NoError(t, err)

	list := notes.List()
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationFollow, list[0].Type)
	assert.Equal(t, "kai_99 started following you", notes.Text(notes.Grouped()[0]))
}
