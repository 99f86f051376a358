package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_PublishDeliversToUserOnly(t *testing.T) {
	hub := NewHub(4, nil)
	defer func() { _ = hub.Shutdown(context.Background()) }()

	me, err := hub.Subscribe("u_me")
	require.NoError(t, err)
	other, err := hub.Subscribe("u_other")
	require.NoError(t, err)

	hub.Publish(context.Background(), "u_me", EventPostUpdated, map[string]string{"post_id": "p1"})

	select {
	case e := <-me.Events():
		assert.Equal(t, EventPostUpdated, e.Type)
		assert.Equal(t, "u_me", e.UserID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("expected event for u_me")
	}

	select {
	case e := <-other.Events():
		t.Fatalf("unexpected event for other user: %+v", e)
	default:
	}
}

func TestHub_FullBufferDropsAndMarks(t *testing.T) {
	hub := NewHub(2, nil)
	defer func() { _ = hub.Shutdown(context.Background()) }()

	sub, err := hub.Subscribe("u_me")
	require.NoError(t, err)

	ctx := context.Background()
	hub.Publish(ctx, "u_me", EventCommentAdded, nil)
	hub.Publish(ctx, "u_me", EventCommentAdded, nil)
	hub.Publish(ctx, "u_me", EventCommentAdded, nil)
	assert.Equal(t, 1, sub.Dropped())

	<-sub.Events()
	<-sub.Events()

	hub.Publish(ctx, "u_me", EventMessageReceived, nil)
	marker := <-sub.Events()
	assert.True(t, marker.Dropped())
	assert.Equal(t, 1, marker.Payload)
	next := <-sub.Events()
	assert.Equal(t, EventMessageReceived, next.Type)
	assert.Equal(t, 0, sub.Dropped())
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, nil)
	sub, err := hub.Subscribe("u_me")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("u_me"))

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Subscribers("u_me"))

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.False(t, sub.TrySend(Event{Type: EventPostCreated}))
}

func TestHub_ShutdownRejectsSubscribers(t *testing.T) {
	hub := NewHub(1, nil)
	sub, err := hub.Subscribe("u_me")
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-sub.Events()
	assert.False(t, open)

	_, err = hub.Subscribe("u_me")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub(1, nil)
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxSubsPerUser; i++ {
		_, err := hub.Subscribe("u_me")
		require.NoError(t, err)
	}
	_, err := hub.Subscribe("u_me")
	assert.Error(t, err)
}
