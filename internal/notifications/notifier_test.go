package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUserWithoutRedis(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), Event{Type: EventPostCreated, UserID: "u_me"})
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   string
		expected string
	}{
		{"u_me", "events:user:u_me"},
		{"u_maria", "events:user:u_maria"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestHub_RelaysThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The receiving hub only listens; the sending hub only relays.
	receiver := NewHub(4, nil)
	defer func() { _ = receiver.Shutdown(context.Background()) }()
	require.NoError(t, receiver.StartWiring(ctx, NewNotifier(rdb)))

	sub, err := receiver.Subscribe("u_me")
	require.NoError(t, err)

	sender := NewHub(4, NewNotifier(rdb))
	defer func() { _ = sender.Shutdown(context.Background()) }()
	sender.Publish(context.Background(), "u_me", EventNotificationCreated, map[string]string{"id": "n1"})

	select {
	case e := <-sub.Events():
		assert.Equal(t, EventNotificationCreated, e.Type)
		assert.Equal(t, "u_me", e.UserID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("expected relayed event")
	}
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		atomic.AddInt32(&received, 1)
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), Event{Type: "before-cancel", UserID: "u_me"}))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, testEventuallyTimeout, testPollInterval)

	cancel()
	time.Sleep(20 * time.Millisecond)

	// Drain the pre-cancel message to avoid false positives.
	select {
	case <-payloads:
	default:
	}

	require.NoError(t, n.PublishUser(context.Background(), Event{Type: "after-cancel", UserID: "u_me"}))
	assert.Never(t, func() bool {
		select {
		case <-payloads:
			return true
		default:
			return false
		}
	}, 10*testPollInterval, testPollInterval)
}
