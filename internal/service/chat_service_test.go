package service

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/featureflags"
	"tripsocial/internal/models"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

func newChat(t *testing.T, f *fixture, delay time.Duration) *ChatService {
	t.Helper()
	svc := NewChatService(context.Background(), f.deps, "u_me",
		WithAutoReplyDelay(delay),
		WithPhrasePicker(func(int) int { return 0 }),
	)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestChatService_CreateConversation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := newChat(t, f, time.Hour)
	ctx := context.Background()

	_, err := svc.CreateConversation(ctx, "u_me")
	assertValidationError(t, err)
	_, err = svc.CreateConversation(ctx, " ")
	assertValidationError(t, err)

	conv, err := svc.CreateConversation(ctx, "u_maria")
	require.NoError(t, err)
	require.Len(t, conv.Participants, 2)
	assert.Equal(t, "maria.travels", conv.Participants[1].Username)

	again, err := svc.CreateConversation(ctx, "u_maria")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID, "an existing direct conversation is reused")
	assert.Len(t, svc.Conversations(), 1)
}

func TestChatService_SendMessage_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := newChat(t, f, time.Hour)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_kai")
	require.NoError(t, err)

	for name, payload := range map[string]models.MessagePayload{
		"nil":           nil,
		"blank text":    models.TextPayload{Text: "  "},
		"missing post":  models.SharedPostPayload{Username: "kai_99"},
		"missing media": models.MediaPayload{MediaType: "photo"},
		"bad media":     models.MediaPayload{URL: "a.gif", MediaType: "gif"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, conv.ID, payload)
			assertValidationError(t, err)
		})
	}

	msg, err := svc.SendMessage(ctx, "missing", models.TextPayload{Text: "hi"})
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, svc.Messages(conv.ID))
	assert.Zero(t, svc.PendingReplies())
}

func TestChatService_AutoReplyArrives(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := newChat(t, f, 10*time.Millisecond)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_maria")
	require.NoError(t, err)

	svc.SetTyping(ctx, conv.ID, true)
	sent, err := svc.SendMessage(ctx, conv.ID, models.TextPayload{Text: "Landing in Lima tomorrow"})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, "u_maria", sent.RecipientID)

	got, _ := svc.GetConversation(conv.ID)
	assert.Empty(t, got.TypingUserIDs, "sending clears the typing flag")
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, sent.ID, got.LastMessage.ID)

	assert.Eventually(t, func() bool {
		c, _ := svc.GetConversation(conv.ID)
		return c.UnreadCount == 1
	}, time.Second, 5*time.Millisecond)

	msgs := svc.Messages(conv.ID)
	require.Len(t, msgs, 2)
	reply := msgs[1]
	assert.Equal(t, "u_maria", reply.SenderID)
	assert.Equal(t, models.TextPayload{Text: AutoReplyPhrases[0]}, reply.Payload)

	got, _ = svc.GetConversation(conv.ID)
	assert.Equal(t, reply.ID, got.LastMessage.ID)
	assert.Contains(t, f.events.published(), "u_me:"+"message.received")

	assert.Equal(t, 1, svc.MarkAsRead(ctx, conv.ID))
	got, _ = svc.GetConversation(conv.ID)
	assert.Zero(t, got.UnreadCount)
	assert.Zero(t, svc.MarkAsRead(ctx, conv.ID))
}

func TestChatService_CloseCancelsPendingReply(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := newChat(t, f, 50*time.Millisecond)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_sam")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.ID, models.TextPayload{Text: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.PendingReplies())

	require.NoError(t, svc.Close())
	assert.Zero(t, svc.PendingReplies())

	assert.Never(t, func() bool {
		return len(svc.Messages(conv.ID)) > 1
	}, 150*time.Millisecond, 10*time.Millisecond)
}

// chatRepoStub overrides GetConversation of an embedded ChatRepository.
type chatRepoStub struct {
	repository.ChatRepository
	getConversationFn func(id string) (models.Conversation, bool)
}

func (s *chatRepoStub) GetConversation(id string) (models.Conversation, bool) {
	return s.getConversationFn(id)
}

func TestChatService_AutoReplyConversationGone(t *testing.T) {
	// Swaps the global logger, so not parallel.
	var buf bytes.Buffer
	prev := observability.GlobalLogger
	observability.GlobalLogger = observability.NewLogger(&buf)
	t.Cleanup(func() { observability.GlobalLogger = prev })

	f := newFixture(t)
	svc := newChat(t, f, 10*time.Millisecond)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_kai")
	require.NoError(t, err)

	var gone atomic.Bool
	chat := f.repos.Chat
	f.repos.Chat = &chatRepoStub{
		ChatRepository: chat,
		getConversationFn: func(id string) (models.Conversation, bool) {
			if gone.Load() {
				return models.Conversation{}, false
			}
			return chat.GetConversation(id)
		},
	}
	cancelled := testutil.ToFloat64(observability.AutoReplies.WithLabelValues("cancelled"))

	_, err = svc.SendMessage(ctx, conv.ID, models.TextPayload{Text: "still there?"})
	require.NoError(t, err)
	gone.Store(true)

	assert.Eventually(t, func() bool { return svc.PendingReplies() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.Close())

	assert.Len(t, chat.GetMessages(conv.ID), 1, "no reply lands in a missing conversation")
	assert.Equal(t, cancelled+1, testutil.ToFloat64(observability.AutoReplies.WithLabelValues("cancelled")))
	assert.Contains(t, buf.String(), "async operation failed")
	assert.Contains(t, buf.String(), conv.ID)
	assert.NotContains(t, f.events.published(), "u_me:message.received")
}

func TestChatService_AutoReplyFlagOff(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.Flags = featureflags.NewManager("auto_reply=off")
	svc := newChat(t, f, time.Millisecond)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_kai")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.ID, models.MediaPayload{URL: "clip.mp4", MediaType: "video"})
	require.NoError(t, err)

	assert.Zero(t, svc.PendingReplies())
	got, _ := svc.GetConversation(conv.ID)
	assert.Equal(t, "Sent a video", got.LastMessage.Payload.Preview())
}

func TestChatService_SharePost(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.Flags = featureflags.NewManager("auto_reply=off")
	svc := newChat(t, f, time.Hour)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_kai")
	require.NoError(t, err)

	msg, err := svc.SharePost(ctx, conv.ID, "p1", "thumb.jpg", "Andes", "maria.travels")
	require.NoError(t, err)
	require.NotNil(t, msg)

	shared, ok := msg.Payload.(models.SharedPostPayload)
	require.True(t, ok)
	assert.Equal(t, "p1", shared.PostID)
	assert.Equal(t, "Shared a post by @maria.travels", shared.Preview())
}

func TestChatService_ReactToMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := newChat(t, f, time.Hour)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "u_kai")
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, conv.ID, models.TextPayload{Text: "hi"})
	require.NoError(t, err)

	_, _, err = svc.ReactToMessage(ctx, msg.ID, "yes")
	assertValidationError(t, err)

	got, ok, err := svc.ReactToMessage(ctx, msg.ID, "👍")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "👍", got.Reaction)

	got, _, err = svc.ReactToMessage(ctx, msg.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.Reaction)

	_, ok, err = svc.ReactToMessage(ctx, "missing", "👍")
	assert.NoError(t, err)
	assert.False(t, ok)
}
