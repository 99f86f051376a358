package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"tripsocial/internal/featureflags"
	"tripsocial/internal/lifecycle"
	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// DefaultAutoReplyDelay is how long the simulated counterparty takes to answer.
const DefaultAutoReplyDelay = 1500 * time.Millisecond

// AutoReplyPhrases is the pool the simulated counterparty answers from.
var AutoReplyPhrases = []string{
	"That sounds amazing! 😍",
	"Haha, love it!",
	"When are you going?",
	"I've always wanted to go there!",
	"Send me more pics!",
	"Can't wait to hear all about it ✈️",
	"Let's plan something together soon",
	"Wow, so jealous right now",
}

// ChatService provides conversation and message logic for the session's current user.
// Pending auto-replies are owned by the service scope and end with Close.
type ChatService struct {
	deps          Deps
	currentUserID string
	delay         time.Duration
	phrases       []string
	pick          func(n int) int
	scope         *lifecycle.Scope
	logger        *observability.StoreLogger
	metrics       *observability.StoreMetrics
}

// ChatOption customises a ChatService.
type ChatOption func(*ChatService)

// WithAutoReplyDelay sets the delay before the counterparty answers.
func WithAutoReplyDelay(d time.Duration) ChatOption {
	return func(s *ChatService) { s.delay = d }
}

// WithPhrasePicker replaces the uniform random phrase choice.
func WithPhrasePicker(pick func(n int) int) ChatOption {
	return func(s *ChatService) { s.pick = pick }
}

// NewChatService returns a new ChatService. parent bounds the lifetime of scheduled
// auto-replies in addition to Close.
func NewChatService(parent context.Context, deps Deps, currentUserID string, opts ...ChatOption) *ChatService {
	s := &ChatService{
		deps:          deps.withDefaults(),
		currentUserID: currentUserID,
		delay:         DefaultAutoReplyDelay,
		phrases:       AutoReplyPhrases,
		pick:          rand.Intn,
		scope:         lifecycle.NewScope(parent),
		logger:        observability.NewStoreLogger("chat"),
		metrics:       observability.NewStoreMetrics("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentUserID returns the user the service acts for.
func (s *ChatService) CurrentUserID() string {
	return s.currentUserID
}

// Conversations returns the current user's conversations, most recent first.
func (s *ChatService) Conversations() []models.Conversation {
	return s.deps.Repos.Chat.GetUserConversations(s.currentUserID)
}

// GetConversation returns one conversation.
func (s *ChatService) GetConversation(id string) (models.Conversation, bool) {
	return s.deps.Repos.Chat.GetConversation(id)
}

// Messages returns the conversation's messages, oldest first.
func (s *ChatService) Messages(conversationID string) []models.Message {
	return s.deps.Repos.Chat.GetMessages(conversationID)
}

// CreateConversation returns the direct conversation with participantID, creating it
// at the head of the list when none exists. Participant snapshots come from the user
// repository.
func (s *ChatService) CreateConversation(ctx context.Context, participantID string) (*models.Conversation, error) {
	if blank(participantID) {
		return nil, models.NewValidationError("Participant is required")
	}
	if participantID == s.currentUserID {
		return nil, models.NewValidationError("Cannot start a conversation with yourself")
	}

	var (
		conv    models.Conversation
		created bool
	)
	repos := s.deps.Repos
	repos.Atomic(func() {
		if existing, ok := repos.Chat.FindDirect(s.currentUserID, participantID); ok {
			conv = existing
			return
		}
		ids := []string{s.currentUserID, participantID}
		conv = models.Conversation{
			ID:             repository.NewID(),
			ParticipantIDs: ids,
			Participants:   s.snapshots(ids),
			CreatedAt:      s.deps.Now(),
		}
		repos.Chat.CreateConversation(conv)
		created = true
	})

	if created {
		s.metrics.Record("create_conversation")
		s.logger.LogCreate(ctx, map[string]interface{}{"conversation_id": conv.ID, "participant_id": participantID})
		s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventConversationUpdated, conv.ID)
	}
	return &conv, nil
}

func (s *ChatService) snapshots(ids []string) []models.Participant {
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.deps.Repos.Users.GetByID(id); ok {
			out = append(out, u.Snapshot())
			continue
		}
		out = append(out, models.Participant{ID: id})
	}
	return out
}

// SendMessage appends a message from the current user, updates the conversation's last
// message and clears the sender's typing flag. It then schedules the counterparty's
// auto-reply. An unknown conversation is a silent no-op and returns nil.
func (s *ChatService) SendMessage(ctx context.Context, conversationID string, payload models.MessagePayload) (*models.Message, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	span, ctx := observability.StartStoreSpan(ctx, "chat", "send_message")
	defer span.End()

	conv, ok := s.deps.Repos.Chat.GetConversation(conversationID)
	if !ok || !conv.HasParticipant(s.currentUserID) {
		return nil, nil
	}

	msg := models.Message{
		ID:             repository.NewID(),
		ConversationID: conversationID,
		SenderID:       s.currentUserID,
		RecipientID:    conv.Counterpart(s.currentUserID),
		Payload:        payload,
		CreatedAt:      s.deps.Now(),
	}

	repos := s.deps.Repos
	repos.Atomic(func() {
		repos.Chat.CreateMessage(msg)
		repos.Chat.UpdateConversation(conversationID, func(c *models.Conversation) {
			last := msg
			c.LastMessage = &last
			c.TypingUserIDs = without(c.TypingUserIDs, s.currentUserID)
		})
	})

	s.metrics.Record("send_message")
	s.logger.LogCreate(ctx, map[string]interface{}{
		"message_id":      msg.ID,
		"conversation_id": conversationID,
		"kind":            string(payload.Kind()),
	})
	s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventMessageSent, conversationID)

	if msg.RecipientID != "" && s.deps.Flags.Enabled(featureflags.AutoReply, s.currentUserID) {
		s.scheduleAutoReply(ctx, conversationID, msg.RecipientID)
	}
	return &msg, nil
}

func validatePayload(payload models.MessagePayload) error {
	switch p := payload.(type) {
	case nil:
		return models.NewValidationError("Message payload is required")
	case models.TextPayload:
		if blank(p.Text) {
			return models.NewValidationError("Message text is required")
		}
	case models.SharedPostPayload:
		if blank(p.PostID) {
			return models.NewValidationError("Shared post is required")
		}
	case models.MediaPayload:
		if blank(p.URL) {
			return models.NewValidationError("Media URL is required")
		}
		if p.MediaType != "photo" && p.MediaType != "video" {
			return models.NewValidationError("Media type must be photo or video")
		}
	}
	return nil
}

func (s *ChatService) scheduleAutoReply(ctx context.Context, conversationID, fromUserID string) {
	correlationID := observability.ExtractCorrelationID(ctx)
	observability.AutoReplies.WithLabelValues("scheduled").Inc()

	s.scope.AfterFunc(s.delay, func(scopeCtx context.Context) error {
		if correlationID != "" {
			scopeCtx = observability.WithCorrelationID(scopeCtx, correlationID)
		}
		fields := map[string]interface{}{"conversation_id": conversationID, "from_user_id": fromUserID}
		observability.LogAsyncOperationStart(scopeCtx, "auto_reply", fields)

		reply := models.Message{
			ID:             repository.NewID(),
			ConversationID: conversationID,
			SenderID:       fromUserID,
			RecipientID:    s.currentUserID,
			Payload:        models.TextPayload{Text: s.phrases[s.pick(len(s.phrases))]},
			CreatedAt:      s.deps.Now(),
		}

		var delivered bool
		repos := s.deps.Repos
		repos.Atomic(func() {
			if _, ok := repos.Chat.GetConversation(conversationID); !ok {
				return
			}
			repos.Chat.CreateMessage(reply)
			repos.Chat.UpdateConversation(conversationID, func(c *models.Conversation) {
				last := reply
				c.LastMessage = &last
				c.UnreadCount++
				c.TypingUserIDs = without(c.TypingUserIDs, fromUserID)
			})
			delivered = true
		})

		if !delivered {
			observability.AutoReplies.WithLabelValues("cancelled").Inc()
			observability.LogAsyncOperationError(scopeCtx, "auto_reply",
				models.NewNotFoundError("Conversation", conversationID), fields)
			return nil
		}
		observability.AutoReplies.WithLabelValues("delivered").Inc()
		s.deps.Events.Publish(scopeCtx, s.currentUserID, notifications.EventMessageReceived, conversationID)
		observability.LogAsyncOperationEnd(scopeCtx, "auto_reply", fields)
		return nil
	})
}

// PendingReplies returns how many auto-replies are scheduled or running.
func (s *ChatService) PendingReplies() int {
	return s.scope.Pending()
}

// SharePost sends a message whose payload references a post.
func (s *ChatService) SharePost(ctx context.Context, conversationID, postID, thumbnail, caption, username string) (*models.Message, error) {
	return s.SendMessage(ctx, conversationID, models.SharedPostPayload{
		PostID:    postID,
		Thumbnail: thumbnail,
		Caption:   caption,
		Username:  username,
	})
}

// MarkAsRead marks every message addressed to the current user in the conversation as
// read and zeroes its unread count. It returns how many messages changed.
func (s *ChatService) MarkAsRead(ctx context.Context, conversationID string) int {
	now := s.deps.Now()
	var changed int
	repos := s.deps.Repos
	repos.Atomic(func() {
		if _, ok := repos.Chat.UpdateConversation(conversationID, func(c *models.Conversation) { c.UnreadCount = 0 }); !ok {
			return
		}
		changed = repos.Chat.UpdateMessages(conversationID,
			func(m models.Message) bool { return m.RecipientID == s.currentUserID && !m.Read },
			func(m *models.Message) {
				m.Read = true
				readAt := now
				m.ReadAt = &readAt
			})
	})
	if changed > 0 {
		s.metrics.Record("mark_read")
		s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventConversationUpdated, conversationID)
	}
	return changed
}

// SetTyping adds or removes the current user from the conversation's typing set.
func (s *ChatService) SetTyping(ctx context.Context, conversationID string, typing bool) {
	_, ok := s.deps.Repos.Chat.UpdateConversation(conversationID, func(c *models.Conversation) {
		c.TypingUserIDs = without(c.TypingUserIDs, s.currentUserID)
		if typing {
			c.TypingUserIDs = append(c.TypingUserIDs, s.currentUserID)
		}
	})
	if ok {
		s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventConversationUpdated, conversationID)
	}
}

// ReactToMessage sets a single emoji reaction on the message. An empty emoji clears it.
func (s *ChatService) ReactToMessage(ctx context.Context, messageID, emoji string) (models.Message, bool, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji != "" && !validEmoji(emoji) {
		return models.Message{}, false, models.NewValidationError("Reaction must be a single emoji")
	}
	msg, ok := s.deps.Repos.Chat.UpdateMessage(messageID, func(m *models.Message) { m.Reaction = emoji })
	if !ok {
		return models.Message{}, false, nil
	}
	s.metrics.Record("react")
	s.deps.Events.Publish(ctx, s.currentUserID, notifications.EventConversationUpdated, msg.ConversationID)
	return msg, true, nil
}

// Close cancels every pending auto-reply and waits for running ones to finish.
func (s *ChatService) Close() error {
	return s.scope.Close()
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
