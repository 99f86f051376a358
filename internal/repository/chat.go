package repository

import (
	"tripsocial/internal/models"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	// CreateConversation prepends the conversation.
	CreateConversation(conv models.Conversation)
	// AppendConversation adds the conversation at the end, used by snapshot loading.
	AppendConversation(conv models.Conversation)
	GetConversation(id string) (models.Conversation, bool)
	// FindDirect returns the conversation held by exactly the two users.
	FindDirect(userID, otherUserID string) (models.Conversation, bool)
	GetUserConversations(userID string) []models.Conversation
	UpdateConversation(id string, fn func(*models.Conversation)) (models.Conversation, bool)

	CreateMessage(msg models.Message)
	GetMessage(id string) (models.Message, bool)
	// GetMessages returns the conversation's messages oldest first.
	GetMessages(convID string) []models.Message
	UpdateMessage(id string, fn func(*models.Message)) (models.Message, bool)
	// UpdateMessages applies fn to every matching message of the conversation.
	UpdateMessages(convID string, match func(models.Message) bool, fn func(*models.Message)) int
}

// chatRepository implements ChatRepository
type chatRepository struct {
	conversations *table[models.Conversation]
	messages      *table[models.Message]
}

// NewChatRepository creates a new chat repository
func NewChatRepository() ChatRepository {
	return &chatRepository{
		conversations: newTable(func(c models.Conversation) string { return c.ID }, models.Conversation.Clone),
		messages:      newTable(func(m models.Message) string { return m.ID }, cloneMessage),
	}
}

func cloneMessage(m models.Message) models.Message {
	if m.ReadAt != nil {
		t := *m.ReadAt
		m.ReadAt = &t
	}
	return m
}

func (r *chatRepository) CreateConversation(conv models.Conversation) {
	r.conversations.prepend(conv)
}

func (r *chatRepository) AppendConversation(conv models.Conversation) {
	r.conversations.append(conv)
}

func (r *chatRepository) GetConversation(id string) (models.Conversation, bool) {
	return r.conversations.get(id)
}

func (r *chatRepository) FindDirect(userID, otherUserID string) (models.Conversation, bool) {
	return r.conversations.find(func(c models.Conversation) bool {
		return len(c.ParticipantIDs) == 2 && c.HasParticipant(userID) && c.HasParticipant(otherUserID)
	})
}

func (r *chatRepository) GetUserConversations(userID string) []models.Conversation {
	return r.conversations.filter(func(c models.Conversation) bool { return c.HasParticipant(userID) })
}

func (r *chatRepository) UpdateConversation(id string, fn func(*models.Conversation)) (models.Conversation, bool) {
	return r.conversations.update(id, fn)
}

func (r *chatRepository) CreateMessage(msg models.Message) {
	r.messages.append(msg)
}

func (r *chatRepository) GetMessage(id string) (models.Message, bool) {
	return r.messages.get(id)
}

func (r *chatRepository) GetMessages(convID string) []models.Message {
	return r.messages.filter(func(m models.Message) bool { return m.ConversationID == convID })
}

func (r *chatRepository) UpdateMessage(id string, fn func(*models.Message)) (models.Message, bool) {
	return r.messages.update(id, fn)
}

func (r *chatRepository) UpdateMessages(convID string, match func(models.Message) bool, fn func(*models.Message)) int {
	return r.messages.updateWhere(func(m models.Message) bool {
		return m.ConversationID == convID && match(m)
	}, fn)
}
