package repository

import (
	"testing"

	"tripsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_FindDirect(t *testing.T) {
	repo := NewChatRepository()
	repo.CreateConversation(models.Conversation{ID: "c1", ParticipantIDs: []string{"me", "ana"}})
	repo.CreateConversation(models.Conversation{ID: "c2", ParticipantIDs: []string{"me", "ben"}})

	conv, ok := repo.FindDirect("ana", "me")
	require.True(t, ok)
	assert.Equal(t, "c1", conv.ID)

	_, ok = repo.FindDirect("ana", "ben")
	assert.False(t, ok)

	convs := repo.GetUserConversations("me")
	require.Len(t, convs, 2)
	assert.Equal(t, "c2", convs[0].ID, "newest conversation first")
}

func TestChatRepository_ConversationCopiesAreDetached(t *testing.T) {
	repo := NewChatRepository()
	repo.CreateConversation(models.Conversation{ID: "c1", ParticipantIDs: []string{"me", "ana"}})

	conv, _ := repo.GetConversation("c1")
	conv.ParticipantIDs[0] = "mallory"

	again, _ := repo.GetConversation("c1")
	assert.Equal(t, "me", again.ParticipantIDs[0])
}

func TestChatRepository_UpdateMessages(t *testing.T) {
	repo := NewChatRepository()
	repo.CreateMessage(models.Message{ID: "m1", ConversationID: "c1", RecipientID: "me"})
	repo.CreateMessage(models.Message{ID: "m2", ConversationID: "c1", RecipientID: "ana"})
	repo.CreateMessage(models.Message{ID: "m3", ConversationID: "c2", RecipientID: "me"})

	n := repo.UpdateMessages("c1", func(m models.Message) bool { return m.RecipientID == "me" }, func(m *models.Message) {
		m.Read = true
	})
	assert.Equal(t, 1, n)

	msgs := repo.GetMessages("c1")
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Read)
	assert.False(t, msgs[1].Read)

	other, _ := repo.GetMessage("m3")
	assert.False(t, other.Read)
}
