package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/models"
	"tripsocial/internal/repository"
)

var loadTime = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func applyEmbedded(t *testing.T) (*repository.Set, Summary) {
	t.Helper()
	snap, err := Load()
	require.NoError(t, err)

	repos := repository.NewSet()
	sum, err := Apply(context.Background(), repos, snap, loadTime)
	require.NoError(t, err)
	return repos, sum
}

func TestLoad_EmbeddedSnapshotApplies(t *testing.T) {
	repos, sum := applyEmbedded(t)

	assert.Equal(t, len(repos.Users.List()), sum.Users)
	assert.Positive(t, sum.Posts)
	assert.Positive(t, sum.Messages)

	me, ok := repos.Users.GetByID("u_me")
	require.True(t, ok)
	assert.Equal(t, "alex", me.Username)

	posts := repos.Posts.List()
	require.NotEmpty(t, posts)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt), "snapshot posts are newest first")
	}
}

func TestApply_Timestamps(t *testing.T) {
	repos, _ := applyEmbedded(t)

	post, ok := repos.Posts.GetByID("p_maria_1")
	require.True(t, ok)
	assert.Equal(t, loadTime.Add(-2*time.Hour), post.CreatedAt)

	story, ok := repos.Stories.GetByID("s_maria")
	require.True(t, ok)
	assert.Equal(t, story.CreatedAt.Add(models.StoryTTL), story.ExpiresAt)
	assert.True(t, story.Active(loadTime))
}

func TestApply_Conversations(t *testing.T) {
	repos, _ := applyEmbedded(t)

	conv, ok := repos.Chat.GetConversation("conv_maria")
	require.True(t, ok)
	require.Len(t, conv.Participants, 2)
	assert.Equal(t, "maria.travels", conv.Participants[1].Username)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "m_2", conv.LastMessage.ID)
	assert.Equal(t, "u_me", conv.LastMessage.RecipientID)

	shared, ok := repos.Chat.GetMessage("m_3")
	require.True(t, ok)
	payload, ok := shared.Payload.(models.SharedPostPayload)
	require.True(t, ok)
	assert.Equal(t, "maria.travels", payload.Username)
	require.NotNil(t, shared.ReadAt)
}

func TestApply_Relations(t *testing.T) {
	repos, _ := applyEmbedded(t)

	assert.True(t, repos.Likes.Exists("u_me", models.PostTarget("p_maria_1")))
	assert.True(t, repos.Likes.Exists("u_me", models.CommentTarget("c_1")))
	assert.True(t, repos.Bookmarks.Exists("u_me", "p_maria_2"))
	assert.True(t, repos.Graph.HasFollow(models.Edge{From: "u_me", To: "u_maria"}))

	reply, ok := repos.Comments.GetByID("c_2")
	require.True(t, ok)
	assert.Equal(t, "c_1", reply.ParentID)

	notes := repos.Notifications.ListByRecipient("u_me")
	assert.NotEmpty(t, notes)
}

func TestApply_RejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown post author", `
users: [{id: u_a}]
posts: [{id: p1, user_id: u_missing}]`},
		{"reply to reply", `
users: [{id: u_a}]
posts: [{id: p1, user_id: u_a}]
comments:
  - {id: c1, post_id: p1, user_id: u_a}
  - {id: c2, post_id: p1, user_id: u_a, parent_id: c1}
  - {id: c3, post_id: p1, user_id: u_a, parent_id: c2}`},
		{"like with two targets", `
users: [{id: u_a}]
posts: [{id: p1, user_id: u_a}]
comments: [{id: c1, post_id: p1, user_id: u_a}]
likes: [{user_id: u_a, post_id: p1, comment_id: c1}]`},
		{"self follow", `
users: [{id: u_a}]
follows: [{follower_id: u_a, following_id: u_a}]`},
		{"sender outside conversation", `
users: [{id: u_a}, {id: u_b}, {id: u_c}]
conversations: [{id: cv, participant_ids: [u_a, u_b]}]
messages: [{id: m1, conversation_id: cv, sender_id: u_c, text: hi}]`},
		{"unknown notification type", `
users: [{id: u_a}, {id: u_b}]
notifications: [{id: n1, recipient_id: u_a, from_user_id: u_b, type: poke}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			repos := repository.NewSet()
			_, err = Apply(context.Background(), repos, snap, loadTime)
			assert.Error(t, err)
			assert.Empty(t, repos.Users.List(), "nothing is written")
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("users: [{id: u_a, nickname: x}]"))
	assert.Error(t, err)
}
