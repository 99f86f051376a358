package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripsocial/internal/models"
)

func TestCommentService_AddComment_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "open", UserID: "u_me", Caption: "x", AllowComments: true})
	f.seedPost(t, models.Post{ID: "closed", UserID: "u_me", Caption: "y"})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: "open", UserID: "u_kai", Text: "  "})
		assertValidationError(t, err)
	})

	t.Run("text too long", func(t *testing.T) {
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: "open", UserID: "u_kai", Text: strings.Repeat("a", 2201)})
		assertValidationError(t, err)
	})

	t.Run("comments turned off", func(t *testing.T) {
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: "closed", UserID: "u_kai", Text: "hi"})
		assertValidationError(t, err)
	})

	t.Run("unknown post is a no-op", func(t *testing.T) {
		c, err := svc.AddComment(ctx, AddCommentInput{PostID: "missing", UserID: "u_kai", Text: "hi"})
		assert.NoError(t, err)
		assert.Nil(t, c)
	})

	post, _ := f.repos.Posts.GetByID("open")
	assert.Equal(t, 0, post.Comments)
}

func TestCommentService_AddComment_Counters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true, Comments: 4})

	top, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_maria", Text: "gorgeous"})
	require.NoError(t, err)
	reply, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_me", Text: "thanks!", ParentID: top.ID})
	require.NoError(t, err)
	nested, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_kai", Text: "agreed", ParentID: reply.ID})
	require.NoError(t, err)

	assert.Equal(t, top.ID, nested.ParentID, "replies to replies attach to the top-level comment")

	post, _ := f.repos.Posts.GetByID("p1")
	assert.Equal(t, 7, post.Comments, "each row adds exactly one")
	parent, _ := f.repos.Comments.GetByID(top.ID)
	assert.Equal(t, 2, parent.RepliesCount)
}

func TestCommentService_AddComment_PostDeletedMeanwhile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})

	var (
		c   *models.Comment
		err error
	)
	duringWrite(f.repos,
		func() {
			c, err = svc.AddComment(context.Background(), AddCommentInput{PostID: "p1", UserID: "u_kai", Text: "hi"})
		},
		func() { f.repos.Posts.Delete("p1") },
	)

	assert.NoError(t, err)
	assert.Nil(t, c)
	assert.Empty(t, f.repos.Comments.ListByPost("p1"), "no comment left behind on a deleted post")
	assert.Empty(t, f.sink.received())
}

func TestCommentService_AddComment_Notifications(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})

	top, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_maria", Text: "cc @samwanders @alex"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_kai", Text: "me too", ParentID: top.ID})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_me", Text: "my own post"})
	require.NoError(t, err)

	var got []string
	for _, n := range f.sink.received() {
		got = append(got, string(n.Type)+">"+n.RecipientID)
	}
	assert.Equal(t, []string{
		"comment>u_me",
		"mention>u_sam",
		"comment>u_me",
		"comment>u_maria",
	}, got, "owner is not notified twice for a mention and never for own comments")
}

func TestCommentService_Ordering(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	// Insert out of chronological order to prove sorting.
	for _, c := range []models.Comment{
		{ID: "c2", PostID: "p1", UserID: "u_kai", Text: "b", CreatedAt: t2},
		{ID: "c3", PostID: "p1", UserID: "u_kai", Text: "c", CreatedAt: t3},
		{ID: "c1", PostID: "p1", UserID: "u_kai", Text: "a", CreatedAt: t1},
		{ID: "r3", PostID: "p1", UserID: "u_sam", Text: "z", ParentID: "c1", CreatedAt: t3},
		{ID: "r1", PostID: "p1", UserID: "u_sam", Text: "x", ParentID: "c1", CreatedAt: t1},
		{ID: "r2", PostID: "p1", UserID: "u_sam", Text: "y", ParentID: "c1", CreatedAt: t2},
	} {
		f.repos.Comments.Create(c)
	}

	ids := func(cs []models.Comment) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.ID
		}
		return out
	}

	assert.Equal(t, []string{"c3", "c2", "c1"}, ids(svc.GetComments("u_me", "p1")))
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(svc.GetReplies("u_me", "c1")))
}

func TestCommentService_DeleteComment_RemovesRepliesAndFixesCounters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})

	top, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_maria", Text: "first"})
	require.NoError(t, err)
	other, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_kai", Text: "second"})
	require.NoError(t, err)
	for _, text := range []string{"r1", "r2"} {
		_, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_sam", Text: text, ParentID: top.ID})
		require.NoError(t, err)
	}

	parent, _ := f.repos.Comments.GetByID(top.ID)
	require.Equal(t, 2, parent.RepliesCount)
	post, _ := f.repos.Posts.GetByID("p1")
	require.Equal(t, 4, post.Comments)

	svc.ToggleLikeComment(ctx, "u_me", top.ID)

	res := svc.DeleteComment(ctx, top.ID)
	assert.Equal(t, 3, res.Comments)
	assert.Equal(t, 1, res.Likes)

	post, _ = f.repos.Posts.GetByID("p1")
	assert.Equal(t, 1, post.Comments, "post counter drops by every removed row")
	remaining := f.repos.Comments.ListByPost("p1")
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].ID)
	assert.False(t, f.repos.Likes.Exists("u_me", models.CommentTarget(top.ID)))
}

func TestCommentService_DeleteReply_DecrementsParent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})

	top, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_maria", Text: "first"})
	require.NoError(t, err)
	reply, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_kai", Text: "reply", ParentID: top.ID})
	require.NoError(t, err)

	res := svc.DeleteComment(ctx, reply.ID)
	assert.Equal(t, 1, res.Comments)

	parent, _ := f.repos.Comments.GetByID(top.ID)
	assert.Equal(t, 0, parent.RepliesCount)
	post, _ := f.repos.Posts.GetByID("p1")
	assert.Equal(t, 1, post.Comments)

	assert.Equal(t, CascadeResult{}, svc.DeleteComment(ctx, "missing"))
}

func TestCommentService_ToggleLikeComment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCommentService(f.deps)
	ctx := context.Background()
	f.seedPost(t, models.Post{ID: "p1", UserID: "u_me", Caption: "x", AllowComments: true})
	c, err := svc.AddComment(ctx, AddCommentInput{PostID: "p1", UserID: "u_maria", Text: "nice"})
	require.NoError(t, err)

	liked, ok := svc.ToggleLikeComment(ctx, "u_me", c.ID)
	require.True(t, ok)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.Liked)

	got, _ := svc.GetComment("u_me", c.ID)
	assert.True(t, got.Liked)

	unliked, _ := svc.ToggleLikeComment(ctx, "u_me", c.ID)
	assert.Equal(t, 0, unliked.Likes)
	assert.False(t, unliked.Liked)
}
