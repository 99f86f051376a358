package service

import (
	"context"
	"sort"
	"strings"

	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// CommentService owns comments, replies and comment likes.
type CommentService struct {
	deps    Deps
	logger  *observability.StoreLogger
	metrics *observability.StoreMetrics
}

// AddCommentInput is the input for commenting on a post. A non-empty ParentID makes
// the comment a reply.
type AddCommentInput struct {
	PostID   string
	UserID   string
	Text     string
	ParentID string
}

// NewCommentService returns a new CommentService.
func NewCommentService(deps Deps) *CommentService {
	return &CommentService{
		deps:    deps.withDefaults(),
		logger:  observability.NewStoreLogger("comments"),
		metrics: observability.NewStoreMetrics("comments"),
	}
}

// AddComment appends the comment and bumps the post's comment counter by one. Replies
// also bump the parent's reply counter; a reply to a reply is attached to the
// top-level comment so threads stay one level deep. Unknown posts or parents are a
// silent no-op and return nil.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	const maxCommentLen = 2200

	if blank(in.Text) {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 2200 characters)")
	}

	comment := models.Comment{
		ID:        repository.NewID(),
		PostID:    in.PostID,
		UserID:    in.UserID,
		Text:      strings.TrimSpace(in.Text),
		CreatedAt: s.deps.Now(),
	}

	var (
		post    models.Post
		parent  models.Comment
		created bool
		err     error
	)
	repos := s.deps.Repos
	repos.Atomic(func() {
		var ok bool
		if post, ok = repos.Posts.GetByID(in.PostID); !ok {
			return
		}
		if !post.AllowComments {
			err = models.NewValidationError("Comments are turned off for this post")
			return
		}
		if in.ParentID != "" {
			if parent, ok = repos.Comments.GetByID(in.ParentID); !ok {
				return
			}
			if parent.PostID != in.PostID {
				err = models.NewValidationError("Reply must be on the same post as its parent")
				return
			}
			if parent.IsReply() {
				if parent, ok = repos.Comments.GetByID(parent.ParentID); !ok {
					return
				}
			}
			comment.ParentID = parent.ID
		}

		repos.Comments.Create(comment)
		repos.Posts.Update(comment.PostID, func(p *models.Post) { p.Comments++ })
		if comment.IsReply() {
			repos.Comments.Update(comment.ParentID, func(c *models.Comment) { c.RepliesCount++ })
		}
		created = true
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	s.metrics.Record("create")
	s.logger.LogCreate(ctx, map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"parent_id":  comment.ParentID,
	})

	notified := []string{post.UserID}
	if post.UserID != comment.UserID {
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: post.UserID,
			Type:        models.NotificationComment,
			FromUserID:  comment.UserID,
			PostID:      comment.PostID,
			CommentID:   comment.ID,
			Text:        comment.Text,
		})
	}
	if comment.IsReply() && parent.UserID != comment.UserID && parent.UserID != post.UserID {
		notified = append(notified, parent.UserID)
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: parent.UserID,
			Type:        models.NotificationComment,
			FromUserID:  comment.UserID,
			PostID:      comment.PostID,
			CommentID:   comment.ID,
			Text:        comment.Text,
		})
	}
	notifyMentions(ctx, s.deps, comment.UserID, comment.Text,
		models.Notification{PostID: comment.PostID, CommentID: comment.ID}, notified...)

	s.deps.Events.Publish(ctx, comment.UserID, notifications.EventCommentAdded, comment.PostID)
	if post.UserID != comment.UserID {
		s.deps.Events.Publish(ctx, post.UserID, notifications.EventCommentAdded, comment.PostID)
	}

	return &comment, nil
}

// DeleteComment removes the comment and its direct replies, then lowers the post's
// comment counter by the number of rows removed. Deleting a reply also lowers the
// parent's reply counter.
func (s *CommentService) DeleteComment(ctx context.Context, id string) CascadeResult {
	span, ctx := observability.StartStoreSpan(ctx, "comments", "delete_cascade")
	defer span.End()

	var (
		res     CascadeResult
		comment models.Comment
	)
	repos := s.deps.Repos
	repos.Atomic(func() {
		var ok bool
		if comment, ok = repos.Comments.GetByID(id); !ok {
			return
		}

		removed := repos.Comments.DeleteWhere(func(c models.Comment) bool {
			return c.ID == id || c.ParentID == id
		})
		res.Comments = len(removed)

		targets := make([]models.LikeTarget, 0, len(removed))
		ids := make(map[string]bool, len(removed))
		for _, c := range removed {
			targets = append(targets, models.CommentTarget(c.ID))
			ids[c.ID] = true
		}
		res.Likes = repos.Likes.DeleteByTargets(targets)
		res.Notifications = repos.Notifications.DeleteWhere(func(n models.Notification) bool {
			return n.CommentID != "" && ids[n.CommentID]
		})

		repos.Posts.Update(comment.PostID, func(p *models.Post) { p.Comments = decrement(p.Comments, res.Comments) })
		if comment.IsReply() {
			repos.Comments.Update(comment.ParentID, func(c *models.Comment) { c.RepliesCount = decrement(c.RepliesCount, 1) })
		}
	})

	if res.Comments == 0 {
		return res
	}

	s.metrics.Record("delete")
	s.metrics.RecordCascade(res.Rows())
	s.logger.LogDelete(ctx, map[string]interface{}{
		"comment_id": id,
		"post_id":    comment.PostID,
		"rows":       res.Comments,
	})
	s.deps.Events.Publish(ctx, comment.UserID, notifications.EventCommentDeleted, comment.PostID)
	return res
}

// ToggleLikeComment likes the comment for userID, or removes the like when one exists.
func (s *CommentService) ToggleLikeComment(ctx context.Context, userID, commentID string) (models.Comment, bool) {
	var (
		comment models.Comment
		ok      bool
		liked   bool
	)
	repos := s.deps.Repos
	target := models.CommentTarget(commentID)

	repos.Atomic(func() {
		if _, ok = repos.Comments.GetByID(commentID); !ok {
			return
		}
		if repos.Likes.Delete(userID, target) {
			comment, _ = repos.Comments.Update(commentID, func(c *models.Comment) { c.Likes = decrement(c.Likes, 1) })
			return
		}
		repos.Likes.Create(models.Like{ID: repository.NewID(), UserID: userID, Target: target, CreatedAt: s.deps.Now()})
		comment, _ = repos.Comments.Update(commentID, func(c *models.Comment) { c.Likes++ })
		liked = true
	})
	if !ok {
		return models.Comment{}, false
	}

	s.metrics.Record("toggle_like")
	if liked && comment.UserID != userID {
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: comment.UserID,
			Type:        models.NotificationLike,
			FromUserID:  userID,
			PostID:      comment.PostID,
			CommentID:   commentID,
		})
	}

	comment.Liked = liked
	return comment, true
}

// GetComments returns the top-level comments of the post, newest first.
func (s *CommentService) GetComments(viewerID, postID string) []models.Comment {
	all := s.deps.Repos.Comments.ListByPost(postID)
	top := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if !c.IsReply() {
			top = append(top, c)
		}
	}
	// Ties keep the later insertion first.
	for i, j := 0, len(top)-1; i < j; i, j = i+1, j-1 {
		top[i], top[j] = top[j], top[i]
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].CreatedAt.After(top[j].CreatedAt) })
	return s.decorate(viewerID, top)
}

// GetReplies returns the replies to a comment, oldest first.
func (s *CommentService) GetReplies(viewerID, commentID string) []models.Comment {
	replies := s.deps.Repos.Comments.ListReplies(commentID)
	sort.SliceStable(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return s.decorate(viewerID, replies)
}

// GetComment returns one comment as seen by viewerID.
func (s *CommentService) GetComment(viewerID, id string) (models.Comment, bool) {
	c, ok := s.deps.Repos.Comments.GetByID(id)
	if !ok {
		return models.Comment{}, false
	}
	return s.decorate(viewerID, []models.Comment{c})[0], true
}

func (s *CommentService) decorate(viewerID string, comments []models.Comment) []models.Comment {
	targets := make([]models.LikeTarget, len(comments))
	for i, c := range comments {
		targets[i] = models.CommentTarget(c.ID)
	}
	liked := s.deps.Repos.Likes.LikedTargets(viewerID, targets)
	for i := range comments {
		comments[i].Liked = liked[targets[i]]
	}
	return comments
}
