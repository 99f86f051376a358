package service

import (
	"context"
	"sort"
	"strings"

	"tripsocial/internal/display"
	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// PostService owns posts, post likes and saved posts.
type PostService struct {
	deps    Deps
	logger  *observability.StoreLogger
	metrics *observability.StoreMetrics
}

// AddPostInput is the input for composing a post.
type AddPostInput struct {
	UserID          string
	Caption         string
	Image           string
	Location        string
	DisableComments bool
	HideLikes       bool
}

// NewPostService returns a new PostService.
func NewPostService(deps Deps) *PostService {
	return &PostService{
		deps:    deps.withDefaults(),
		logger:  observability.NewStoreLogger("posts"),
		metrics: observability.NewStoreMetrics("posts"),
	}
}

// AddPost creates a post at the head of the collection and bumps the owner's post count.
func (s *PostService) AddPost(ctx context.Context, in AddPostInput) (*models.Post, error) {
	const maxCaptionLen = 2200

	if blank(in.UserID) {
		return nil, models.NewValidationError("User is required")
	}
	if blank(in.Caption) && blank(in.Image) {
		return nil, models.NewValidationError("A caption or an image is required")
	}
	if len(in.Caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption too long (max 2200 characters)")
	}

	post := models.Post{
		ID:            repository.NewID(),
		UserID:        in.UserID,
		Caption:       strings.TrimSpace(in.Caption),
		Image:         strings.TrimSpace(in.Image),
		Location:      strings.TrimSpace(in.Location),
		AllowComments: !in.DisableComments,
		HideLikes:     in.HideLikes,
		CreatedAt:     s.deps.Now(),
	}

	repos := s.deps.Repos
	repos.Atomic(func() {
		repos.Posts.Create(post)
		repos.Users.Update(post.UserID, func(u *models.User) { u.Posts++ })
	})

	s.metrics.Record("create")
	s.logger.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "user_id": post.UserID})
	notifyMentions(ctx, s.deps, post.UserID, post.Caption, models.Notification{PostID: post.ID})
	s.deps.Events.Publish(ctx, post.UserID, notifications.EventPostCreated, post.ID)

	return &post, nil
}

// UpdatePost merges the patch into the post and stamps EditedAt. An unknown id is a
// silent no-op and returns nil.
func (s *PostService) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	var (
		updated models.Post
		ok      bool
		err     error
	)
	now := s.deps.Now()
	repos := s.deps.Repos
	repos.Atomic(func() {
		var current models.Post
		if current, ok = repos.Posts.GetByID(id); !ok {
			return
		}
		patch.Apply(&current)
		if blank(current.Caption) && blank(current.Image) {
			ok = false
			err = models.NewValidationError("A caption or an image is required")
			return
		}
		updated, ok = repos.Posts.Update(id, func(p *models.Post) {
			patch.Apply(p)
			p.EditedAt = &now
		})
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s.metrics.Record("update")
	s.logger.LogUpdate(ctx, map[string]interface{}{"post_id": id})
	s.deps.Events.Publish(ctx, updated.UserID, notifications.EventPostUpdated, id)

	post := s.decorate(updated.UserID, updated)
	return &post, nil
}

// DeletePost removes the post together with every comment on it, the likes on the post
// and on those comments, saved entries and notifications pointing at it.
func (s *PostService) DeletePost(ctx context.Context, id string) CascadeResult {
	span, ctx := observability.StartStoreSpan(ctx, "posts", "delete_cascade")
	defer span.End()

	var (
		res   CascadeResult
		owner string
	)
	repos := s.deps.Repos
	repos.Atomic(func() {
		post, ok := repos.Posts.GetByID(id)
		if !ok || !repos.Posts.Delete(id) {
			return
		}
		owner = post.UserID
		res.Posts = 1

		removed := repos.Comments.DeleteWhere(func(c models.Comment) bool { return c.PostID == id })
		res.Comments = len(removed)

		targets := []models.LikeTarget{models.PostTarget(id)}
		for _, c := range removed {
			targets = append(targets, models.CommentTarget(c.ID))
		}
		res.Likes = repos.Likes.DeleteByTargets(targets)
		res.Bookmarks = repos.Bookmarks.DeleteByPost(id)
		res.Notifications = repos.Notifications.DeleteWhere(func(n models.Notification) bool { return n.PostID == id })

		repos.Users.Update(owner, func(u *models.User) { u.Posts = decrement(u.Posts, 1) })
	})

	if res.Posts == 0 {
		return res
	}

	s.metrics.Record("delete")
	s.metrics.RecordCascade(res.Rows())
	s.logger.LogDelete(ctx, map[string]interface{}{
		"post_id":  id,
		"comments": res.Comments,
		"likes":    res.Likes,
	})
	s.deps.Events.Publish(ctx, owner, notifications.EventPostDeleted, id)
	return res
}

// ToggleLikePost likes the post for userID, or removes the like when one exists.
// Calling it twice restores the original state. The bool is false for unknown posts.
func (s *PostService) ToggleLikePost(ctx context.Context, userID, postID string) (models.Post, bool) {
	var (
		post  models.Post
		ok    bool
		liked bool
	)
	repos := s.deps.Repos
	target := models.PostTarget(postID)

	repos.Atomic(func() {
		if _, ok = repos.Posts.GetByID(postID); !ok {
			return
		}
		if repos.Likes.Delete(userID, target) {
			post, _ = repos.Posts.Update(postID, func(p *models.Post) { p.Likes = decrement(p.Likes, 1) })
			return
		}
		repos.Likes.Create(models.Like{ID: repository.NewID(), UserID: userID, Target: target, CreatedAt: s.deps.Now()})
		post, _ = repos.Posts.Update(postID, func(p *models.Post) { p.Likes++ })
		liked = true
	})
	if !ok {
		return models.Post{}, false
	}

	s.metrics.Record("toggle_like")
	if liked && post.UserID != userID {
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: post.UserID,
			Type:        models.NotificationLike,
			FromUserID:  userID,
			PostID:      postID,
		})
	}
	s.deps.Events.Publish(ctx, userID, notifications.EventPostUpdated, postID)

	return s.decorate(userID, post), true
}

// ToggleSavePost adds the post to the user's saved list or removes it.
func (s *PostService) ToggleSavePost(ctx context.Context, userID, postID string) (models.Post, bool) {
	var (
		post models.Post
		ok   bool
	)
	repos := s.deps.Repos
	repos.Atomic(func() {
		if post, ok = repos.Posts.GetByID(postID); !ok {
			return
		}
		if !repos.Bookmarks.Remove(userID, postID) {
			repos.Bookmarks.Add(userID, postID)
		}
	})
	if !ok {
		return models.Post{}, false
	}
	s.metrics.Record("toggle_save")
	s.deps.Events.Publish(ctx, userID, notifications.EventPostUpdated, postID)
	return s.decorate(userID, post), true
}

// GetPost returns the post as seen by viewerID.
func (s *PostService) GetPost(viewerID, id string) (models.Post, bool) {
	post, ok := s.deps.Repos.Posts.GetByID(id)
	if !ok {
		return models.Post{}, false
	}
	return s.decorate(viewerID, post), true
}

// ListPosts returns every post, most recent first.
func (s *PostService) ListPosts(viewerID string) []models.Post {
	return s.decorateAll(viewerID, s.deps.Repos.Posts.List())
}

// UserPosts returns the posts of userID, most recent first.
func (s *PostService) UserPosts(viewerID, userID string) []models.Post {
	return s.decorateAll(viewerID, s.deps.Repos.Posts.ListByUser(userID))
}

// Feed returns the viewer's own posts and those of followed users, leaving out users
// blocked in either direction, newest first.
func (s *PostService) Feed(viewerID string) []models.Post {
	graph := s.deps.Repos.Graph
	authors := map[string]bool{viewerID: true}
	for _, f := range graph.Following(viewerID) {
		edge := models.Edge{From: viewerID, To: f.FollowingID}
		if graph.HasBlock(edge) || graph.HasBlock(edge.Reverse()) {
			continue
		}
		authors[f.FollowingID] = true
	}

	posts := s.deps.Repos.Posts.ListByUsers(authors)
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return s.decorateAll(viewerID, posts)
}

// SavedPosts returns the viewer's saved posts, most recently saved first.
func (s *PostService) SavedPosts(viewerID string) []models.Post {
	ids := s.deps.Repos.Bookmarks.ListByUser(viewerID)
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.deps.Repos.Posts.GetByID(id); ok {
			posts = append(posts, p)
		}
	}
	return s.decorateAll(viewerID, posts)
}

// PostLikers returns the users who liked the post, in the order they liked it.
func (s *PostService) PostLikers(postID string) []models.User {
	likes := s.deps.Repos.Likes.ListByTarget(models.PostTarget(postID))
	users := make([]models.User, 0, len(likes))
	for _, l := range likes {
		if u, ok := s.deps.Repos.Users.GetByID(l.UserID); ok {
			users = append(users, u)
		}
	}
	return users
}

func (s *PostService) decorate(viewerID string, p models.Post) models.Post {
	p.Liked = s.deps.Repos.Likes.Exists(viewerID, models.PostTarget(p.ID))
	p.Saved = s.deps.Repos.Bookmarks.Exists(viewerID, p.ID)
	return p
}

func (s *PostService) decorateAll(viewerID string, posts []models.Post) []models.Post {
	targets := make([]models.LikeTarget, len(posts))
	for i, p := range posts {
		targets[i] = models.PostTarget(p.ID)
	}
	liked := s.deps.Repos.Likes.LikedTargets(viewerID, targets)
	for i := range posts {
		posts[i].Liked = liked[targets[i]]
		posts[i].Saved = s.deps.Repos.Bookmarks.Exists(viewerID, posts[i].ID)
	}
	return posts
}

// notifyMentions sends a mention notification to every user named in text except the
// author and anyone listed in skip.
func notifyMentions(ctx context.Context, deps Deps, authorID, text string, base models.Notification, skip ...string) {
	for _, username := range display.ExtractMentions(text) {
		u, ok := deps.Repos.Users.GetByUsername(username)
		if !ok || u.ID == authorID || contains(skip, u.ID) {
			continue
		}
		n := base
		n.RecipientID = u.ID
		n.Type = models.NotificationMention
		n.FromUserID = authorID
		deps.Notify.Notify(ctx, n)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
