package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
	"tripsocial/internal/repository"
)

// StoryService owns stories, their reactions and replies.
type StoryService struct {
	deps    Deps
	logger  *observability.StoreLogger
	metrics *observability.StoreMetrics
}

// NewStoryService returns a new StoryService.
func NewStoryService(deps Deps) *StoryService {
	return &StoryService{
		deps:    deps.withDefaults(),
		logger:  observability.NewStoreLogger("stories"),
		metrics: observability.NewStoreMetrics("stories"),
	}
}

// AddStory posts a story made of the given image URLs. It expires after StoryTTL.
func (s *StoryService) AddStory(ctx context.Context, userID string, imageURLs []string) (*models.Story, error) {
	images := make([]models.StoryImage, 0, len(imageURLs))
	for _, url := range imageURLs {
		if blank(url) {
			continue
		}
		images = append(images, models.StoryImage{ID: repository.NewID(), URL: strings.TrimSpace(url)})
	}
	if len(images) == 0 {
		return nil, models.NewValidationError("A story needs at least one image")
	}

	now := s.deps.Now()
	story := models.Story{
		ID:        repository.NewID(),
		UserID:    userID,
		Images:    images,
		CreatedAt: now,
		ExpiresAt: now.Add(models.StoryTTL),
	}
	s.deps.Repos.Stories.Create(story)

	s.metrics.Record("create")
	s.logger.LogCreate(ctx, map[string]interface{}{"story_id": story.ID, "images": len(images)})
	s.deps.Events.Publish(ctx, userID, notifications.EventStoryUpdated, story.ID)
	return &story, nil
}

// GetStory returns one story.
func (s *StoryService) GetStory(id string) (models.Story, bool) {
	return s.deps.Repos.Stories.GetByID(id)
}

// ActiveStories returns stories that have not expired at now, oldest first.
func (s *StoryService) ActiveStories(now time.Time) []models.Story {
	all := s.deps.Repos.Stories.List()
	active := make([]models.Story, 0, len(all))
	for _, st := range all {
		if st.Active(now) {
			active = append(active, st)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active
}

// PruneExpired drops stories that expired at or before now and returns how many went.
func (s *StoryService) PruneExpired(ctx context.Context, now time.Time) int {
	removed := s.deps.Repos.Stories.DeleteWhere(func(st models.Story) bool { return !st.Active(now) })
	if len(removed) > 0 {
		s.metrics.RecordCascade(map[string]int{"stories": len(removed)})
		s.logger.LogDelete(ctx, map[string]interface{}{"expired": len(removed)})
	}
	return len(removed)
}

// MarkStorySeen flags the story as seen. Unknown ids are ignored.
func (s *StoryService) MarkStorySeen(ctx context.Context, id string) {
	if _, ok := s.deps.Repos.Stories.Update(id, func(st *models.Story) { st.Seen = true }); ok {
		s.metrics.Record("seen")
	}
}

// AddStoryReaction sets userID's reaction on the story, replacing any earlier one.
func (s *StoryService) AddStoryReaction(ctx context.Context, storyID, userID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if !validEmoji(emoji) {
		return models.NewValidationError("Reaction must be a single emoji")
	}

	reaction := models.StoryReaction{UserID: userID, Emoji: emoji, CreatedAt: s.deps.Now()}
	story, ok := s.deps.Repos.Stories.Update(storyID, func(st *models.Story) {
		kept := st.Reactions[:0]
		for _, r := range st.Reactions {
			if r.UserID != userID {
				kept = append(kept, r)
			}
		}
		st.Reactions = append(kept, reaction)
	})
	if !ok {
		return nil
	}

	s.metrics.Record("react")
	if story.UserID != userID {
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: story.UserID,
			Type:        models.NotificationStoryReaction,
			FromUserID:  userID,
			StoryID:     storyID,
			Text:        emoji,
		})
	}
	s.deps.Events.Publish(ctx, story.UserID, notifications.EventStoryUpdated, storyID)
	return nil
}

// AddStoryReply appends a text reply to the story.
func (s *StoryService) AddStoryReply(ctx context.Context, storyID, userID, text string) (*models.StoryReply, error) {
	if blank(text) {
		return nil, models.NewValidationError("Reply text is required")
	}

	reply := models.StoryReply{
		ID:        repository.NewID(),
		UserID:    userID,
		Text:      strings.TrimSpace(text),
		CreatedAt: s.deps.Now(),
	}
	story, ok := s.deps.Repos.Stories.Update(storyID, func(st *models.Story) {
		st.Replies = append(st.Replies, reply)
	})
	if !ok {
		return nil, nil
	}

	s.metrics.Record("reply")
	if story.UserID != userID {
		s.deps.Notify.Notify(ctx, models.Notification{
			RecipientID: story.UserID,
			Type:        models.NotificationStoryReply,
			FromUserID:  userID,
			StoryID:     storyID,
			Text:        reply.Text,
		})
	}
	s.deps.Events.Publish(ctx, story.UserID, notifications.EventStoryUpdated, storyID)
	return &reply, nil
}
