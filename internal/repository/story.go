package repository

import (
	"tripsocial/internal/models"
)

// StoryRepository defines operations over stories.
type StoryRepository interface {
	Create(story models.Story)
	GetByID(id string) (models.Story, bool)
	List() []models.Story
	Update(id string, fn func(*models.Story)) (models.Story, bool)
	// DeleteWhere removes matching stories and returns them.
	DeleteWhere(match func(models.Story) bool) []models.Story
}

type storyRepository struct {
	stories *table[models.Story]
}

// NewStoryRepository creates a new StoryRepository.
func NewStoryRepository() StoryRepository {
	return &storyRepository{
		stories: newTable(func(s models.Story) string { return s.ID }, models.Story.Clone),
	}
}

func (r *storyRepository) Create(story models.Story) {
	r.stories.append(story)
}

func (r *storyRepository) GetByID(id string) (models.Story, bool) {
	return r.stories.get(id)
}

func (r *storyRepository) List() []models.Story {
	return r.stories.filter(nil)
}

func (r *storyRepository) Update(id string, fn func(*models.Story)) (models.Story, bool) {
	return r.stories.update(id, fn)
}

func (r *storyRepository) DeleteWhere(match func(models.Story) bool) []models.Story {
	return r.stories.removeWhere(match)
}
