package repository

import (
	"tripsocial/internal/models"
)

// PostRepository defines the interface for post data operations.
// Posts are kept most-recent-first.
type PostRepository interface {
	// Create prepends the post.
	Create(post models.Post)
	// Append adds the post at the end, used when loading an ordered snapshot.
	Append(post models.Post)
	GetByID(id string) (models.Post, bool)
	List() []models.Post
	ListByUser(userID string) []models.Post
	ListByUsers(userIDs map[string]bool) []models.Post
	Update(id string, fn func(*models.Post)) (models.Post, bool)
	Delete(id string) bool
}

// postRepository implements PostRepository
type postRepository struct {
	posts *table[models.Post]
}

// NewPostRepository creates a new post repository
func NewPostRepository() PostRepository {
	return &postRepository{
		posts: newTable(func(p models.Post) string { return p.ID }, clonePost),
	}
}

func clonePost(p models.Post) models.Post {
	if p.EditedAt != nil {
		t := *p.EditedAt
		p.EditedAt = &t
	}
	return p
}

func (r *postRepository) Create(post models.Post) {
	r.posts.prepend(post)
}

func (r *postRepository) Append(post models.Post) {
	r.posts.append(post)
}

func (r *postRepository) GetByID(id string) (models.Post, bool) {
	return r.posts.get(id)
}

func (r *postRepository) List() []models.Post {
	return r.posts.filter(nil)
}

func (r *postRepository) ListByUser(userID string) []models.Post {
	return r.posts.filter(func(p models.Post) bool { return p.UserID == userID })
}

func (r *postRepository) ListByUsers(userIDs map[string]bool) []models.Post {
	return r.posts.filter(func(p models.Post) bool { return userIDs[p.UserID] })
}

func (r *postRepository) Update(id string, fn func(*models.Post)) (models.Post, bool) {
	return r.posts.update(id, fn)
}

func (r *postRepository) Delete(id string) bool {
	return len(r.posts.removeWhere(func(p models.Post) bool { return p.ID == id })) > 0
}
