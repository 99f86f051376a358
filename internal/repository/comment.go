package repository

import (
	"tripsocial/internal/models"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(comment models.Comment)
	GetByID(id string) (models.Comment, bool)
	// ListByPost returns every comment of the post, replies included, in insertion order.
	ListByPost(postID string) []models.Comment
	ListReplies(parentID string) []models.Comment
	Update(id string, fn func(*models.Comment)) (models.Comment, bool)
	// DeleteWhere removes every matching comment and returns the removed rows.
	DeleteWhere(match func(models.Comment) bool) []models.Comment
}

type commentRepository struct {
	comments *table[models.Comment]
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository() CommentRepository {
	return &commentRepository{
		comments: newTable(func(c models.Comment) string { return c.ID }, nil),
	}
}

func (r *commentRepository) Create(comment models.Comment) {
	r.comments.append(comment)
}

func (r *commentRepository) GetByID(id string) (models.Comment, bool) {
	return r.comments.get(id)
}

func (r *commentRepository) ListByPost(postID string) []models.Comment {
	return r.comments.filter(func(c models.Comment) bool { return c.PostID == postID })
}

func (r *commentRepository) ListReplies(parentID string) []models.Comment {
	return r.comments.filter(func(c models.Comment) bool { return c.ParentID == parentID })
}

func (r *commentRepository) Update(id string, fn func(*models.Comment)) (models.Comment, bool) {
	return r.comments.update(id, fn)
}

func (r *commentRepository) DeleteWhere(match func(models.Comment) bool) []models.Comment {
	return r.comments.removeWhere(match)
}
