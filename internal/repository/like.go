package repository

import (
	"time"

	"tripsocial/internal/models"
)

// LikeRepository stores like rows. A (user, target) pair holds at most one row.
type LikeRepository interface {
	// Create inserts the like and reports whether it was new.
	Create(like models.Like) bool
	Exists(userID string, target models.LikeTarget) bool
	// Delete removes the like and reports whether it existed.
	Delete(userID string, target models.LikeTarget) bool
	// DeleteByTargets removes every like on any of the targets and returns how many rows went.
	DeleteByTargets(targets []models.LikeTarget) int
	ListByTarget(target models.LikeTarget) []models.Like
	// LikedTargets returns which of the targets userID liked.
	LikedTargets(userID string, targets []models.LikeTarget) map[models.LikeTarget]bool
}

type likeKey struct {
	userID string
	target models.LikeTarget
}

type likeRepository struct {
	likes *edgeSet[likeKey, models.Like]
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository() LikeRepository {
	return &likeRepository{likes: newEdgeSet[likeKey, models.Like]()}
}

func (r *likeRepository) Create(like models.Like) bool {
	if like.ID == "" {
		like.ID = NewID()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now()
	}
	return r.likes.add(likeKey{userID: like.UserID, target: like.Target}, like)
}

func (r *likeRepository) Exists(userID string, target models.LikeTarget) bool {
	return r.likes.has(likeKey{userID: userID, target: target})
}

func (r *likeRepository) Delete(userID string, target models.LikeTarget) bool {
	return r.likes.remove(likeKey{userID: userID, target: target})
}

func (r *likeRepository) DeleteByTargets(targets []models.LikeTarget) int {
	if len(targets) == 0 {
		return 0
	}
	set := make(map[models.LikeTarget]bool, len(targets))
	for _, t := range targets {
		set[t] = true
	}
	return len(r.likes.removeWhere(func(k likeKey) bool { return set[k.target] }))
}

func (r *likeRepository) ListByTarget(target models.LikeTarget) []models.Like {
	return r.likes.values(func(k likeKey) bool { return k.target == target })
}

func (r *likeRepository) LikedTargets(userID string, targets []models.LikeTarget) map[models.LikeTarget]bool {
	out := make(map[models.LikeTarget]bool, len(targets))
	for _, t := range targets {
		if r.likes.has(likeKey{userID: userID, target: t}) {
			out[t] = true
		}
	}
	return out
}
