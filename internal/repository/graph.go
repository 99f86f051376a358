package repository

import (
	"tripsocial/internal/models"
)

// GraphRepository stores the follow and block relationship sets.
type GraphRepository interface {
	// AddFollow inserts the edge and reports whether it was new.
	AddFollow(follow models.Follow) bool
	// RemoveFollow deletes the edge and reports whether it existed.
	RemoveFollow(edge models.Edge) bool
	HasFollow(edge models.Edge) bool
	Followers(userID string) []models.Follow
	Following(userID string) []models.Follow

	AddBlock(block models.Block) bool
	RemoveBlock(edge models.Edge) bool
	HasBlock(edge models.Edge) bool
	BlockedBy(userID string) []models.Block
}

type graphRepository struct {
	follows *edgeSet[models.Edge, models.Follow]
	blocks  *edgeSet[models.Edge, models.Block]
}

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository() GraphRepository {
	return &graphRepository{
		follows: newEdgeSet[models.Edge, models.Follow](),
		blocks:  newEdgeSet[models.Edge, models.Block](),
	}
}

func (r *graphRepository) AddFollow(follow models.Follow) bool {
	return r.follows.add(follow.Edge(), follow)
}

func (r *graphRepository) RemoveFollow(edge models.Edge) bool {
	return r.follows.remove(edge)
}

func (r *graphRepository) HasFollow(edge models.Edge) bool {
	return r.follows.has(edge)
}

func (r *graphRepository) Followers(userID string) []models.Follow {
	return r.follows.values(func(e models.Edge) bool { return e.To == userID })
}

func (r *graphRepository) Following(userID string) []models.Follow {
	return r.follows.values(func(e models.Edge) bool { return e.From == userID })
}

func (r *graphRepository) AddBlock(block models.Block) bool {
	return r.blocks.add(block.Edge(), block)
}

func (r *graphRepository) RemoveBlock(edge models.Edge) bool {
	return r.blocks.remove(edge)
}

func (r *graphRepository) HasBlock(edge models.Edge) bool {
	return r.blocks.has(edge)
}

func (r *graphRepository) BlockedBy(userID string) []models.Block {
	return r.blocks.values(func(e models.Edge) bool { return e.From == userID })
}
