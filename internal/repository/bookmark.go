package repository

import "time"

// BookmarkRepository stores which posts a user saved.
type BookmarkRepository interface {
	Add(userID, postID string) bool
	Remove(userID, postID string) bool
	Exists(userID, postID string) bool
	// ListByUser returns saved post ids, most recently saved first.
	ListByUser(userID string) []string
	DeleteByPost(postID string) int
}

type bookmarkKey struct {
	userID string
	postID string
}

type bookmark struct {
	postID  string
	savedAt time.Time
}

type bookmarkRepository struct {
	rows *edgeSet[bookmarkKey, bookmark]
}

// NewBookmarkRepository creates a new BookmarkRepository.
func NewBookmarkRepository() BookmarkRepository {
	return &bookmarkRepository{rows: newEdgeSet[bookmarkKey, bookmark]()}
}

func (r *bookmarkRepository) Add(userID, postID string) bool {
	return r.rows.add(bookmarkKey{userID, postID}, bookmark{postID: postID, savedAt: time.Now()})
}

func (r *bookmarkRepository) Remove(userID, postID string) bool {
	return r.rows.remove(bookmarkKey{userID, postID})
}

func (r *bookmarkRepository) Exists(userID, postID string) bool {
	return r.rows.has(bookmarkKey{userID, postID})
}

func (r *bookmarkRepository) ListByUser(userID string) []string {
	rows := r.rows.values(func(k bookmarkKey) bool { return k.userID == userID })
	out := make([]string, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].postID)
	}
	return out
}

func (r *bookmarkRepository) DeleteByPost(postID string) int {
	return len(r.rows.removeWhere(func(k bookmarkKey) bool { return k.postID == postID }))
}
