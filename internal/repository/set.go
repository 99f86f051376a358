package repository

import "sync"

// Set bundles every repository of the data layer. It is built once at startup and
// passed explicitly to the services that need it.
type Set struct {
	Users         UserRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Bookmarks     BookmarkRepository
	Graph         GraphRepository
	Stories       StoryRepository
	Chat          ChatRepository
	Notifications NotificationRepository

	// writeMu serialises multi-collection mutations such as cascade deletes.
	writeMu sync.Mutex
}

// NewSet creates an empty repository set.
func NewSet() *Set {
	return &Set{
		Users:         NewUserRepository(),
		Posts:         NewPostRepository(),
		Comments:      NewCommentRepository(),
		Likes:         NewLikeRepository(),
		Bookmarks:     NewBookmarkRepository(),
		Graph:         NewGraphRepository(),
		Stories:       NewStoryRepository(),
		Chat:          NewChatRepository(),
		Notifications: NewNotificationRepository(),
	}
}

// Atomic runs fn while holding the set-wide write lock. Readers of single collections
// are not blocked; only other Atomic callers are.
func (s *Set) Atomic(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fn()
}
