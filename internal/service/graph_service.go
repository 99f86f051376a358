package service

import (
	"context"

	"tripsocial/internal/models"
	"tripsocial/internal/notifications"
	"tripsocial/internal/observability"
)

// GraphService provides follow and block relationship logic.
type GraphService struct {
	deps    Deps
	logger  *observability.StoreLogger
	metrics *observability.StoreMetrics
}

// NewGraphService returns a new GraphService.
func NewGraphService(deps Deps) *GraphService {
	return &GraphService{
		deps:    deps.withDefaults(),
		logger:  observability.NewStoreLogger("graph"),
		metrics: observability.NewStoreMetrics("graph"),
	}
}

// IsFollowing reports whether followerID follows followingID.
func (s *GraphService) IsFollowing(followerID, followingID string) bool {
	return s.deps.Repos.Graph.HasFollow(models.Edge{From: followerID, To: followingID})
}

// FollowUser adds the follow edge. It reports whether the edge is new; following
// someone already followed, or across a block, changes nothing.
func (s *GraphService) FollowUser(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, models.NewValidationError("Cannot follow yourself")
	}

	edge := models.Edge{From: followerID, To: followingID}
	var added bool
	repos := s.deps.Repos
	repos.Atomic(func() {
		if repos.Graph.HasBlock(edge) || repos.Graph.HasBlock(edge.Reverse()) {
			return
		}
		added = repos.Graph.AddFollow(models.Follow{
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   s.deps.Now(),
		})
		if added {
			s.adjustCounts(edge, 1)
		}
	})
	if !added {
		return false, nil
	}

	s.metrics.Record("follow")
	s.logger.LogCreate(ctx, map[string]interface{}{"follower_id": followerID, "following_id": followingID})
	s.deps.Notify.Notify(ctx, models.Notification{
		RecipientID: followingID,
		Type:        models.NotificationFollow,
		FromUserID:  followerID,
	})
	s.deps.Events.Publish(ctx, followerID, notifications.EventGraphChanged, followingID)
	return true, nil
}

// UnfollowUser removes the follow edge and reports whether it existed.
func (s *GraphService) UnfollowUser(ctx context.Context, followerID, followingID string) bool {
	edge := models.Edge{From: followerID, To: followingID}
	var removed bool
	repos := s.deps.Repos
	repos.Atomic(func() {
		if removed = repos.Graph.RemoveFollow(edge); removed {
			s.adjustCounts(edge, -1)
		}
	})
	if removed {
		s.metrics.Record("unfollow")
		s.logger.LogDelete(ctx, map[string]interface{}{"follower_id": followerID, "following_id": followingID})
		s.deps.Events.Publish(ctx, followerID, notifications.EventGraphChanged, followingID)
	}
	return removed
}

// IsBlocked reports whether blockerID blocked blockedID.
func (s *GraphService) IsBlocked(blockerID, blockedID string) bool {
	return s.deps.Repos.Graph.HasBlock(models.Edge{From: blockerID, To: blockedID})
}

// BlockUser adds the block edge and removes the follow edges in both directions.
func (s *GraphService) BlockUser(ctx context.Context, blockerID, blockedID string) (bool, error) {
	if blockerID == blockedID {
		return false, models.NewValidationError("Cannot block yourself")
	}

	edge := models.Edge{From: blockerID, To: blockedID}
	var added bool
	repos := s.deps.Repos
	repos.Atomic(func() {
		added = repos.Graph.AddBlock(models.Block{BlockerID: blockerID, BlockedID: blockedID, CreatedAt: s.deps.Now()})
		for _, e := range []models.Edge{edge, edge.Reverse()} {
			if repos.Graph.RemoveFollow(e) {
				s.adjustCounts(e, -1)
			}
		}
	})

	if added {
		s.metrics.Record("block")
		s.logger.LogCreate(ctx, map[string]interface{}{"blocker_id": blockerID, "blocked_id": blockedID})
		s.deps.Events.Publish(ctx, blockerID, notifications.EventGraphChanged, blockedID)
	}
	return added, nil
}

// UnblockUser removes the block edge and reports whether it existed. Follow edges
// dropped by the block are not restored.
func (s *GraphService) UnblockUser(ctx context.Context, blockerID, blockedID string) bool {
	removed := s.deps.Repos.Graph.RemoveBlock(models.Edge{From: blockerID, To: blockedID})
	if removed {
		s.metrics.Record("unblock")
		s.deps.Events.Publish(ctx, blockerID, notifications.EventGraphChanged, blockedID)
	}
	return removed
}

// Followers returns the users following userID, in follow order.
func (s *GraphService) Followers(userID string) []models.User {
	follows := s.deps.Repos.Graph.Followers(userID)
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FollowerID
	}
	return s.users(ids)
}

// Following returns the users userID follows, in follow order.
func (s *GraphService) Following(userID string) []models.User {
	follows := s.deps.Repos.Graph.Following(userID)
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FollowingID
	}
	return s.users(ids)
}

// Blocked returns the users blockerID blocked.
func (s *GraphService) Blocked(blockerID string) []models.User {
	blocks := s.deps.Repos.Graph.BlockedBy(blockerID)
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	return s.users(ids)
}

func (s *GraphService) users(ids []string) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.deps.Repos.Users.GetByID(id); ok {
			out = append(out, u)
		}
	}
	return out
}

// adjustCounts moves the Following counter of edge.From and the Followers counter of
// edge.To by delta. Callers hold the set lock.
func (s *GraphService) adjustCounts(edge models.Edge, delta int) {
	users := s.deps.Repos.Users
	users.Update(edge.From, func(u *models.User) { u.Following = decrement(u.Following, -delta) })
	users.Update(edge.To, func(u *models.User) { u.Followers = decrement(u.Followers, -delta) })
}
