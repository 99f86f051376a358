package service

import (
	"context"
	"strings"

	"tripsocial/internal/models"
	"tripsocial/internal/observability"
)

type UserService struct {
	deps   Deps
	logger *observability.StoreLogger
}

type UpdateProfileInput struct {
	UserID string
	Name   string
	Bio    string
	Avatar string
}

func NewUserService(deps Deps) *UserService {
	return &UserService{deps: deps.withDefaults(), logger: observability.NewStoreLogger("users")}
}

func (s *UserService) ListUsers() []models.User {
	return s.deps.Repos.Users.List()
}

func (s *UserService) GetUser(id string) (models.User, bool) {
	return s.deps.Repos.Users.GetByID(id)
}

func (s *UserService) GetByUsername(username string) (models.User, bool) {
	return s.deps.Repos.Users.GetByUsername(strings.TrimPrefix(username, "@"))
}

// SearchUsers matches query case-insensitively against name and username of every
// user. Follow and block state do not filter results. An empty query matches nothing.
func (s *UserService) SearchUsers(query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []models.User
	for _, u := range s.deps.Repos.Users.List() {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	const maxBioLen = 150
	const maxNameLen = 50

	if len(in.Name) > maxNameLen {
		return nil, models.NewValidationError("Name too long (max 50 characters)")
	}
	if len(in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 150 characters)")
	}

	ok := s.deps.Repos.Users.Update(in.UserID, func(u *models.User) {
		if in.Name != "" {
			u.Name = in.Name
		}
		if in.Bio != "" {
			u.Bio = in.Bio
		}
		if in.Avatar != "" {
			u.Avatar = in.Avatar
		}
	})
	if !ok {
		return nil, nil
	}

	s.logger.LogUpdate(ctx, map[string]interface{}{"user_id": in.UserID})
	user, _ := s.deps.Repos.Users.GetByID(in.UserID)
	return &user, nil
}
