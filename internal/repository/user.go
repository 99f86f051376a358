package repository

import (
	"tripsocial/internal/models"
)

// UserRepository defines in-memory operations for users.
type UserRepository interface {
	GetByID(id string) (models.User, bool)
	GetByUsername(username string) (models.User, bool)
	Create(user models.User)
	// Update applies fn to the user and reports whether the user exists.
	Update(id string, fn func(*models.User)) bool
	List() []models.User
}

type userRepository struct {
	users *table[models.User]
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository() UserRepository {
	return &userRepository{
		users: newTable(func(u models.User) string { return u.ID }, nil),
	}
}

func (r *userRepository) GetByID(id string) (models.User, bool) {
	return r.users.get(id)
}

func (r *userRepository) GetByUsername(username string) (models.User, bool) {
	return r.users.find(func(u models.User) bool { return u.Username == username })
}

func (r *userRepository) Create(user models.User) {
	r.users.append(user)
}

func (r *userRepository) Update(id string, fn func(*models.User)) bool {
	_, ok := r.users.update(id, fn)
	return ok
}

func (r *userRepository) List() []models.User {
	return r.users.filter(nil)
}
