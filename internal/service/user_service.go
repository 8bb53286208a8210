package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/store"
)

// UserService exposes user lookups to packages that should not depend on the
// store layer directly, such as the background task package.
type UserService struct {
	users store.UserStore
}

// NewUserService creates a UserService.
func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
