package service

import (
	"context"

	"github.com/attendly/attendly-backend/internal/user/domain"
	"github.com/attendly/attendly-backend/internal/user/repository"
	"github.com/attendly/attendly-backend/pkg/actor"
	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/logger"
)

// UserService handles user profile and roster operations
type UserService struct {
	repo   *repository.UserRepository
	logger *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo *repository.UserRepository, log *logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: log.WithComponent("user-service"),
	}
}

// Profile returns the calling user's own profile.
func (s *UserService) Profile(ctx context.Context) (*domain.User, error) {
	caller := actor.FromContext(ctx)
	if caller == nil {
		return nil, errors.Unauthorized("authentication required")
	}

	return s.repo.GetByID(ctx, caller.ID)
}

// Employees lists the employee roster. Managers only.
func (s *UserService) Employees(ctx context.Context) ([]*domain.User, error) {
	caller := actor.FromContext(ctx)
	if caller == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	if !caller.Role.CanViewAllRecords() {
		return nil, errors.AccessDenied()
	}

	return s.repo.ListEmployees(ctx)
}
