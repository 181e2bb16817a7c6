package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/repository"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

// UserService manages profiles and role grants. Authorization is decided by the caller.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// UpdateProfileInput carries profile changes. A nil Addresses leaves the list untouched.
type UpdateProfileInput struct {
	FullName  string
	Addresses []domain.Address
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, id)
	}
	return user, nil
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// UpdateProfile changes the full name and optionally replaces addresses.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, input UpdateProfileInput) (*domain.User, error) {
	errs := fieldErrors{}
	validateFullName(errs, input.FullName)
	if !errs.empty() {
		return nil, apperrors.NewValidationError("invalid profile", errs)
	}

	if err := s.users.UpdateProfile(ctx, id, strings.TrimSpace(input.FullName), cleanAddresses(input.Addresses)); err != nil {
		return nil, mapUserError(err, id)
	}
	return s.Get(ctx, id)
}

// Delete removes a user along with roles, addresses and orders.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapUserError(err, id)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// GrantRole adds a role from the fixed set to the user. Granting a held role is a no-op.
func (s *UserService) GrantRole(ctx context.Context, id int64, roleName string) (*domain.User, error) {
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
	}
	if err := s.users.GrantRole(ctx, id, role); err != nil {
		return nil, mapUserError(err, id)
	}
	s.logger.Info("role granted", zap.Int64("user_id", id), zap.String("role", string(role)))
	return s.Get(ctx, id)
}

func mapUserError(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}
