package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/delivery-platform/internal/auth"
	"github.com/spec-kit/delivery-platform/internal/config"
	"github.com/spec-kit/delivery-platform/internal/domain"
	"github.com/spec-kit/delivery-platform/internal/repository"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows and mints token pairs.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	limiter    auth.LoginLimiter
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Tokens   *auth.TokenManager
	// Limiter is optional; nil disables login throttling.
	Limiter auth.LoginLimiter
	Logger  *zap.Logger
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	Addresses []domain.Address
}

// AuthResult is returned by successful registration or login.
type AuthResult struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates an account holding the default role and returns its first token pair.
// Duplicate emails are detected by the store, so two concurrent registrations for the
// same address yield exactly one success.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	errs := fieldErrors{}
	validateEmail(errs, email)
	validatePassword(errs, input.Password)
	validateFullName(errs, input.FullName)
	if !errs.empty() {
		return nil, apperrors.NewValidationError("invalid registration", errs)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Roles:        []domain.Role{domain.DefaultRole},
		Addresses:    cleanAddresses(input.Addresses),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.NewInternalError(err)
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Roles)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login verifies credentials and returns a token pair reflecting the user's current roles.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		}
		if !allowed {
			return nil, apperrors.NewTooManyRequests("too many login attempts")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("login limiter reset failed", zap.Error(err))
		}
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Roles)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
