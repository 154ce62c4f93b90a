package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/attendly/attendly-backend/internal/auth/jwt"
	authrepo "github.com/attendly/attendly-backend/internal/auth/repository"
	"github.com/attendly/attendly-backend/internal/user/domain"
	userrepo "github.com/attendly/attendly-backend/internal/user/repository"
	"github.com/attendly/attendly-backend/pkg/actor"
	"github.com/attendly/attendly-backend/pkg/errors"
	"github.com/attendly/attendly-backend/pkg/logger"
	"github.com/attendly/attendly-backend/pkg/messaging"
)

// eventPublisher is the slice of the messaging publisher the auth service
// needs. Kept narrow so tests can stub it.
type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AuthService handles registration, login and session lifecycle
type AuthService struct {
	users      *userrepo.UserRepository
	sessions   *authrepo.SessionRepository
	jwtManager *jwt.Manager
	publisher  eventPublisher
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *userrepo.UserRepository, sessions *authrepo.SessionRepository, jwtManager *jwt.Manager, publisher eventPublisher, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		publisher:  publisher,
		logger:     log.WithComponent("auth-service"),
	}
}

// RegisterRequest represents a signup request
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=employee manager"`
	EmployeeID string `json:"employee_id" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	TokenType    string       `json:"token_type"`
	User         *domain.User `json:"user"`
}

// Register creates a new user account. Email and employee ID must both be
// unused; the password is stored as a bcrypt hash only.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	role, err := actor.ParseRole(req.Role)
	if err != nil {
		return nil, errors.Validation(map[string]string{"role": "must be employee or manager"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         role,
		EmployeeID:   req.EmployeeID,
		Department:   req.Department,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventUserRegistered, &messaging.UserRegisteredEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		EmployeeID: user.EmployeeID,
		Department: user.Department,
	})

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same failure for unknown email and wrong password.
		return nil, errors.InvalidCredentials()
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.InvalidCredentials()
	}

	sessionID := uuid.New().String()
	tokens, err := s.jwtManager.GenerateTokenPair(userInfo(user), sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())
	if _, err := s.sessions.CreateWithID(ctx, sessionID, user.ID, tokens.RefreshToken, expiresAt); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         user,
	}, nil
}

// Refresh rotates the token pair for a valid, unrevoked session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, errors.TokenInvalid()
	}
	if !session.MatchesToken(refreshToken) || !session.Active(time.Now()) {
		return nil, errors.TokenInvalid()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, errors.TokenInvalid()
	}

	tokens, err := s.jwtManager.GenerateTokenPair(userInfo(user), session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	if err := s.sessions.UpdateRefreshTokenHash(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Msg("failed to rotate refresh token")
		return nil, errors.Internal("failed to refresh session")
	}

	return tokens, nil
}

// Logout revokes the session behind a refresh token. Always succeeds from
// the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func userInfo(user *domain.User) *jwt.UserInfo {
	return &jwt.UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       string(user.Role),
		EmployeeID: user.EmployeeID,
		Department: user.Department,
	}
}
