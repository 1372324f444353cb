package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/metrics"
	"cdm/backend/services/station-service/internal/models"
)

// UserFinder looks staff accounts up by email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Actor     models.Actor
}

// LoginService issues and revokes sessions.
type LoginService struct {
	users    UserFinder
	hasher   Hasher
	tokens   *TokenService
	sessions SessionStore
	logger   *zap.Logger
}

// NewLoginService builds LoginService.
func NewLoginService(users UserFinder, hasher Hasher, tokens *TokenService, sessions SessionStore, logger *zap.Logger) *LoginService {
	return &LoginService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// Login authenticates a user and opens a session.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.ObserveLogin(metrics.ResultSuccess)
	case errors.Is(err, ErrInvalidCredentials):
		metrics.ObserveLogin(metrics.ResultInvalid)
	default:
		metrics.ObserveLogin(metrics.ResultError)
		s.logger.Error("login failed", zap.Error(err))
	}
	return result, err
}

func (s *LoginService) login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if _, ok := models.NormalizeRole(string(user.Role)); !ok {
		return nil, fmt.Errorf("auth: user %d has unknown role %q", user.ID, user.Role)
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, string(user.Role), user.Name, sessionID)
	if err != nil {
		return nil, err
	}
	actor := user.Actor()
	if err := s.sessions.Save(ctx, sessionID, actor, s.tokens.TTL()); err != nil {
		return nil, fmt.Errorf("auth: save session: %w", err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Actor: actor}, nil
}

// Logout revokes the session behind token.
func (s *LoginService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil || claims.ID == "" {
		return ErrUnauthenticated
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	s.logger.Info("user logged out", zap.Int64("user_id", claims.UserID))
	return nil
}
