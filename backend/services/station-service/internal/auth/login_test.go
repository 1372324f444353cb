package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/models"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "broken@cdm.com" {
		return nil, errors.New("db down")
	}
	user, ok := s[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func newLoginFixture(t *testing.T) (*LoginService, *AccessPolicy) {
	t.Helper()
	hasher := NewBcryptHasher(4)
	hash, err := hasher.Hash("pa55word")
	require.NoError(t, err)

	users := stubUsers{
		"admin@cdm.com": {ID: 1, Email: "admin@cdm.com", PasswordHash: hash, Name: "Admin", Role: models.RoleAdmin},
	}
	tokens := NewTokenService("test-secret", time.Hour)
	sessions := NewMemorySessionStore(time.Minute)
	return NewLoginService(users, hasher, tokens, sessions, zap.NewNop()), NewAccessPolicy(tokens, sessions)
}

func TestLoginService_LoginResolveLogout(t *testing.T) {
	logins, policy := newLoginFixture(t)
	ctx := context.Background()

	result, err := logins.Login(ctx, "  ADMIN@cdm.com ", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Actor.UserID)
	assert.Equal(t, models.RoleAdmin, result.Actor.Role)
	assert.False(t, result.ExpiresAt.IsZero())

	actor, err := policy.Resolve(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Actor, actor)

	require.NoError(t, logins.Logout(ctx, result.Token))
	_, err = policy.Resolve(ctx, result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, logins.Logout(ctx, "garbage"), ErrUnauthenticated)
}

func TestLoginService_Rejects(t *testing.T) {
	logins, _ := newLoginFixture(t)
	ctx := context.Background()

	_, err := logins.Login(ctx, "admin@cdm.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = logins.Login(ctx, "nobody@cdm.com", "pa55word")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = logins.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = logins.Login(ctx, "broken@cdm.com", "pa55word")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginService_SessionsAreDistinct(t *testing.T) {
	logins, policy := newLoginFixture(t)
	ctx := context.Background()

	first, err := logins.Login(ctx, "admin@cdm.com", "pa55word")
	require.NoError(t, err)
	second, err := logins.Login(ctx, "admin@cdm.com", "pa55word")
	require.NoError(t, err)

	require.NoError(t, logins.Logout(ctx, first.Token))
	_, err = policy.Resolve(ctx, second.Token)
	assert.NoError(t, err)
}
