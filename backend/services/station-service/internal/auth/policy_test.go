package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdm/backend/services/station-service/internal/models"
)

func TestAuthorize(t *testing.T) {
	admin := models.Actor{UserID: 1, Role: models.RoleAdmin}
	inspector := models.Actor{UserID: 2, Role: models.RoleInspector}
	anonymous := models.Actor{}

	tests := []struct {
		op        Operation
		admin     bool
		inspector bool
		anonymous bool
	}{
		{OpListStations, true, true, true},
		{OpTransitionStation, true, true, false},
		{OpCreateStation, true, false, false},
		{OpDeleteStation, true, false, false},
		{OpStationHistory, true, false, false},
		{OpListFaultCauses, true, true, false},
		{OpCreateFaultCause, true, true, false},
		{OpOwnHistory, true, true, false},
		{OpActorHistory, true, false, false},
		{OpMe, true, true, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.op), func(t *testing.T) {
			check := func(actor models.Actor, allowed bool) {
				err := Authorize(actor, tc.op)
				if allowed {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, ErrForbidden)
				}
			}
			check(admin, tc.admin)
			check(inspector, tc.inspector)
			check(anonymous, tc.anonymous)
			assert.Equal(t, !tc.anonymous, RequiresActor(tc.op))
		})
	}
}

func newPolicy(t *testing.T) (*AccessPolicy, *TokenService, *MemorySessionStore) {
	t.Helper()
	tokens := NewTokenService("test-secret", time.Hour)
	sessions := NewMemorySessionStore(time.Minute)
	return NewAccessPolicy(tokens, sessions), tokens, sessions
}

func TestAccessPolicy_Resolve(t *testing.T) {
	policy, tokens, sessions := newPolicy(t)
	ctx := context.Background()
	actor := models.Actor{UserID: 9, Name: "Park", Role: models.RoleInspector}

	token, _, err := tokens.GenerateToken(9, "inspector", "Park", "sid-9")
	require.NoError(t, err)

	_, err = policy.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "no session yet")

	require.NoError(t, sessions.Save(ctx, "sid-9", actor, time.Hour))
	got, err := policy.Resolve(ctx, " "+token+" ")
	require.NoError(t, err)
	assert.Equal(t, actor, got)

	require.NoError(t, sessions.Delete(ctx, "sid-9"))
	_, err = policy.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "revoked session")
}

func TestAccessPolicy_ResolveRejects(t *testing.T) {
	policy, tokens, sessions := newPolicy(t)
	ctx := context.Background()

	_, err := policy.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = policy.Resolve(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// A session id lifted into a token for a different user is refused.
	require.NoError(t, sessions.Save(ctx, "sid-1", models.Actor{UserID: 1, Role: models.RoleAdmin}, time.Hour))
	forged, _, err := tokens.GenerateToken(2, "admin", "", "sid-1")
	require.NoError(t, err)
	_, err = policy.Resolve(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, sessions.Save(ctx, "sid-3", models.Actor{UserID: 3, Role: "root"}, time.Hour))
	odd, _, err := tokens.GenerateToken(3, "root", "", "sid-3")
	require.NoError(t, err)
	_, err = policy.Resolve(ctx, odd)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), models.Actor{UserID: 4, Role: models.RoleAdmin})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(4), actor.UserID)
}
