package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cdm/backend/services/station-service/internal/models"
)

// Operation names an action guarded by the access policy.
type Operation string

const (
	OpListStations      Operation = "stations.list"
	OpTransitionStation Operation = "stations.transition"
	OpCreateStation     Operation = "stations.create"
	OpDeleteStation     Operation = "stations.delete"
	OpStationHistory    Operation = "stations.history"
	OpListFaultCauses   Operation = "fault_causes.list"
	OpCreateFaultCause  Operation = "fault_causes.create"
	OpOwnHistory        Operation = "history.own"
	OpActorHistory      Operation = "history.actor"
	OpMe                Operation = "auth.me"
)

var staffRoles = []models.Role{models.RoleAdmin, models.RoleInspector}

var adminOnly = []models.Role{models.RoleAdmin}

// rolesFor maps each guarded operation to the roles allowed to invoke it.
// Operations absent from the map are public.
var rolesFor = map[Operation][]models.Role{
	OpTransitionStation: staffRoles,
	OpCreateStation:     adminOnly,
	OpDeleteStation:     adminOnly,
	OpStationHistory:    adminOnly,
	OpListFaultCauses:   staffRoles,
	OpCreateFaultCause:  staffRoles,
	OpOwnHistory:        staffRoles,
	OpActorHistory:      adminOnly,
	OpMe:                staffRoles,
}

// RequiresActor reports whether op needs an authenticated actor.
func RequiresActor(op Operation) bool {
	_, guarded := rolesFor[op]
	return guarded
}

// Authorize returns ErrForbidden when actor's role may not invoke op.
func Authorize(actor models.Actor, op Operation) error {
	allowed, guarded := rolesFor[op]
	if !guarded {
		return nil
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not %s", ErrForbidden, actor.Role, op)
}

// TokenValidator decodes signed session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// AccessPolicy resolves bearer tokens to actors.
type AccessPolicy struct {
	tokens   TokenValidator
	sessions SessionStore
}

// NewAccessPolicy builds AccessPolicy.
func NewAccessPolicy(tokens TokenValidator, sessions SessionStore) *AccessPolicy {
	return &AccessPolicy{tokens: tokens, sessions: sessions}
}

// Resolve returns the actor behind token. A token is only honoured while its
// server-side session exists and belongs to the same user.
func (p *AccessPolicy) Resolve(ctx context.Context, token string) (models.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Actor{}, ErrUnauthenticated
	}
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.ID == "" {
		return models.Actor{}, fmt.Errorf("%w: token has no session", ErrUnauthenticated)
	}

	actor, err := p.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return models.Actor{}, fmt.Errorf("%w: session expired", ErrUnauthenticated)
		}
		return models.Actor{}, err
	}
	if actor.UserID != claims.UserID {
		return models.Actor{}, fmt.Errorf("%w: session user mismatch", ErrUnauthenticated)
	}
	if _, ok := models.NormalizeRole(string(actor.Role)); !ok {
		return models.Actor{}, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, actor.Role)
	}
	return *actor, nil
}
