package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"cdm/backend/services/station-service/internal/models"
)

// SessionStore keeps the server-side half of a login. Logging out deletes the
// entry, which invalidates the token before it expires.
type SessionStore interface {
	Save(ctx context.Context, sessionID string, actor models.Actor, ttl time.Duration) error
	// Get returns ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*models.Actor, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore stores sessions as JSON values with a TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns redis-backed store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("stations:session:%s", sessionID)
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, actor models.Actor, ttl time.Duration) error {
	data, err := json.Marshal(actor)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.Actor, error) {
	result, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var actor models.Actor
	if err := json.Unmarshal([]byte(result), &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// MemorySessionStore keeps sessions in process. Used when no redis address is configured.
type MemorySessionStore struct {
	cache *cache.Cache
}

// NewMemorySessionStore returns an in-process store that sweeps expired
// sessions every cleanup interval.
func NewMemorySessionStore(cleanup time.Duration) *MemorySessionStore {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &MemorySessionStore{cache: cache.New(cache.NoExpiration, cleanup)}
}

func (s *MemorySessionStore) Save(ctx context.Context, sessionID string, actor models.Actor, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(sessionID, actor, ttl)
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.Actor, error) {
	value, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	actor := value.(models.Actor)
	return &actor, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
