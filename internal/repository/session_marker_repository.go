package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// RedisSessionMarkerRepository stores login markers under login:<user_id>.
type RedisSessionMarkerRepository struct {
	rdb *redis.Client
}

// NewRedisSessionMarkerRepository creates a new RedisSessionMarkerRepository.
func NewRedisSessionMarkerRepository(rdb *redis.Client) *RedisSessionMarkerRepository {
	return &RedisSessionMarkerRepository{rdb: rdb}
}

// Put overwrites any previous marker of the user.
func (r *RedisSessionMarkerRepository) Put(ctx context.Context, userID uuid.UUID, m *model.SessionMarker, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal session marker: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID.String()), data, ttl).Err()
}

func (r *RedisSessionMarkerRepository) Get(ctx context.Context, userID uuid.UUID) (*model.SessionMarker, error) {
	key := config.CacheKey.UserSessionKey(userID.String())
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMarkerNotFound
		}
		return nil, fmt.Errorf("get session marker: %w", err)
	}
	return decodeMarker(key, data)
}

func (r *RedisSessionMarkerRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID.String())).Err()
}

func decodeMarker(key string, data []byte) (*model.SessionMarker, error) {
	var m model.SessionMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &CorruptStateError{Store: "session_marker", Key: key, Err: err}
	}
	if err := validate.Struct(&m); err != nil {
		return nil, &CorruptStateError{Store: "session_marker", Key: key, Err: err}
	}
	return &m, nil
}
