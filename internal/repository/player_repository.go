package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kidquest-backend/internal/config"
)

// PlayerRepository keeps guest player registrations in Redis.
type PlayerRepository struct {
	rdb *redis.Client
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(rdb *redis.Client) *PlayerRepository {
	return &PlayerRepository{rdb: rdb}
}

// Register stores the nickname; the key expires with the guest token.
func (r *PlayerRepository) Register(ctx context.Context, playerID uuid.UUID, nickname string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, config.CacheKey.PlayerNicknameKey(playerID), nickname, ttl).Err(); err != nil {
		return fmt.Errorf("store nickname: %w", err)
	}
	return nil
}

// Exists reports whether the player is still registered.
func (r *PlayerRepository) Exists(ctx context.Context, playerID uuid.UUID) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.PlayerNicknameKey(playerID)).Result()
	if err != nil {
		return false, fmt.Errorf("check player: %w", err)
	}
	return n == 1, nil
}

// Nicknames resolves nicknames for many players at once. Unknown players are
// left out of the map.
func (r *PlayerRepository) Nicknames(ctx context.Context, playerIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		keys[i] = config.CacheKey.PlayerNicknameKey(id)
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get nicknames: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[playerIDs[i]] = s
		}
	}
	return out, nil
}
