package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const regenerationKeyPrefix = "goal:regen:"

// RegenerationRepository holds per-group regeneration cooldowns as Redis keys with a TTL,
// so every API instance sees the same window.
type RegenerationRepository struct {
	client *redis.Client
}

// NewRegenerationRepository constructs the limiter store.
func NewRegenerationRepository(client *redis.Client) *RegenerationRepository {
	return &RegenerationRepository{client: client}
}

func regenerationKey(groupID string) string {
	return regenerationKeyPrefix + groupID
}

// Acquire starts a cooldown for the group. When one is already running it
// returns false and the time left on it.
func (r *RegenerationRepository) Acquire(ctx context.Context, groupID string, cooldown time.Duration) (bool, time.Duration, error) {
	key := regenerationKey(groupID)
	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis pttl %s: %w", key, err)
	}
	if remaining < 0 {
		// key has no expiry or vanished between calls
		remaining = cooldown
	}
	return false, remaining, nil
}

// Release ends the group's cooldown early.
func (r *RegenerationRepository) Release(ctx context.Context, groupID string) error {
	key := regenerationKey(groupID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
