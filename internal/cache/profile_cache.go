package cache

import (
	"coachdesk/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const profileKeyPrefix = "profile:"

// ProfileCache keeps user profiles in Redis with a TTL. It fronts the
// denormalizing joins in the chat and roster lists so a snapshot of N
// relationships does not cost N profile reads against the database.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache builds a Redis-backed profile cache.
func NewProfileCache(addr, password string, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// GetMany resolves the cached subset of the requested profiles and returns
// the IDs that were not found alongside. Cache errors are returned so callers
// can decide to fall through to the database.
func (c *ProfileCache) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, []primitive.ObjectID, error) {
	found := make(map[primitive.ObjectID]domain.User, len(ids))
	if len(ids) == 0 {
		return found, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKeyPrefix + id.Hex()
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, ids, err
	}

	var missing []primitive.ObjectID
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var user domain.User
		if err := json.Unmarshal([]byte(s), &user); err != nil {
			// Stale or corrupt entry; treat as a miss and let the
			// backfill overwrite it.
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = user
	}
	return found, missing, nil
}

// Set stores one profile with the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKeyPrefix+user.ID.Hex(), data, c.ttl).Err()
}

// Invalidate drops a cached profile, called after profile edits.
func (c *ProfileCache) Invalidate(ctx context.Context, id primitive.ObjectID) error {
	err := c.client.Del(ctx, profileKeyPrefix+id.Hex()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *ProfileCache) Close() error {
	return c.client.Close()
}
