package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "users-crud/internal/domain/user"
)

const (
	// ListKey is the Redis key holding the serialized user list.
	ListKey = "users:all"

	// GenerationKey counts invalidations. A list read before the latest
	// invalidation must not be stored.
	GenerationKey = "users:gen"
)

// setIfGeneration stores the list only while the generation is unchanged.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// UserListCache caches the full result of the list operation.
type UserListCache interface {
	// Get returns the cached list. The bool is false on a cache miss.
	Get(ctx context.Context) ([]domain.User, bool, error)

	// Generation returns the current invalidation counter.
	Generation(ctx context.Context) (int64, error)

	// Set stores the list with the configured TTL if gen is still current.
	// The bool is false when a newer invalidation made the list stale.
	Set(ctx context.Context, gen int64, users []domain.User) (bool, error)

	// Invalidate bumps the generation and drops the cached list.
	Invalidate(ctx context.Context) error
}

// cachedUser is the wire form stored in Redis.
type cachedUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RedisUserListCache implements UserListCache using Redis as the backing store.
type RedisUserListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserListCache creates a new Redis-backed list cache.
func NewRedisUserListCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserListCache {
	return &RedisUserListCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get retrieves the user list from Redis.
func (c *RedisUserListCache) Get(ctx context.Context) ([]domain.User, bool, error) {
	data, err := c.client.Get(ctx, ListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("user list cache miss")
		return nil, false, nil
	}
	if err != nil {
		c.log.Error("failed to get user list from cache", zap.Error(err))
		return nil, false, err
	}

	var stored []cachedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		c.log.Error("failed to unmarshal cached user list", zap.Error(err))
		return nil, false, err
	}

	users := make([]domain.User, len(stored))
	for i, u := range stored {
		users[i] = domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	c.log.Debug("user list cache hit", zap.Int("count", len(users)))
	return users, true, nil
}

// Generation reads the invalidation counter. A missing key is generation 0.
func (c *RedisUserListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.log.Error("failed to read user list generation", zap.Error(err))
		return 0, err
	}
	return gen, nil
}

// Set stores the user list in Redis with TTL unless an invalidation happened
// after gen was read.
func (c *RedisUserListCache) Set(ctx context.Context, gen int64, users []domain.User) (bool, error) {
	if users == nil {
		return false, fmt.Errorf("cannot cache nil user list")
	}

	stored := make([]cachedUser, len(users))
	for i, u := range users {
		stored[i] = cachedUser{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		c.log.Error("failed to marshal user list for cache", zap.Error(err))
		return false, err
	}

	ok, err := setIfGeneration.Run(ctx, c.client,
		[]string{ListKey, GenerationKey},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Bool()
	if err != nil {
		c.log.Error("failed to set user list cache", zap.Error(err))
		return false, err
	}
	if !ok {
		c.log.Debug("skipped caching stale user list", zap.Int64("generation", gen))
		return false, nil
	}

	c.log.Debug("cached user list", zap.Int("count", len(users)), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Invalidate bumps the generation and removes the cached list in one transaction.
func (c *RedisUserListCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, ListKey)
		return nil
	})
	if err != nil {
		c.log.Error("failed to invalidate user list cache", zap.Error(err))
		return err
	}

	c.log.Debug("invalidated user list cache")
	return nil
}
