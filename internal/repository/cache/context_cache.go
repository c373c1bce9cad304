package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"capec-chatbot-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const contextKeyPrefix = "retrieval:ctx:"

// RedisContextCache memoizes query -> context passages. Cache failures
// are logged and treated as misses so retrieval stays available when
// redis is down.
type RedisContextCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.ILogger
}

func NewRedisContextCache(redisURL string, ttl time.Duration, log logger.ILogger) (*RedisContextCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisContextCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log,
	}, nil
}

func (c *RedisContextCache) Get(ctx context.Context, query string) ([]string, bool) {
	data, err := c.client.Get(ctx, contextKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("CACHE", "context cache get failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var passages []string
	if err := json.Unmarshal(data, &passages); err != nil {
		c.log.Warn("CACHE", "context cache entry corrupt, dropping", map[string]interface{}{"error": err.Error()})
		_ = c.client.Del(ctx, contextKey(query)).Err()
		return nil, false
	}
	return passages, true
}

func (c *RedisContextCache) Set(ctx context.Context, query string, passages []string) {
	data, err := json.Marshal(passages)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, contextKey(query), data, c.ttl).Err(); err != nil {
		c.log.Warn("CACHE", "context cache set failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *RedisContextCache) Close() error {
	return c.client.Close()
}

func contextKey(query string) string {
	sum := sha1.Sum([]byte(query))
	return contextKeyPrefix + hex.EncodeToString(sum[:])
}
