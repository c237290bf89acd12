// Package cache keeps public survey definitions in redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

// DefinitionCache implements evaluation.DefinitionCache. Redis failures are logged and treated as misses.
type DefinitionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDefinitionCache(client *redis.Client, ttl time.Duration) *DefinitionCache {
	return &DefinitionCache{client: client, ttl: ttl}
}

// Connect opens the redis client configured in cfg.Cache and pings it.
// It returns nil without error when caching is disabled.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
	}
	return client, nil
}

func (c *DefinitionCache) key(uniqueLink string) string {
	return fmt.Sprintf("survey:definition:%s", uniqueLink)
}

func (c *DefinitionCache) Get(ctx context.Context, uniqueLink string) (*evaluation.SurveyDefinition, bool) {
	data, err := c.client.Get(ctx, c.key(uniqueLink)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("Cache: failed to read survey definition:", err)
		return nil, false
	}

	var definition evaluation.SurveyDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		logger.Warn("Cache: dropping undecodable survey definition:", err)
		c.Invalidate(ctx, uniqueLink)
		return nil, false
	}
	return &definition, true
}

func (c *DefinitionCache) Set(ctx context.Context, uniqueLink string, definition *evaluation.SurveyDefinition) {
	data, err := json.Marshal(definition)
	if err != nil {
		logger.Err("Cache: failed to encode survey definition:", err)
		return
	}
	if err := c.client.Set(ctx, c.key(uniqueLink), data, c.ttl).Err(); err != nil {
		logger.Warn("Cache: failed to store survey definition:", err)
	}
}

func (c *DefinitionCache) Invalidate(ctx context.Context, uniqueLink string) {
	if err := c.client.Del(ctx, c.key(uniqueLink)).Err(); err != nil {
		logger.Warn("Cache: failed to invalidate survey definition:", err)
	}
}
