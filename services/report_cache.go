package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ReportCachePrefix = "restaurant:reports:"

// ReportCache stores rendered reports for a short time. Reports tolerate
// staleness up to the cache TTL.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(key string, value interface{})
}

// RedisReportCache keeps report JSON in Redis.
type RedisReportCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{redis: client, ttl: ttl}
}

func (c *RedisReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	cached, err := c.redis.Get(ctx, ReportCachePrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("Failed to read report cache", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		zap.L().Warn("Failed to unmarshal cached report", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set writes the value in the background.
func (c *RedisReportCache) Set(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		zap.L().Warn("Failed to marshal report for cache", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.redis.Set(bgCtx, ReportCachePrefix+key, data, c.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache report", zap.String("key", key), zap.Error(err))
		}
	}()
}
