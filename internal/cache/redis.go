package cache

import (
	"context"
	"time"

	"mitanda/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis for catalog response caching. Returns nil
// when no address is configured or the server is unreachable; callers degrade
// to serving uncached.
func NewRedisClient(cfg *config.CacheConfig, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis no disponible, caché deshabilitado", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return nil
	}
	return client
}
