package cache

import (
	"context"
	"log"
	"log/slog"
	"time"

	"crowdsolve/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store, shared across instances.
type Redis struct {
	client *redis.Client
}

func ConnectRedis() *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	return &Redis{client: client}
}

func (r *Redis) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("redis get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("redis set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("redis del failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *Redis) Invalidate(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("redis invalidate failed", slog.String("key", iter.Val()), slog.String("error", err.Error()))
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("redis scan failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
	}
}
