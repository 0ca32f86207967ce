package config

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ConnectRedis returns a connected client, or nil when Redis is disabled or
// unreachable. Callers treat nil as "no payload cache".
func ConnectRedis(ctx context.Context, cfg RedisConfig, log logrus.FieldLogger) *redis.Client {
	if !cfg.Enabled {
		log.Info("Redis disabled, render payload cache off")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.WithError(err).Warn("Redis connection failed, render payload cache off")
		_ = client.Close()
		return nil
	}

	log.WithField("addr", cfg.Addr).Info("Connected to Redis")
	return client
}
