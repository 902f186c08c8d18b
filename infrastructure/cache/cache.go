package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"syllabus-crawler/infrastructure/logger"
)

func NewCache(ctx context.Context, address string, username string, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis ping failed")
	}
	return rdb
}
