package redis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"rootstofarm.com/market/go-api/pkg/global"
)

func NewClient(cfg *global.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
		Protocol: 2,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	return errors.Wrap(client.Ping(ctx).Err(), "ping redis")
}
