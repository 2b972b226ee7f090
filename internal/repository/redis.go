package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/config"
	"github.com/redis/go-redis/v9"
)

// Redis используется только как кэш резолва shared_links,
// поэтому пул заметно меньше, чем у основной БД.
const (
	redisPoolSize     = 25
	redisMinIdleConns = 5
	redisPingTimeout  = 5 * time.Second
)

type RedisDB struct {
	Client *redis.Client
}

// NewRedisClient создаёт клиент Redis и проверяет соединение
func NewRedisClient(cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		PoolSize:     redisPoolSize,
		MinIdleConns: redisMinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

func (db *RedisDB) Close() error {
	return db.Client.Close()
}
