package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
)

type CacheRepository interface {
	Get(ctx context.Context, linkID string) (*models.SharedLink, error)
	Set(ctx context.Context, linkID string, link *models.SharedLink, ttl time.Duration) error
	Delete(ctx context.Context, linkID string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, linkID string) (*models.SharedLink, error) {
	data, err := r.redis.Client.Get(ctx, r.key(linkID)).Bytes()
	if err != nil {
		return nil, err
	}

	var link models.SharedLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shared link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) Set(ctx context.Context, linkID string, link *models.SharedLink, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal shared link: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(linkID), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, linkID string) error {
	return r.redis.Client.Del(ctx, r.key(linkID)).Err()
}

func (r *cacheRepository) key(linkID string) string {
	return "sharedlink:" + linkID
}
