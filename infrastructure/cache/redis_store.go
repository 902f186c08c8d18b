package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
)

type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore stores one JSON record per cache key. Expiry is left to the
// response cache so that a stale record can still be inspected.
func NewRedisStore(rdb *redis.Client) repository.IResponseStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, kind model.ResourceKind, id string) (*model.CachedResponse, error) {
	raw, err := s.rdb.Get(ctx, model.CacheKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp model.CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *RedisStore) Save(ctx context.Context, resp *model.CachedResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, resp.Key(), raw, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, kind model.ResourceKind, id string) error {
	return s.rdb.Del(ctx, model.CacheKey(kind, id)).Err()
}
