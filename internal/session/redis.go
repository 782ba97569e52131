package session

import (
	"context"
	"errors"

	"cpolarstatus/pkg/errx"

	"github.com/redis/go-redis/v9"
)

// RedisStore 把令牌保存在 Redis 的一个字符串键中，不设置过期时间
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(rdb redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = "cpolar:session"
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errx.Wrap(errx.CodeStorage, err, "redis get session")
	}
	return val, nil
}

func (s *RedisStore) Save(ctx context.Context, value string) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, value, 0).Err(); err != nil {
		return errx.Wrap(errx.CodeStorage, err, "redis set session")
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return errx.Wrap(errx.CodeStorage, err, "redis del session")
	}
	return nil
}

// Ping 检查 Redis 连通性
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
