// Package session 持久化仪表盘会话令牌。
//
// 只保存令牌的 value，每次重新登录都会整体覆盖。并发调用同一份存储是不安全的，
// 调用方需要自行保证顺序。
package session

import (
	"context"
	"fmt"

	"cpolarstatus/internal/config"
	"cpolarstatus/internal/storage/repo"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"

	"github.com/redis/go-redis/v9"
)

// Store 会话令牌存储
type Store interface {
	// Load 返回持久化的令牌，不存在时返回空字符串和 nil
	Load(ctx context.Context) (string, error)

	// Save 覆盖持久化的令牌，写入失败返回 STORAGE 错误
	Save(ctx context.Context, value string) error

	// Clear 删除持久化的令牌，不存在时不报错
	Clear(ctx context.Context) error
}

// Deps 构造存储时可选的外部依赖
type Deps struct {
	Settings *repo.SettingsRepo
	Redis    redis.UniversalClient
}

// New 根据配置创建存储
func New(cfg *config.Config, deps Deps) (Store, error) {
	switch cfg.Session.Store {
	case config.StoreFile:
		return NewFileStore(cfg.Session.File), nil
	case config.StoreSqlite:
		if deps.Settings == nil {
			return nil, domain.ErrDatabaseNotInitialized
		}
		return NewDBStore(deps.Settings), nil
	case config.StoreRedis:
		rdb := deps.Redis
		if rdb == nil {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Session.RedisAddr,
				Password: cfg.Session.RedisPassword,
				DB:       cfg.Session.RedisDB,
			})
		}
		return NewRedisStore(rdb, cfg.Session.RedisKey), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStore, cfg.Session.Store)
	}
}

// checkValue 持久化的令牌必须非空
func checkValue(value string) error {
	if value == "" {
		return errx.Wrap(errx.CodeStorage, domain.ErrEmptySessionToken, "save session")
	}
	return nil
}
