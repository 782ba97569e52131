package service

import (
	"errors"

	"cpolarstatus/internal/config"
	"cpolarstatus/internal/dashboard"
	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/parser"
	"cpolarstatus/internal/session"
	"cpolarstatus/internal/storage/db"
	"cpolarstatus/internal/storage/model"
	"cpolarstatus/internal/storage/repo"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Components 根据配置装配好的全部组件
type Components struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     redis.UniversalClient
	Settings  *repo.SettingsRepo
	Snapshots *repo.SnapshotRepo
	Store     session.Store
	Client    *dashboard.Client
	Parser    *parser.TableParser
	Service   *Service
}

// Build 按配置打开数据库、会话存储，并组装客户端、解析器和服务
//
// 只有会话存储为 sqlite 或开启了历史记录时才会打开数据库。
func Build(cfg *config.Config, l logger.Logger) (*Components, error) {
	if l == nil {
		l = logger.Nop()
	}
	c := &Components{Config: cfg}

	if cfg.NeedsDatabase() {
		gdb, err := db.New(db.Options{
			Name:   cfg.Sqlite.Db,
			Prefix: cfg.Sqlite.Prefix,
			Logger: db.NewLogger(l),
		})
		if err != nil {
			return nil, err
		}
		c.DB = gdb
		if err := db.Migrate(gdb, model.All()...); err != nil {
			_ = c.Close()
			return nil, err
		}
		c.Settings = repo.NewSettingsRepo(gdb)
		if cfg.History.Enabled {
			c.Snapshots = repo.NewSnapshotRepo(gdb)
		}
	}

	if cfg.Session.Store == config.StoreRedis {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
	}

	store, err := session.New(cfg, session.Deps{Settings: c.Settings, Redis: c.Redis})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Store = store

	client, err := dashboard.New(dashboard.Options{
		BaseURL: cfg.Dashboard.BaseURL,
		Timeout: cfg.Dashboard.Timeout,
		Store:   store,
		Logger:  l,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Client = client

	p, err := parser.NewTableParser(cfg.Parser.TablePath, l)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Parser = p

	opts := Options{
		Credentials: cfg.Credentials(),
		Fetcher:     client,
		Parser:      p,
		Logger:      l,
	}
	// 避免把 nil 指针装进接口
	if c.Snapshots != nil {
		opts.History = c.Snapshots
	}
	if c.Settings != nil {
		opts.Marker = c.Settings
	}
	c.Service = New(opts)
	return c, nil
}

// Close 释放数据库和 Redis 连接
func (c *Components) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, db.Close(c.DB))
	}
	return errors.Join(errs...)
}
