package config

import (
	"time"

	"cpolarstatus/pkg/domain"
)

// 会话存储类型
const (
	StoreFile   = "file"
	StoreSqlite = "sqlite"
	StoreRedis  = "redis"
)

// Config 配置文件结构体
type Config struct {
	Version   string          `yaml:"version" mapstructure:"version"`
	Account   AccountConfig   `yaml:"account" mapstructure:"account"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Parser    ParserConfig    `yaml:"parser" mapstructure:"parser"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Sqlite    SqliteConfig    `yaml:"sqlite" mapstructure:"sqlite"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Serve     ServeConfig     `yaml:"serve" mapstructure:"serve"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AccountConfig 仪表盘账号
type AccountConfig struct {
	LoginName string `yaml:"login_name" mapstructure:"login_name"`
	Password  string `yaml:"password" mapstructure:"password"`
}

// DashboardConfig 仪表盘访问设置
type DashboardConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout 为 0 时使用传输层默认行为
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ParserConfig 表格解析设置
type ParserConfig struct {
	TablePath string `yaml:"table_path" mapstructure:"table_path"`
}

// SessionConfig 会话令牌存储设置
type SessionConfig struct {
	Store         string `yaml:"store" mapstructure:"store"` // file / sqlite / redis
	File          string `yaml:"file" mapstructure:"file"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	RedisKey      string `yaml:"redis_key" mapstructure:"redis_key"`
}

// SqliteConfig 本地数据库设置
type SqliteConfig struct {
	Db     string `yaml:"db" mapstructure:"db"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// HistoryConfig 抓取历史记录设置
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ServeConfig 本地 HTTP 接口设置
type ServeConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// LogConfig 日志设置
type LogConfig struct {
	Level  string   `yaml:"level" mapstructure:"level"`
	Writer []string `yaml:"writer" mapstructure:"writer"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	d := GetDefaultSettings()
	return &Config{
		Version: "1.0.0",
		Dashboard: DashboardConfig{
			BaseURL: d.DashboardURL,
		},
		Parser: ParserConfig{
			TablePath: d.TablePath,
		},
		Session: SessionConfig{
			Store:    d.SessionStore,
			File:     d.SessionFile,
			RedisKey: d.RedisKey,
		},
		Sqlite: SqliteConfig{
			Db:     "data.db",
			Prefix: "cpolar_",
		},
		Serve: ServeConfig{
			Listen: d.Listen,
		},
		Log: LogConfig{
			Level:  "info",
			Writer: []string{"console"},
		},
	}
}

// Credentials 返回配置中的登录凭据，账号或密码缺失时返回 nil
func (c *Config) Credentials() *domain.Credentials {
	if c == nil {
		return nil
	}
	creds := &domain.Credentials{
		LoginName: c.Account.LoginName,
		Password:  c.Account.Password,
	}
	if !creds.Valid() {
		return nil
	}
	return creds
}

// NeedsDatabase 当前配置是否需要打开本地 sqlite 数据库
func (c *Config) NeedsDatabase() bool {
	return c.History.Enabled || c.Session.Store == StoreSqlite
}
