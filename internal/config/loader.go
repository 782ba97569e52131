package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cpolarstatus/pkg/domain"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// 配置文件名（不含扩展名）与环境变量前缀
const (
	FileName  = "cpolar"
	EnvPrefix = "CPOLAR"
)

// Load 读取配置文件并叠加环境变量
// path 为空时依次在当前目录和 ~/.cpolar-status 下查找 cpolar.{yaml,json,toml}，找不到时使用默认配置。
// 返回实际使用的配置文件路径（可能为空）。
func Load(path string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, NewConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(FileName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreFile:
		if c.Session.File == "" {
			return fmt.Errorf("%w: session.file is empty", domain.ErrInvalidConfig)
		}
	case StoreSqlite:
	case StoreRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("%w: session.redis_addr is empty", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStore, c.Session.Store)
	}
	if c.Dashboard.BaseURL == "" {
		return fmt.Errorf("%w: dashboard.base_url is empty", domain.ErrInvalidConfig)
	}
	if c.Dashboard.Timeout < 0 {
		return fmt.Errorf("%w: dashboard.timeout is negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Write 将配置写入 YAML 文件，force 为 false 时不覆盖已有文件
func Write(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// DefaultDir 返回用户级配置目录 ~/.cpolar-status
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cpolar-status"), nil
}

// setDefaults 注册默认值，环境变量只会覆盖已注册的键
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("account.login_name", d.Account.LoginName)
	v.SetDefault("account.password", d.Account.Password)
	v.SetDefault("dashboard.base_url", d.Dashboard.BaseURL)
	v.SetDefault("dashboard.timeout", d.Dashboard.Timeout)
	v.SetDefault("parser.table_path", d.Parser.TablePath)
	v.SetDefault("session.store", d.Session.Store)
	v.SetDefault("session.file", d.Session.File)
	v.SetDefault("session.redis_addr", d.Session.RedisAddr)
	v.SetDefault("session.redis_password", d.Session.RedisPassword)
	v.SetDefault("session.redis_db", d.Session.RedisDB)
	v.SetDefault("session.redis_key", d.Session.RedisKey)
	v.SetDefault("sqlite.db", d.Sqlite.Db)
	v.SetDefault("sqlite.prefix", d.Sqlite.Prefix)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("serve.listen", d.Serve.Listen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.writer", d.Log.Writer)
}
