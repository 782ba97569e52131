package db

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Options 数据库配置选项
type Options struct {
	// Name 数据库文件名，位于平台数据目录下
	Name string
	// FullPath 数据库文件完整路径，非空时优先于 Name
	FullPath string
	// Prefix 表前缀
	Prefix string
	// Logger GORM 日志实现
	Logger logger.Interface
}

// New 创建并初始化数据库连接
func New(opts Options) (*gorm.DB, error) {
	dbPath := opts.FullPath
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultPath(opts.Name)
		if err != nil {
			return nil, err
		}
	}

	// 确保数据库目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	gormLogger := opts.Logger
	if gormLogger == nil {
		gormLogger = logger.Discard
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   opts.Prefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	// 单进程顺序读写，一个连接足够，也避免 SQLITE_BUSY
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate 执行数据库自动迁移
func Migrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(models...)
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDefaultPath 获取平台相关的默认数据库文件路径
func GetDefaultPath(dbName string) (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// %APPDATA%/cpolar-status/
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		// ~/Library/Application Support/cpolar-status/
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
		// Linux: ~/.local/share/cpolar-status/
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	return filepath.Join(baseDir, "cpolar-status", dbName), nil
}
