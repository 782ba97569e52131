package db_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/storage/db"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"
)

// TestModel 定义一个用于测试数据库迁移和基础操作的简单模型。
type TestModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

// TestGetDefaultPath 测试数据库默认存储路径的生成逻辑。
func TestGetDefaultPath(t *testing.T) {
	dbName := "test_db.db"
	path, err := db.GetDefaultPath(dbName)
	if err != nil {
		t.Fatalf("获取默认路径失败: %v", err)
	}

	if !strings.HasSuffix(path, dbName) {
		t.Errorf("路径 %s 不是以 %s 结尾", path, dbName)
	}

	if !strings.Contains(path, "cpolar-status") {
		t.Errorf("路径 %s 不包含应用名称 'cpolar-status'", path)
	}
}

// TestDatabaseInitialization 测试数据库的初始化、连接以及自动迁移功能。
// 验证表前缀配置、SingularTable 策略以及基本的数据读写。
func TestDatabaseInitialization(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "unit_test.db")

	gdb, err := db.New(db.Options{
		FullPath: dbPath,
		Prefix:   "test_",
	})
	if err != nil {
		t.Fatalf("初始化数据库连接失败: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb, &TestModel{}); err != nil {
		t.Fatalf("执行数据库迁移失败: %v", err)
	}

	if err := gdb.Create(&TestModel{Name: "clean_code"}).Error; err != nil {
		t.Errorf("向迁移后的表中写入数据失败: %v", err)
	}

	var count int64
	if err := gdb.Model(&TestModel{}).Count(&count).Error; err != nil {
		t.Errorf("查询记录数失败: %v", err)
	}
	if count != 1 {
		t.Errorf("预期记录数为 1，实际为 %d", count)
	}

	// SQLite 特有的查询表名方式
	var tableName string
	row := gdb.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name='test_test_model'").Row()
	if err := row.Scan(&tableName); err != nil {
		t.Errorf("未找到预期的带前缀表名 'test_test_model': %v", err)
	}
}

// TestLoggerTrace 验证 GORM 日志桥接：记录不存在不算错误，真实错误输出 error 级别。
func TestLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := db.NewLogger(logger.New(&buf, zerolog.DebugLevel))
	fc := func() (string, int64) { return "SELECT 1", 0 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("ErrRecordNotFound 不应输出日志: %s", buf.String())
	}

	l.Trace(context.Background(), time.Now(), fc, errors.New("disk I/O error"))
	if !strings.Contains(buf.String(), "SQL 执行错误") {
		t.Errorf("真实错误应输出日志: %s", buf.String())
	}

	buf.Reset()
	silent := l.LogMode(glog.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	if buf.Len() != 0 {
		t.Errorf("Silent 模式不应输出日志: %s", buf.String())
	}
}
