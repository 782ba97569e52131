package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cpolarstatus/internal/config"
	"cpolarstatus/internal/session"
	"cpolarstatus/internal/storage/db"
	"cpolarstatus/internal/storage/model"
	"cpolarstatus/internal/storage/repo"
	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"

	"github.com/redis/go-redis/v9"
)

// 保存后读取必须逐字节一致，包括空白和多字节字符
var roundTripValues = []string{
	"8ca896c6-1aa4-43a7-8ee0-3993d3cc8489",
	" leading and trailing ",
	"line1\nline2\n",
	"中文令牌",
	"a=b; c=d",
}

func newSettingsRepo(t *testing.T) *repo.SettingsRepo {
	t.Helper()
	gdb, err := db.New(db.Options{FullPath: ":memory:", Prefix: "test_"})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	if err := db.Migrate(gdb, model.All()...); err != nil {
		t.Fatalf("迁移数据库失败: %v", err)
	}
	return repo.NewSettingsRepo(gdb)
}

// testStoreContract 所有存储实现都必须满足的行为
func testStoreContract(t *testing.T, s session.Store) {
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("初始清理失败: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil || got != "" {
		t.Fatalf("空存储应返回 (\"\", nil)，got (%q, %v)", got, err)
	}

	for _, v := range roundTripValues {
		if err := s.Save(ctx, v); err != nil {
			t.Fatalf("Save(%q) 失败: %v", v, err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load 失败: %v", err)
		}
		if got != v {
			t.Errorf("Load() = %q, want %q", got, v)
		}
	}

	if err := s.Save(ctx, ""); !errx.Is(err, errx.CodeStorage) || !errors.Is(err, domain.ErrEmptySessionToken) {
		t.Errorf("保存空令牌应返回 STORAGE 错误，got %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if got, _ := s.Load(ctx); got != "" {
		t.Errorf("清理后 Load() = %q, want empty", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("重复清理不应报错: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	testStoreContract(t, session.NewFileStore(filepath.Join(t.TempDir(), "state", "session")))
}

func TestFileStore_RawContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	s := session.NewFileStore(path)

	if err := s.Save(context.Background(), "raw-value"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if string(data) != "raw-value" {
		t.Errorf("文件内容应为原始令牌，got %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("临时文件应已被重命名")
	}
}

func TestFileStore_WriteFailure(t *testing.T) {
	// 目标路径是一个目录，rename 必然失败
	dir := filepath.Join(t.TempDir(), "session")
	if err := os.MkdirAll(filepath.Join(dir, "child"), 0700); err != nil {
		t.Fatal(err)
	}

	err := session.NewFileStore(dir).Save(context.Background(), "v")
	if !errx.Is(err, errx.CodeStorage) {
		t.Errorf("got %v, want STORAGE error", err)
	}
}

func TestFileStore_EmptyFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	got, err := session.NewFileStore(path).Load(context.Background())
	if err != nil || got != "" {
		t.Errorf("got (%q, %v), want (\"\", nil)", got, err)
	}
}

func TestDBStore(t *testing.T) {
	testStoreContract(t, session.NewDBStore(newSettingsRepo(t)))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CPOLAR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CPOLAR_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	s := session.NewRedisStore(rdb, "cpolar:test:session")
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	testStoreContract(t, s)
}

func TestNew(t *testing.T) {
	settings := newSettingsRepo(t)

	tests := []struct {
		name    string
		store   string
		deps    session.Deps
		want    string
		wantErr error
	}{
		{"文件", config.StoreFile, session.Deps{}, "*session.FileStore", nil},
		{"sqlite", config.StoreSqlite, session.Deps{Settings: settings}, "*session.DBStore", nil},
		{"sqlite 缺少数据库", config.StoreSqlite, session.Deps{}, "", domain.ErrDatabaseNotInitialized},
		{"redis", config.StoreRedis, session.Deps{}, "*session.RedisStore", nil},
		{"未知", "etcd", session.Deps{}, "", domain.ErrUnknownStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Session.Store = tt.store
			cfg.Session.File = filepath.Join(t.TempDir(), "session")
			cfg.Session.RedisAddr = "127.0.0.1:0"

			s, err := session.New(cfg, tt.deps)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := typeName(s); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(s session.Store) string {
	switch s.(type) {
	case *session.FileStore:
		return "*session.FileStore"
	case *session.DBStore:
		return "*session.DBStore"
	case *session.RedisStore:
		return "*session.RedisStore"
	}
	return "unknown"
}
