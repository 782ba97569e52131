package browser_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cpolarstatus/internal/browser"
)

func TestStart_UserDataDirNotCreatable(t *testing.T) {
	// 以普通文件作为父目录，MkdirAll 必然失败
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}

	b, err := browser.Start(context.Background(), browser.Options{
		ExecPath:    filepath.Join(t.TempDir(), "chrome"),
		UserDataDir: filepath.Join(file, "profile"),
	})
	if err == nil {
		_ = b.Stop(0)
		t.Fatal("用户数据目录无法创建时应返回错误")
	}
	if !strings.Contains(err.Error(), "create user data dir") {
		t.Errorf("err = %v, want create user data dir", err)
	}
}
