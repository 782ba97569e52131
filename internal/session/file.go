package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"cpolarstatus/pkg/errx"
)

// FileStore 把令牌原样保存在一个纯文本文件中，不做任何编码
type FileStore struct {
	path string
}

// NewFileStore 创建文件存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 返回文件路径
func (s *FileStore) Path() string { return s.path }

// Load 读取令牌文件，文件不存在或为空视为没有会话
func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errx.Wrap(errx.CodeStorage, err, "read session file")
	}
	return string(data), nil
}

// Save 通过临时文件 + rename 覆盖令牌文件
func (s *FileStore) Save(ctx context.Context, value string) error {
	if err := checkValue(value); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errx.Wrap(errx.CodeStorage, err, "create session directory")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(value), 0600); err != nil {
		return errx.Wrap(errx.CodeStorage, err, "write session file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errx.Wrap(errx.CodeStorage, err, "replace session file")
	}
	return nil
}

// Clear 删除令牌文件
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errx.Wrap(errx.CodeStorage, err, "remove session file")
	}
	return nil
}
