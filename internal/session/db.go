package session

import (
	"context"

	"cpolarstatus/internal/storage/repo"
	"cpolarstatus/pkg/errx"
)

// DBStore 把令牌保存在 sqlite 设置表中
type DBStore struct {
	settings *repo.SettingsRepo
}

// NewDBStore 创建数据库存储
func NewDBStore(settings *repo.SettingsRepo) *DBStore {
	return &DBStore{settings: settings}
}

func (s *DBStore) Load(ctx context.Context) (string, error) {
	val, _, err := s.settings.GetSession(ctx)
	if err != nil {
		return "", errx.Wrap(errx.CodeStorage, err, "read session setting")
	}
	return val, nil
}

func (s *DBStore) Save(ctx context.Context, value string) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if err := s.settings.SetSession(ctx, value); err != nil {
		return errx.Wrap(errx.CodeStorage, err, "write session setting")
	}
	return nil
}

func (s *DBStore) Clear(ctx context.Context) error {
	if err := s.settings.ClearSession(ctx); err != nil {
		return errx.Wrap(errx.CodeStorage, err, "delete session setting")
	}
	return nil
}
