package repo

import (
	"context"
	"errors"
	"time"

	"cpolarstatus/internal/storage/model"

	"gorm.io/gorm"
)

// SettingsRepo 设置仓库
type SettingsRepo struct {
	BaseRepository[model.Setting]
}

// NewSettingsRepo 创建设置仓库实例
func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{
		BaseRepository: *NewBaseRepository[model.Setting](db),
	}
}

// Get 获取设置值，不存在时返回 gorm.ErrRecordNotFound
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting
	result := r.Db.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		return "", result.Error
	}
	return setting.Value, nil
}

// Lookup 获取设置值，不存在时返回 ("", false, nil)
func (r *SettingsRepo) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Get(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// GetWithDefault 获取设置值，不存在时返回默认值
func (r *SettingsRepo) GetWithDefault(ctx context.Context, key, defaultValue string) string {
	val, err := r.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	return val
}

// Set 设置值（存在则更新，不存在则创建）
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.Db.WithContext(ctx).Save(&setting).Error
}

// DeleteByKey 根据 key 删除设置
func (r *SettingsRepo) DeleteByKey(ctx context.Context, key string) error {
	return r.Db.WithContext(ctx).Delete(&model.Setting{}, "key = ?", key).Error
}

// GetSession 获取持久化的会话令牌
func (r *SettingsRepo) GetSession(ctx context.Context) (string, bool, error) {
	return r.Lookup(ctx, model.SettingKeySession)
}

// SetSession 覆盖持久化的会话令牌
func (r *SettingsRepo) SetSession(ctx context.Context, value string) error {
	return r.Set(ctx, model.SettingKeySession, value)
}

// ClearSession 删除持久化的会话令牌
func (r *SettingsRepo) ClearSession(ctx context.Context) error {
	return r.DeleteByKey(ctx, model.SettingKeySession)
}

// GetLastFetchAt 获取上次成功抓取时间
func (r *SettingsRepo) GetLastFetchAt(ctx context.Context) (time.Time, bool) {
	val := r.GetWithDefault(ctx, model.SettingKeyLastFetchAt, "")
	if val == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// SetLastFetchAt 记录上次成功抓取时间
func (r *SettingsRepo) SetLastFetchAt(ctx context.Context, ts time.Time) error {
	return r.Set(ctx, model.SettingKeyLastFetchAt, ts.UTC().Format(time.RFC3339))
}
