package model

import (
	"time"
)

// Setting 键值设置表
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`  // 设置键
	Value     string    `gorm:"type:text" json:"value"` // 设置值
	UpdatedAt time.Time `json:"updatedAt"`              // 更新时间
}

// 预定义的设置 Key
const (
	SettingKeySession     = "dashboard_session" // 仪表盘会话令牌
	SettingKeyLastFetchAt = "last_fetch_at"     // 上次成功抓取时间
)

// TunnelSnapshot 隧道列表快照表（每次成功抓取一条）
type TunnelSnapshot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                   // 数据库主键（内部使用）
	SnapshotID  string    `gorm:"uniqueIndex;not null" json:"snapshotId"` // 快照业务ID
	Count       int       `json:"count"`                                  // 隧道数量
	RecordsJSON string    `gorm:"type:text" json:"recordsJson"`           // 隧道列表 JSON 数组
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`                 // 抓取时间
}

// All 返回需要迁移的全部模型
func All() []any {
	return []any{&Setting{}, &TunnelSnapshot{}}
}
