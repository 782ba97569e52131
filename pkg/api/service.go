package api

import (
	"context"

	"cpolarstatus/pkg/domain"
)

// Service 对外暴露的隧道查询接口
type Service interface {
	// FetchTunnels 获取当前在线的隧道列表，必要时自动登录
	FetchTunnels(ctx context.Context) (domain.TunnelList, error)

	// ListSnapshots 列出最近的抓取快照
	ListSnapshots(ctx context.Context, limit int) ([]*domain.TunnelSnapshot, int64, error)

	// GetSnapshot 获取单个快照
	GetSnapshot(ctx context.Context, id string) (*domain.TunnelSnapshot, error)
}

// HistoryPage 快照列表的分页结果
type HistoryPage struct {
	Total int64                    `json:"total"`
	Items []*domain.TunnelSnapshot `json:"items"`
}
