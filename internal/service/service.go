package service

import (
	"context"
	"sync"
	"time"

	"cpolarstatus/internal/logger"
	"cpolarstatus/internal/parser"
	"cpolarstatus/pkg/domain"
)

// Fetcher 获取已登录的状态页
type Fetcher interface {
	FetchStatusDocument(ctx context.Context, creds *domain.Credentials) (domain.RawDocument, error)
}

// History 抓取历史的读写
type History interface {
	Record(ctx context.Context, list domain.TunnelList) (*domain.TunnelSnapshot, error)
	Get(ctx context.Context, snapshotID string) (*domain.TunnelSnapshot, error)
	List(ctx context.Context, limit int) ([]*domain.TunnelSnapshot, int64, error)
}

// FetchMarker 记录上次成功抓取时间
type FetchMarker interface {
	SetLastFetchAt(ctx context.Context, ts time.Time) error
}

// Options 服务依赖
type Options struct {
	Credentials *domain.Credentials
	Fetcher     Fetcher
	Parser      parser.Parser
	// History 为 nil 时不记录历史
	History History
	Marker  FetchMarker
	Logger  logger.Logger
}

// Service 对外的隧道查询服务
type Service struct {
	mu      sync.Mutex
	creds   *domain.Credentials
	fetcher Fetcher
	parser  parser.Parser
	history History
	marker  FetchMarker
	log     logger.Logger
}

// New 创建服务
func New(opts Options) *Service {
	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &Service{
		creds:   opts.Credentials,
		fetcher: opts.Fetcher,
		parser:  opts.Parser,
		history: opts.History,
		marker:  opts.Marker,
		log:     l,
	}
}

// FetchTunnels 登录（如有必要）并返回当前在线的隧道列表
//
// 同一时间只允许一次抓取，避免两次登录流程交替覆盖同一份会话令牌。
// 历史记录写入失败只记日志，不影响返回结果。
func (s *Service) FetchTunnels(ctx context.Context) (domain.TunnelList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.fetcher.FetchStatusDocument(ctx, s.creds)
	if err != nil {
		s.log.Err(err, "获取状态页失败")
		return nil, err
	}

	list, err := s.parser.ParseTunnels(doc)
	if err != nil {
		s.log.Err(err, "解析隧道表格失败")
		return nil, err
	}
	s.log.Info("获取隧道列表成功", "count", len(list))

	if s.history != nil {
		if snap, err := s.history.Record(ctx, list); err != nil {
			s.log.Err(err, "记录隧道快照失败")
		} else {
			s.log.Debug("已记录隧道快照", "snapshotId", snap.ID)
		}
	}
	if s.marker != nil {
		if err := s.marker.SetLastFetchAt(ctx, time.Now()); err != nil {
			s.log.Err(err, "记录抓取时间失败")
		}
	}
	return list, nil
}

// ListSnapshots 列出最近的快照
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]*domain.TunnelSnapshot, int64, error) {
	if s.history == nil {
		return nil, 0, domain.ErrHistoryDisabled
	}
	return s.history.List(ctx, limit)
}

// GetSnapshot 根据 ID 获取快照
func (s *Service) GetSnapshot(ctx context.Context, id string) (*domain.TunnelSnapshot, error) {
	if s.history == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.history.Get(ctx, id)
}
