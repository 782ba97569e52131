package repo

import (
	"context"
	"time"

	"cpolarstatus/internal/codec"
	"cpolarstatus/internal/storage/model"
	"cpolarstatus/pkg/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotRepo 隧道快照仓库（只追加，不参与抓取流程）
type SnapshotRepo struct {
	BaseRepository[model.TunnelSnapshot]
	now func() time.Time
}

// NewSnapshotRepo 创建快照仓库实例
func NewSnapshotRepo(db *gorm.DB) *SnapshotRepo {
	return &SnapshotRepo{
		BaseRepository: *NewBaseRepository[model.TunnelSnapshot](db),
		now:            time.Now,
	}
}

// snapshotIDFilter 按快照业务ID筛选
type snapshotIDFilter string

func (f snapshotIDFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("snapshot_id = ?", string(f))
}

// createdBeforeFilter 按创建时间筛选
type createdBeforeFilter time.Time

func (f createdBeforeFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", time.Time(f))
}

// Record 保存一次抓取结果，返回快照
func (r *SnapshotRepo) Record(ctx context.Context, list domain.TunnelList) (*domain.TunnelSnapshot, error) {
	recordsJSON, err := codec.EncodeTunnels(list)
	if err != nil {
		return nil, err
	}

	row := model.TunnelSnapshot{
		SnapshotID:  uuid.New().String(),
		Count:       len(list),
		RecordsJSON: recordsJSON,
		CreatedAt:   r.now(),
	}
	if err := r.Create(ctx, &row); err != nil {
		return nil, err
	}
	return toSnapshot(&row)
}

// Get 根据快照ID查询，不存在时返回 domain.ErrRecordNotFound
func (r *SnapshotRepo) Get(ctx context.Context, snapshotID string) (*domain.TunnelSnapshot, error) {
	row, err := r.FindOne(ctx, snapshotIDFilter(snapshotID))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrRecordNotFound
	}
	return toSnapshot(row)
}

// List 按时间倒序列出最近的快照，limit <= 0 时默认 20，最大 1000
func (r *SnapshotRepo) List(ctx context.Context, limit int) ([]*domain.TunnelSnapshot, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 1000 {
		limit = 1000
	}

	total, err := r.Count(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.FindAll(ctx, nil, &Pagination{Page: 1, Limit: limit}, Orders{{Field: "created_at", Sort: "DESC"}, {Field: "id", Sort: "DESC"}})
	if err != nil {
		return nil, 0, err
	}

	out := make([]*domain.TunnelSnapshot, 0, len(rows))
	for _, row := range rows {
		s, err := toSnapshot(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, nil
}

// Prune 删除早于 before 的快照
func (r *SnapshotRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	return r.Delete(ctx, createdBeforeFilter(before))
}

// CleanupOld 根据保留天数清理旧快照
func (r *SnapshotRepo) CleanupOld(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return r.Prune(ctx, r.now().AddDate(0, 0, -retentionDays))
}

func toSnapshot(row *model.TunnelSnapshot) (*domain.TunnelSnapshot, error) {
	list, err := codec.DecodeTunnels(row.RecordsJSON)
	if err != nil {
		return nil, err
	}
	return &domain.TunnelSnapshot{
		ID:        row.SnapshotID,
		Count:     row.Count,
		Tunnels:   list,
		CreatedAt: row.CreatedAt,
	}, nil
}
