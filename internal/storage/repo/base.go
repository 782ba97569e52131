package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Filter 筛选器接口
type Filter interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Pagination 分页参数
type Pagination struct {
	Page  int
	Limit int
}

// Offset 计算偏移量
func (p *Pagination) Offset() int {
	if p.Limit <= 0 || p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Order 排序参数
type Order struct {
	Field string
	Sort  string
}

// Orders 排序参数切片
type Orders []Order

// QueryOption 查询选项
type QueryOption func(*QueryConfig)

// ScopeFunc 筛选作用域方法
type ScopeFunc func(*gorm.DB) *gorm.DB

// QueryConfig 查询配置
type QueryConfig struct {
	scopes []ScopeFunc
}

// WithScopes 添加筛选
func WithScopes(scopes ...ScopeFunc) QueryOption {
	return func(c *QueryConfig) {
		c.scopes = scopes
	}
}

// BaseRepository 基础DAO层
type BaseRepository[T any] struct {
	Db *gorm.DB
}

// NewBaseRepository 创建基础DAO层
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{
		Db: db,
	}
}

// Create 创建记录
func (r *BaseRepository[T]) Create(ctx context.Context, item *T) error {
	return r.Db.WithContext(ctx).Create(item).Error
}

// Delete 删除记录，id 可以是主键或 Filter
func (r *BaseRepository[T]) Delete(ctx context.Context, id any) (int64, error) {
	query := r.Db.WithContext(ctx)

	var res *gorm.DB
	if filter, ok := id.(Filter); ok {
		res = filter.Apply(query).Delete(new(T))
	} else {
		res = query.Delete(new(T), id)
	}
	return res.RowsAffected, res.Error
}

// FindOne 根据主键或 Filter 查询记录，不存在时返回 (nil, nil)
func (r *BaseRepository[T]) FindOne(ctx context.Context, id any, opts ...QueryOption) (*T, error) {
	item := new(T)
	query := r.buildQuery(ctx, opts...)
	var err error

	if filter, ok := id.(Filter); ok {
		err = filter.Apply(query).First(item).Error
	} else {
		err = query.First(item, id).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindAll 查询所有记录
func (r *BaseRepository[T]) FindAll(ctx context.Context, filter Filter, pagination *Pagination, orders Orders, opts ...QueryOption) ([]*T, error) {
	list := make([]*T, 0)
	query := r.buildQuery(ctx, opts...).Model(new(T))

	if filter != nil {
		query = filter.Apply(query)
	}

	if pagination != nil && pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.Offset())
	}

	for _, order := range orders {
		query = query.Order(order.Field + " " + order.Sort)
	}

	if err := query.Find(&list).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return list, nil
}

// Count 统计记录数量
func (r *BaseRepository[T]) Count(ctx context.Context, filter Filter, opts ...QueryOption) (int64, error) {
	var count int64
	query := r.buildQuery(ctx, opts...).Model(new(T))

	if filter != nil {
		query = filter.Apply(query)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// buildQuery 构建查询
func (r *BaseRepository[T]) buildQuery(ctx context.Context, opts ...QueryOption) *gorm.DB {
	cfg := &QueryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	query := r.Db.WithContext(ctx)
	for _, scopeFunc := range cfg.scopes {
		if scopeFunc != nil {
			query = query.Scopes(scopeFunc)
		}
	}
	return query
}
