package repository

import (
	"context"

	"MotoPrice/internal/model"

	"gorm.io/gorm"
)

// ListingFilter 帖子查询条件
type ListingFilter struct {
	Brand  string              // 品牌
	Model  string              // 车型
	Source model.ListingSource // 来源平台
}

// ListingRepository 原始帖子仓储接口
type ListingRepository interface {
	// ListForTraining 拉取全部训练用帖子（带limit，0表示不限制）
	ListForTraining(ctx context.Context, limit int) ([]model.Listing, error)
	// List 按条件分页查询帖子
	List(ctx context.Context, filter ListingFilter, page, pageSize int) ([]*model.Listing, int64, error)
	// SaveBatch 批量入库（导入路径用）
	SaveBatch(ctx context.Context, listings []*model.Listing) error
	// CountAll 帖子总数
	CountAll(ctx context.Context) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository 创建 ListingRepository 实例
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// ListForTraining 拉取全部训练用帖子
func (r *listingRepository) ListForTraining(ctx context.Context, limit int) ([]model.Listing, error) {
	var listings []model.Listing
	db := r.db.WithContext(ctx).Model(&model.Listing{}).Order("id ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// List 按条件分页查询帖子
func (r *listingRepository) List(ctx context.Context, filter ListingFilter, page, pageSize int) ([]*model.Listing, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Listing{})
	if filter.Brand != "" {
		db = db.Where("brand = ?", filter.Brand)
	}
	if filter.Model != "" {
		db = db.Where("model = ?", filter.Model)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []*model.Listing
	if err := db.
		Order("crawled_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// SaveBatch 批量入库
func (r *listingRepository) SaveBatch(ctx context.Context, listings []*model.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(listings, 500).Error
}

// CountAll 帖子总数
func (r *listingRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Listing{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
