package repository

import (
	"context"

	"MotoPrice/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 车型目录仓储接口（品牌/车型/版本级查询）
type CatalogRepository interface {
	// ListBrands 全部品牌（去重、排序）
	ListBrands(ctx context.Context) ([]string, error)
	// ListModels 某品牌下的全部车型
	ListModels(ctx context.Context, brand string) ([]string, error)
	// ListVariants 某品牌车型下的全部版本
	ListVariants(ctx context.Context, brand, modelName string) ([]string, error)
	// GetDetail 车辆详情（variant为空时取该车型第一条）
	GetDetail(ctx context.Context, brand, modelName, variant string) (*model.Motorbike, error)
	// Search 按关键字模糊搜索目录
	Search(ctx context.Context, query string, limit int) ([]*model.Motorbike, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建 CatalogRepository 实例
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// ListBrands 全部品牌
func (r *catalogRepository) ListBrands(ctx context.Context) ([]string, error) {
	var brands []string
	if err := r.db.WithContext(ctx).Model(&model.Motorbike{}).
		Distinct("brand").Order("brand").Pluck("brand", &brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

// ListModels 某品牌下的全部车型
func (r *catalogRepository) ListModels(ctx context.Context, brand string) ([]string, error) {
	var models []string
	if err := r.db.WithContext(ctx).Model(&model.Motorbike{}).
		Where("brand = ?", brand).
		Distinct("model").Order("model").Pluck("model", &models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

// ListVariants 某品牌车型下的全部版本
func (r *catalogRepository) ListVariants(ctx context.Context, brand, modelName string) ([]string, error) {
	var variants []string
	if err := r.db.WithContext(ctx).Model(&model.Motorbike{}).
		Where("brand = ? AND model = ?", brand, modelName).
		Order("variant").Pluck("variant", &variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// GetDetail 车辆详情
func (r *catalogRepository) GetDetail(ctx context.Context, brand, modelName, variant string) (*model.Motorbike, error) {
	db := r.db.WithContext(ctx).Where("brand = ? AND model = ?", brand, modelName)
	if variant != "" {
		db = db.Where("variant = ?", variant)
	}
	var bike model.Motorbike
	if err := db.First(&bike).Error; err != nil {
		return nil, err
	}
	return &bike, nil
}

// Search 按关键字模糊搜索目录
func (r *catalogRepository) Search(ctx context.Context, query string, limit int) ([]*model.Motorbike, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := "%" + query + "%"
	var bikes []*model.Motorbike
	if err := r.db.WithContext(ctx).Model(&model.Motorbike{}).
		Where("brand ILIKE ? OR model ILIKE ? OR variant ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("brand, model, variant").
		Limit(limit).
		Find(&bikes).Error; err != nil {
		return nil, err
	}
	return bikes, nil
}
