package repository

import (
	"context"

	"gorm.io/gorm"

	"product_importer_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
//
// SKU 匹配一律大小写不敏感：调用方先把 SKU 折叠成小写，
// 仓储这边用 LOWER(sku) 对齐，和唯一索引走同一套规则。
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	BatchCreate(ctx context.Context, products []*model.Product, batchSize int) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetBySKUFold(ctx context.Context, skuLower string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)

	// 列表查询
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	FindBySKUFold(ctx context.Context, skusLower []string) ([]model.Product, error)

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品过滤条件
type ProductFilter struct {
	SKU         string // 模糊匹配
	Name        string // 模糊匹配
	Description string // 模糊匹配
	Active      string // "" 不筛选 / "true" / "false"
	Page        int
	PageSize    int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) BatchCreate(ctx context.Context, products []*model.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return r.db.WithContext(ctx).CreateInBatches(products, batchSize).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBySKUFold 按小写 SKU 查询，调用方负责先 strings.ToLower
func (r *productRepo) GetBySKUFold(ctx context.Context, skuLower string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).
		Where("LOWER(sku) = ?", skuLower).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

// DeleteAll 清空商品表，返回删除行数
func (r *productRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Product{})
	return result.RowsAffected, result.Error
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.SKU != "" {
		query = query.Where("LOWER(sku) LIKE LOWER(?)", "%"+filter.SKU+"%")
	}
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Description != "" {
		query = query.Where("LOWER(description) LIKE LOWER(?)", "%"+filter.Description+"%")
	}
	switch filter.Active {
	case "true":
		query = query.Where("is_active = ?", true)
	case "false":
		query = query.Where("is_active = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("sku ASC").Limit(filter.PageSize).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("sku ASC").Find(&products).Error
	return products, err
}

// FindBySKUFold 按小写 SKU 批量查询，调用方负责先 strings.ToLower
func (r *productRepo) FindBySKUFold(ctx context.Context, skusLower []string) ([]model.Product, error) {
	if len(skusLower) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(sku) IN ?", skusLower).
		Find(&products).Error
	return products, err
}

// ==================== 事务支持 ====================

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
