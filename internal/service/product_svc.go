package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/repository"
)

// ==================== 错误定义 ====================

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidSKU      = errors.New("sku must not be empty")
	ErrSKUExists       = errors.New("sku already exists")
)

// ==================== 服务定义 ====================

// ProductService 商品手工 CRUD
//
// 事件只从这里触发：create/update/delete 各发一条对应事件。
// 导入流水线批量写商品不走这条路，也就不会刷出海量 product.* 事件。
type ProductService struct {
	productRepo repository.ProductRepository
	webhookSvc  *WebhookService
}

func NewProductService(productRepo repository.ProductRepository, webhookSvc *WebhookService) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		webhookSvc:  webhookSvc,
	}
}

// CreateProduct 新建商品
//
// SKU 统一大写入库；大小写折叠后撞上已有商品直接拒绝，
// 并发下漏网的由数据库 lower(sku) 唯一索引兜底。
func (s *ProductService) CreateProduct(ctx context.Context, req dto.ProductCreateReq) (*model.Product, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, ErrInvalidSKU
	}

	priceCents, err := ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	if err := s.checkSKUAvailable(ctx, sku, 0); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := &model.Product{
		SKU:         sku,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		PriceCents:  priceCents,
		IsActive:    isActive,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.webhookSvc.Trigger(ctx, model.EventProductCreated,
		ProductEventPayload(model.EventProductCreated, product))
	return product, nil
}

// UpdateProduct 整体更新商品
//
// IsActive 传 nil 表示保持现状，其余字段全量覆盖。
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req dto.ProductUpdateReq) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, ErrInvalidSKU
	}

	priceCents, err := ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(sku, product.SKU) {
		if err := s.checkSKUAvailable(ctx, sku, product.ID); err != nil {
			return nil, err
		}
	}

	product.SKU = sku
	product.Name = strings.TrimSpace(req.Name)
	product.Description = strings.TrimSpace(req.Description)
	product.PriceCents = priceCents
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.webhookSvc.Trigger(ctx, model.EventProductUpdated,
		ProductEventPayload(model.EventProductUpdated, product))
	return product, nil
}

// DeleteProduct 物理删除单个商品
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.webhookSvc.Trigger(ctx, model.EventProductDeleted,
		ProductEventPayload(model.EventProductDeleted, product))
	return nil
}

// DeleteAllProducts 清空商品表
//
// 先把现有商品捞出来再整表删，删完给每个商品各发一条
// product.deleted，和逐个删除的对外表现保持一致。
func (s *ProductService) DeleteAllProducts(ctx context.Context) (int64, error) {
	var (
		products []model.Product
		deleted  int64
	)
	err := s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		var txErr error
		products, txErr = txRepo.ListAll(ctx)
		if txErr != nil {
			return txErr
		}
		deleted, txErr = txRepo.DeleteAll(ctx)
		return txErr
	})
	if err != nil {
		return 0, err
	}

	for i := range products {
		s.webhookSvc.Trigger(ctx, model.EventProductDeleted,
			ProductEventPayload(model.EventProductDeleted, &products[i]))
	}
	return deleted, nil
}

// GetProduct 按 ID 查询
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

// ListProducts 过滤分页列表
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, filter)
}

// checkSKUAvailable 折叠后查重，excludeID 用于更新时放过自己
func (s *ProductService) checkSKUAvailable(ctx context.Context, sku string, excludeID int64) error {
	existing, err := s.productRepo.GetBySKUFold(ctx, strings.ToLower(sku))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return fmt.Errorf("%w: %s", ErrSKUExists, sku)
	}
	return nil
}

// ToProductResp Model 转响应 DTO
func ToProductResp(p *model.Product) dto.ProductResp {
	return dto.ProductResp{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       FormatCents(p.PriceCents),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}
