package repository

import (
	"context"

	"gorm.io/gorm"

	"product_importer_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// WebhookRepository 订阅仓储接口
type WebhookRepository interface {
	Create(ctx context.Context, webhook *model.Webhook) error
	GetByID(ctx context.Context, id int64) (*model.Webhook, error)
	Update(ctx context.Context, webhook *model.Webhook) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Webhook, error)

	// FindEnabledByEvent 查出某事件的全部启用订阅，分发走这里
	FindEnabledByEvent(ctx context.Context, event string) ([]model.Webhook, error)
}

// WebhookDeliveryRepository 投递记录仓储接口
type WebhookDeliveryRepository interface {
	Create(ctx context.Context, delivery *model.WebhookDelivery) error
	Update(ctx context.Context, delivery *model.WebhookDelivery) error
	ListByWebhook(ctx context.Context, webhookID int64, limit int) ([]model.WebhookDelivery, error)
}

// ==================== 订阅实现 ====================

type webhookRepo struct {
	db *gorm.DB
}

// NewWebhookRepository 创建订阅仓储
func NewWebhookRepository(db *gorm.DB) WebhookRepository {
	return &webhookRepo{db: db}
}

func (r *webhookRepo) Create(ctx context.Context, webhook *model.Webhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}

func (r *webhookRepo) GetByID(ctx context.Context, id int64) (*model.Webhook, error) {
	var webhook model.Webhook
	if err := r.db.WithContext(ctx).First(&webhook, id).Error; err != nil {
		return nil, err
	}
	return &webhook, nil
}

func (r *webhookRepo) Update(ctx context.Context, webhook *model.Webhook) error {
	return r.db.WithContext(ctx).Save(webhook).Error
}

// Delete 删除订阅及其全部投递记录
//
// sqlite 默认不开外键级联，应用层自己在事务里清，两边行为才一致。
func (r *webhookRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("webhook_id = ?", id).Delete(&model.WebhookDelivery{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Webhook{}, id).Error
	})
}

func (r *webhookRepo) List(ctx context.Context) ([]model.Webhook, error) {
	var webhooks []model.Webhook
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&webhooks).Error
	return webhooks, err
}

func (r *webhookRepo) FindEnabledByEvent(ctx context.Context, event string) ([]model.Webhook, error) {
	var webhooks []model.Webhook
	err := r.db.WithContext(ctx).
		Where("event = ? AND is_enabled = ?", event, true).
		Find(&webhooks).Error
	return webhooks, err
}

// ==================== 投递记录实现 ====================

type webhookDeliveryRepo struct {
	db *gorm.DB
}

// NewWebhookDeliveryRepository 创建投递记录仓储
func NewWebhookDeliveryRepository(db *gorm.DB) WebhookDeliveryRepository {
	return &webhookDeliveryRepo{db: db}
}

func (r *webhookDeliveryRepo) Create(ctx context.Context, delivery *model.WebhookDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *webhookDeliveryRepo) Update(ctx context.Context, delivery *model.WebhookDelivery) error {
	return r.db.WithContext(ctx).Save(delivery).Error
}

// ListByWebhook 最新的在前，limit 截断
func (r *webhookDeliveryRepo) ListByWebhook(ctx context.Context, webhookID int64, limit int) ([]model.WebhookDelivery, error) {
	var deliveries []model.WebhookDelivery
	query := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("triggered_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&deliveries).Error
	return deliveries, err
}
