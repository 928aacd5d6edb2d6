package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/repository"
)

// ==================== 错误与常量 ====================

var (
	ErrWebhookNotFound   = errors.New("webhook not found")
	ErrInvalidEvent      = errors.New("unsupported event type")
	ErrDeliveryQueueFull = errors.New("delivery queue is full")
)

const (
	// 错误文本入库前截断到 500 字符
	maxErrorLen = 500

	// 投递历史每次最多返回最近 50 条
	maxDeliveryHistory = 50
)

// ==================== 投递队列 ====================

// DeliveryRequest 一次投递任务：发给谁、什么事件、发什么
type DeliveryRequest struct {
	WebhookID int64
	Event     string
	Payload   json.RawMessage
}

// DeliveryQueue 投递队列，由 task 层实现
//
// Enqueue 不阻塞：队列满了返回 false，由调用方决定丢弃还是报错。
type DeliveryQueue interface {
	Enqueue(req DeliveryRequest) bool
}

// ==================== 服务定义 ====================

// WebhookService 订阅管理 + 事件分发 + 投递执行
type WebhookService struct {
	webhookRepo  repository.WebhookRepository
	deliveryRepo repository.WebhookDeliveryRepository
	client       *resty.Client
	queue        DeliveryQueue
}

func NewWebhookService(
	webhookRepo repository.WebhookRepository,
	deliveryRepo repository.WebhookDeliveryRepository,
	client *resty.Client,
	queue DeliveryQueue,
) *WebhookService {
	return &WebhookService{
		webhookRepo:  webhookRepo,
		deliveryRepo: deliveryRepo,
		client:       client,
		queue:        queue,
	}
}

// ==================== 订阅 CRUD ====================

// CreateWebhook 新建订阅
func (s *WebhookService) CreateWebhook(ctx context.Context, url, event string, isEnabled bool) (*model.Webhook, error) {
	if !model.ValidEvent(event) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEvent, event)
	}
	webhook := &model.Webhook{
		URL:       url,
		Event:     event,
		IsEnabled: isEnabled,
	}
	if err := s.webhookRepo.Create(ctx, webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

// GetWebhook 查询单个订阅
func (s *WebhookService) GetWebhook(ctx context.Context, id int64) (*model.Webhook, error) {
	webhook, err := s.webhookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%d", ErrWebhookNotFound, id)
		}
		return nil, err
	}
	return webhook, nil
}

// UpdateWebhook 更新订阅
func (s *WebhookService) UpdateWebhook(ctx context.Context, id int64, url, event string, isEnabled bool) (*model.Webhook, error) {
	webhook, err := s.GetWebhook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidEvent(event) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEvent, event)
	}

	webhook.URL = url
	webhook.Event = event
	webhook.IsEnabled = isEnabled
	if err := s.webhookRepo.Update(ctx, webhook); err != nil {
		return nil, err
	}
	return webhook, nil
}

// DeleteWebhook 删除订阅，投递记录一并清掉
func (s *WebhookService) DeleteWebhook(ctx context.Context, id int64) error {
	if _, err := s.GetWebhook(ctx, id); err != nil {
		return err
	}
	return s.webhookRepo.Delete(ctx, id)
}

// ListWebhooks 全部订阅，最新的在前
func (s *WebhookService) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	return s.webhookRepo.List(ctx)
}

// ListDeliveries 订阅详情 + 最近 50 条投递记录
func (s *WebhookService) ListDeliveries(ctx context.Context, webhookID int64) (*model.Webhook, []model.WebhookDelivery, error) {
	webhook, err := s.GetWebhook(ctx, webhookID)
	if err != nil {
		return nil, nil, err
	}
	deliveries, err := s.deliveryRepo.ListByWebhook(ctx, webhookID, maxDeliveryHistory)
	if err != nil {
		return nil, nil, err
	}
	return webhook, deliveries, nil
}

// ==================== 事件分发 ====================

// Trigger 把事件分发给所有启用的订阅
//
// 不返回错误：分发失败只记日志，绝不拖垮触发它的业务流程。
// 没有订阅匹配就静默返回。
func (s *WebhookService) Trigger(ctx context.Context, event string, payload interface{}) {
	webhooks, err := s.webhookRepo.FindEnabledByEvent(ctx, event)
	if err != nil {
		zap.S().Errorf("[EventBus] 查询订阅失败 event=%s: %v", event, err)
		return
	}
	if len(webhooks) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		zap.S().Errorf("[EventBus] 载荷序列化失败 event=%s: %v", event, err)
		return
	}

	for _, webhook := range webhooks {
		ok := s.queue.Enqueue(DeliveryRequest{
			WebhookID: webhook.ID,
			Event:     event,
			Payload:   body,
		})
		if !ok {
			zap.S().Warnf("[EventBus] 投递队列已满，丢弃 webhook=%d event=%s", webhook.ID, event)
		}
	}
}

// ==================== 投递执行 ====================

// Deliver 执行一次投递并落回执
//
// 回执先建后发：请求超时、连接失败也能查到这次尝试。
// HTTP 层面的失败不往上抛，只体现在回执里；
// 订阅已被删除（入队后删除的竞态）返回 ErrWebhookNotFound，不建回执。
func (s *WebhookService) Deliver(ctx context.Context, webhookID int64, event string, payload json.RawMessage) error {
	webhook, err := s.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id=%d", ErrWebhookNotFound, webhookID)
		}
		return err
	}
	if event == "" {
		event = webhook.Event
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":   event,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
		"data":    payload,
	})
	if err != nil {
		return err
	}

	delivery := &model.WebhookDelivery{
		WebhookID:   webhook.ID,
		Success:     false,
		RequestBody: datatypes.JSON(body),
	}
	if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
		return err
	}

	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(webhook.URL)
	elapsed := int(time.Since(start).Milliseconds())
	delivery.ResponseTimeMs = &elapsed

	if err != nil {
		// 没拿到响应：status_code 留 NULL
		delivery.Success = false
		delivery.ErrorMessage = truncateText(err.Error(), maxErrorLen)
		zap.S().Warnf("[Delivery] webhook %d 投递失败: %v", webhookID, err)
	} else {
		code := resp.StatusCode()
		delivery.StatusCode = &code
		delivery.Success = code >= 200 && code < 400
		if !delivery.Success {
			delivery.ErrorMessage = truncateText(string(resp.Body()), maxErrorLen)
		}
	}

	return s.deliveryRepo.Update(ctx, delivery)
}

// SendTest 给订阅发一条测试消息，走正常投递链路
func (s *WebhookService) SendTest(ctx context.Context, webhookID int64) error {
	webhook, err := s.GetWebhook(ctx, webhookID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"type":    "test",
		"message": "Test webhook from Product Importer",
	})
	if err != nil {
		return err
	}

	ok := s.queue.Enqueue(DeliveryRequest{
		WebhookID: webhook.ID,
		Event:     webhook.Event,
		Payload:   body,
	})
	if !ok {
		return ErrDeliveryQueueFull
	}
	return nil
}

// ==================== 载荷构造 ====================

// ProductEventPayload 商品事件载荷（嵌在投递信封的 data 里）
func ProductEventPayload(event string, p *model.Product) map[string]interface{} {
	product := map[string]interface{}{
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"price":       FormatCents(p.PriceCents),
		"is_active":   p.IsActive,
	}
	if p.UpdatedAt.IsZero() {
		product["updated_at"] = nil
	} else {
		product["updated_at"] = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return map[string]interface{}{
		"event":   event,
		"product": product,
	}
}

// ImportCompletedPayload 导入完成事件载荷
func ImportCompletedPayload(job *model.ImportJob) map[string]interface{} {
	return map[string]interface{}{
		"job_id":         job.ID,
		"filename":       job.OriginalFilename,
		"total_rows":     job.TotalRows,
		"processed_rows": job.ProcessedRows,
		"status":         job.Status,
	}
}

// truncateText 按字符截断（不是字节，防止截出半个汉字）
func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
