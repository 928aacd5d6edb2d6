package controller

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/service"
)

type WebhookController struct {
	webhookService *service.WebhookService
}

func NewWebhookController(webhookService *service.WebhookService) *WebhookController {
	return &WebhookController{webhookService: webhookService}
}

// ==================== CRUD 接口 ====================

// ListWebhooks 获取订阅列表
// @Summary 获取全部订阅，最新的在前
// @Tags Webhook
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/webhooks [get]
func (ctrl *WebhookController) ListWebhooks(c *gin.Context) {
	ctx := c.Request.Context()
	webhooks, err := ctrl.webhookService.ListWebhooks(ctx)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	respList := make([]dto.WebhookResp, 0, len(webhooks))
	for i := range webhooks {
		respList = append(respList, toWebhookResp(&webhooks[i]))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

// CreateWebhook 创建订阅
// @Summary 创建事件订阅
// @Tags Webhook
// @Accept json
// @Produce json
// @Param body body dto.WebhookCreateReq true "订阅信息"
// @Success 201 {object} dto.WebhookResp
// @Router /api/v1/webhooks [post]
func (ctrl *WebhookController) CreateWebhook(c *gin.Context) {
	var req dto.WebhookCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	ctx := c.Request.Context()
	webhook, err := ctrl.webhookService.CreateWebhook(ctx, req.URL, req.Event, isEnabled)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			c.JSON(400, gin.H{"code": 400, "message": "不支持的事件类型: " + req.Event})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "创建失败: " + err.Error()})
		return
	}

	c.JSON(201, gin.H{
		"code":    0,
		"message": "success",
		"data":    toWebhookResp(webhook),
	})
}

// GetWebhook 获取订阅详情
// @Summary 获取单个订阅
// @Tags Webhook
// @Param id path int true "订阅ID"
// @Success 200 {object} dto.WebhookResp
// @Router /api/v1/webhooks/{id} [get]
func (ctrl *WebhookController) GetWebhook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的订阅ID"})
		return
	}

	ctx := c.Request.Context()
	webhook, err := ctrl.webhookService.GetWebhook(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrWebhookNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toWebhookResp(webhook),
	})
}

// UpdateWebhook 更新订阅
// @Summary 更新订阅（URL/事件/启用状态）
// @Tags Webhook
// @Accept json
// @Produce json
// @Param id path int true "订阅ID"
// @Param body body dto.WebhookUpdateReq true "更新内容"
// @Success 200 {object} dto.WebhookResp
// @Router /api/v1/webhooks/{id} [put]
func (ctrl *WebhookController) UpdateWebhook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的订阅ID"})
		return
	}

	var req dto.WebhookUpdateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	// 不传 is_enabled 时保持原状态
	ctx := c.Request.Context()
	isEnabled := true
	if req.IsEnabled == nil {
		current, err := ctrl.webhookService.GetWebhook(ctx, id)
		if err != nil {
			if errors.Is(err, service.ErrWebhookNotFound) {
				c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
				return
			}
			c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
			return
		}
		isEnabled = current.IsEnabled
	} else {
		isEnabled = *req.IsEnabled
	}

	webhook, err := ctrl.webhookService.UpdateWebhook(ctx, id, req.URL, req.Event, isEnabled)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookNotFound):
			c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
		case errors.Is(err, service.ErrInvalidEvent):
			c.JSON(400, gin.H{"code": 400, "message": "不支持的事件类型: " + req.Event})
		default:
			c.JSON(500, gin.H{"code": 500, "message": "更新失败: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toWebhookResp(webhook),
	})
}

// DeleteWebhook 删除订阅
// @Summary 删除订阅及其全部投递记录
// @Tags Webhook
// @Param id path int true "订阅ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/webhooks/{id} [delete]
func (ctrl *WebhookController) DeleteWebhook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的订阅ID"})
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.webhookService.DeleteWebhook(ctx, id); err != nil {
		if errors.Is(err, service.ErrWebhookNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "删除失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "删除成功"})
}

// ==================== 投递历史与测试 ====================

// ListDeliveries 获取投递历史
// @Summary 获取订阅详情和最近 50 条投递记录
// @Tags Webhook
// @Param id path int true "订阅ID"
// @Success 200 {object} dto.WebhookDetailResp
// @Router /api/v1/webhooks/{id}/deliveries [get]
func (ctrl *WebhookController) ListDeliveries(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的订阅ID"})
		return
	}

	ctx := c.Request.Context()
	webhook, deliveries, err := ctrl.webhookService.ListDeliveries(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrWebhookNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	respList := make([]dto.WebhookDeliveryResp, 0, len(deliveries))
	for i := range deliveries {
		respList = append(respList, toDeliveryResp(&deliveries[i]))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.WebhookDetailResp{
			Webhook:    toWebhookResp(webhook),
			Deliveries: respList,
		},
	})
}

// SendTest 发送测试消息
// @Summary 给订阅发一条测试消息，走正常投递链路
// @Tags Webhook
// @Param id path int true "订阅ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/webhooks/{id}/test [post]
func (ctrl *WebhookController) SendTest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的订阅ID"})
		return
	}

	ctx := c.Request.Context()
	if err := ctrl.webhookService.SendTest(ctx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookNotFound):
			c.JSON(404, gin.H{"code": 404, "message": "订阅不存在"})
		case errors.Is(err, service.ErrDeliveryQueueFull):
			c.JSON(503, gin.H{"code": 503, "message": "投递队列已满，请稍后重试"})
		default:
			c.JSON(500, gin.H{"code": 500, "message": "发送失败: " + err.Error()})
		}
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "测试消息已入队"})
}

// ==================== 内部转换 ====================

func toWebhookResp(w *model.Webhook) dto.WebhookResp {
	return dto.WebhookResp{
		ID:        w.ID,
		URL:       w.URL,
		Event:     w.Event,
		IsEnabled: w.IsEnabled,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

func toDeliveryResp(d *model.WebhookDelivery) dto.WebhookDeliveryResp {
	return dto.WebhookDeliveryResp{
		ID:             d.ID,
		WebhookID:      d.WebhookID,
		TriggeredAt:    d.TriggeredAt.Format(time.RFC3339),
		StatusCode:     d.StatusCode,
		ResponseTimeMs: d.ResponseTimeMs,
		Success:        d.Success,
		ErrorMessage:   d.ErrorMessage,
		RequestBody:    json.RawMessage(d.RequestBody),
	}
}
