package dto

import "encoding/json"

// ==================== 请求 DTO ====================

// WebhookCreateReq 创建订阅请求
type WebhookCreateReq struct {
	URL   string `json:"url" binding:"required,url,max=200"`
	Event string `json:"event" binding:"required"`

	// 不传默认启用
	IsEnabled *bool `json:"is_enabled,omitempty"`
}

// WebhookUpdateReq 更新订阅请求
type WebhookUpdateReq struct {
	URL       string `json:"url" binding:"required,url,max=200"`
	Event     string `json:"event" binding:"required"`
	IsEnabled *bool  `json:"is_enabled,omitempty"`
}

// ==================== 响应 DTO ====================

// WebhookResp 订阅响应
type WebhookResp struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Event     string `json:"event"`
	IsEnabled bool   `json:"is_enabled"`
	CreatedAt string `json:"created_at"`
}

// WebhookDeliveryResp 投递记录响应
//
// StatusCode / ResponseTimeMs 为 null 表示该次请求没收到响应
type WebhookDeliveryResp struct {
	ID             int64           `json:"id"`
	WebhookID      int64           `json:"webhook_id"`
	TriggeredAt    string          `json:"triggered_at"`
	StatusCode     *int            `json:"status_code"`
	ResponseTimeMs *int            `json:"response_time_ms"`
	Success        bool            `json:"success"`
	ErrorMessage   string          `json:"error_message"`
	RequestBody    json.RawMessage `json:"request_body"`
}

// WebhookDetailResp 订阅 + 投递历史
type WebhookDetailResp struct {
	Webhook    WebhookResp           `json:"webhook"`
	Deliveries []WebhookDeliveryResp `json:"deliveries"`
}
