package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 事件类型 ====================

const (
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventImportCompleted = "import.completed"
)

// ValidEvent 事件名是否在支持列表内
func ValidEvent(event string) bool {
	switch event {
	case EventProductCreated, EventProductUpdated, EventProductDeleted, EventImportCompleted:
		return true
	}
	return false
}

// Webhook 事件订阅
//
// 一条订阅只绑一个事件，同一事件可以有多条订阅（全部收到通知）。
type Webhook struct {
	BaseModel

	URL   string `gorm:"size:200;not null"`
	Event string `gorm:"size:64;not null;index:idx_webhook_event_enabled"`

	// 关掉的订阅不参与分发，但投递历史保留
	IsEnabled bool `gorm:"not null;default:true;index:idx_webhook_event_enabled"`
}

func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookDelivery 单次投递回执
//
// 先建记录再发请求，所以超时 / 连接失败也有据可查。
// StatusCode 和 ResponseTimeMs 用指针：没收到响应就是 NULL，
// 和「响应了 0」是两码事。
type WebhookDelivery struct {
	ID        int64    `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	WebhookID int64    `gorm:"not null;index" json:"webhook_id"`
	Webhook   *Webhook `gorm:"foreignKey:WebhookID;constraint:OnDelete:CASCADE" json:"-"`

	TriggeredAt    time.Time      `gorm:"autoCreateTime;index" json:"triggered_at"`
	StatusCode     *int           `json:"status_code"`
	ResponseTimeMs *int           `json:"response_time_ms"`
	Success        bool           `gorm:"not null;default:false" json:"success"`
	ErrorMessage   string         `gorm:"type:text" json:"error_message"`
	RequestBody    datatypes.JSON `json:"request_body"`
}

func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
