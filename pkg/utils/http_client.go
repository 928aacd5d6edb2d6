package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewWebhookClient 创建 Webhook 投递专用的 Resty 客户端
// 超时要设得短，保证投递 worker 不被慢目标占住
func NewWebhookClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Product-Importer/1.0")

	return client
}
