package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ==================== 上传限流 ====================

// UploadRateLimit 上传接口限流
//
// 导入是重操作，全局令牌桶兜一层，挡住脚本连环上传。
func UploadRateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(429, gin.H{"code": 429, "message": "请求过于频繁，请稍后重试"})
			return
		}
		c.Next()
	}
}
