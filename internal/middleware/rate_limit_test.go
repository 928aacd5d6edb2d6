package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestUploadRateLimit(t *testing.T) {
	r := gin.New()
	// 补充速率压到接近 0，测试内只有突发额度可用
	r.POST("/upload", UploadRateLimit(rate.Limit(0.001), 2), func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 0})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", "/upload", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("第 %d 次请求 status = %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestUploadRateLimit_IndependentLimiters(t *testing.T) {
	r := gin.New()
	// 每次调用 UploadRateLimit 各自一个令牌桶，互不影响
	r.POST("/a", UploadRateLimit(rate.Limit(0.001), 1), func(c *gin.Context) { c.Status(200) })
	r.POST("/b", UploadRateLimit(rate.Limit(0.001), 1), func(c *gin.Context) { c.Status(200) })

	hit := func(path string) int {
		req, _ := http.NewRequest("POST", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := hit("/a"); code != 200 {
		t.Errorf("/a 首次 status = %d, want 200", code)
	}
	if code := hit("/a"); code != 429 {
		t.Errorf("/a 二次 status = %d, want 429", code)
	}
	// /a 被限不影响 /b
	if code := hit("/b"); code != 200 {
		t.Errorf("/b 首次 status = %d, want 200", code)
	}
}
