package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/repository"
	"product_importer_v1_202608/internal/service"
	"product_importer_v1_202608/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

func setupCtlTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.ImportJob{},
		&model.Webhook{},
		&model.WebhookDelivery{},
	); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// okDeliveryQueue 接口测试不关心投递执行，入队即成功
type okDeliveryQueue struct{}

func (okDeliveryQueue) Enqueue(service.DeliveryRequest) bool { return true }

// blockedDeliveryQueue 模拟投递队列打满
type blockedDeliveryQueue struct{}

func (blockedDeliveryQueue) Enqueue(service.DeliveryRequest) bool { return false }

// okImportQueue 上传接口测试不跑后台 worker，入队即成功
type okImportQueue struct{}

func (okImportQueue) Enqueue(string) bool { return true }

func newWebhookSvcForCtl(db *gorm.DB, queue service.DeliveryQueue) *service.WebhookService {
	return service.NewWebhookService(
		repository.NewWebhookRepository(db),
		repository.NewWebhookDeliveryRepository(db),
		utils.NewWebhookClient(time.Second),
		queue,
	)
}

func newProductStack(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := setupCtlTestDB(t)
	productSvc := service.NewProductService(
		repository.NewProductRepository(db),
		newWebhookSvcForCtl(db, okDeliveryQueue{}),
	)
	ctrl := NewProductController(productSvc)

	r := gin.New()
	products := r.Group("/api/v1/products")
	{
		products.GET("", ctrl.ListProducts)
		products.POST("", ctrl.CreateProduct)
		products.GET("/:id", ctrl.GetProduct)
		products.PUT("/:id", ctrl.UpdateProduct)
		products.DELETE("/:id", ctrl.DeleteProduct)
		products.POST("/bulk-delete", ctrl.DeleteAllProducts)
	}
	return r, db
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v, body = %s", err, w.Body.String())
	}
	return resp
}

func mustCreateViaAPI(t *testing.T, r http.Handler, req dto.ProductCreateReq) int64 {
	t.Helper()
	w := performRequest(r, "POST", "/api/v1/products", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("创建商品失败: status = %d, body = %s", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)["data"].(map[string]interface{})
	return int64(data["id"].(float64))
}

// ==================== 创建 ====================

func TestProductController_CreateProduct(t *testing.T) {
	r, _ := newProductStack(t)

	w := performRequest(r, "POST", "/api/v1/products", dto.ProductCreateReq{
		SKU:   "abc-1",
		Name:  "Widget",
		Price: "19.99",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, float64(0), resp["code"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ABC-1", data["sku"])
	assert.Equal(t, "19.99", data["price"])
	assert.Equal(t, true, data["is_active"])
}

func TestProductController_CreateProductErrors(t *testing.T) {
	r, _ := newProductStack(t)

	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "TAKEN"})

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"缺少 SKU", map[string]string{"name": "x"}, http.StatusBadRequest},
		{"价格三位小数", dto.ProductCreateReq{SKU: "P-1", Price: "1.999"}, http.StatusBadRequest},
		{"价格为负", dto.ProductCreateReq{SKU: "P-2", Price: "-3"}, http.StatusBadRequest},
		{"SKU 已存在（大小写变体）", dto.ProductCreateReq{SKU: "taken"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, "POST", "/api/v1/products", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// ==================== 查询 ====================

func TestProductController_GetProduct(t *testing.T) {
	r, _ := newProductStack(t)

	id := mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "GET-1", Name: "Widget"})

	w := performRequest(r, "GET", fmt.Sprintf("/api/v1/products/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "GET-1", data["sku"])

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"非数字ID", "/api/v1/products/abc", http.StatusBadRequest},
		{"零ID", "/api/v1/products/0", http.StatusBadRequest},
		{"不存在", "/api/v1/products/9999", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, "GET", tt.path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestProductController_ListProducts(t *testing.T) {
	r, _ := newProductStack(t)

	inactive := false
	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "ALPHA-1", Name: "Red brick"})
	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "BETA-2", Name: "Red lamp", IsActive: &inactive})
	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "GAMMA-3", Name: "Blue mug"})

	w := performRequest(r, "GET", "/api/v1/products?sku=beta", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var listResp dto.ProductListResp
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	assert.Equal(t, int64(1), listResp.Total)
	assert.Equal(t, "BETA-2", listResp.Data[0].SKU)

	// 上架状态筛选
	w = performRequest(r, "GET", "/api/v1/products?active=false", nil)
	json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.Equal(t, int64(1), listResp.Total)

	// 分页：total 始终是全量
	w = performRequest(r, "GET", "/api/v1/products?page=2&page_size=2", nil)
	json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.Equal(t, int64(3), listResp.Total)
	assert.Len(t, listResp.Data, 1)
	assert.Equal(t, "GAMMA-3", listResp.Data[0].SKU)
	assert.Equal(t, 2, listResp.Page)
	assert.Equal(t, 2, listResp.PageSize)
}

// ==================== 更新 ====================

func TestProductController_UpdateProduct(t *testing.T) {
	r, _ := newProductStack(t)

	id := mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "UPD-1", Name: "Old", Price: "1.00"})
	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "OTHER"})

	w := performRequest(r, "PUT", fmt.Sprintf("/api/v1/products/%d", id), dto.ProductUpdateReq{
		SKU: "UPD-1", Name: "New", Price: "2.50",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "New", data["name"])
	assert.Equal(t, "2.50", data["price"])

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"不存在", "/api/v1/products/9999", dto.ProductUpdateReq{SKU: "ANY"}, http.StatusNotFound},
		{"SKU 撞车", fmt.Sprintf("/api/v1/products/%d", id), dto.ProductUpdateReq{SKU: "other"}, http.StatusConflict},
		{"缺少 SKU", fmt.Sprintf("/api/v1/products/%d", id), map[string]string{"name": "x"}, http.StatusBadRequest},
		{"非数字ID", "/api/v1/products/abc", dto.ProductUpdateReq{SKU: "ANY"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, "PUT", tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// ==================== 删除 ====================

func TestProductController_DeleteProduct(t *testing.T) {
	r, _ := newProductStack(t)

	id := mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "DEL-1"})

	w := performRequest(r, "DELETE", fmt.Sprintf("/api/v1/products/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 删完就查不到了
	w = performRequest(r, "GET", fmt.Sprintf("/api/v1/products/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(r, "DELETE", "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, "DELETE", fmt.Sprintf("/api/v1/products/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductController_DeleteAllProducts(t *testing.T) {
	r, _ := newProductStack(t)

	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "BULK-1"})
	mustCreateViaAPI(t, r, dto.ProductCreateReq{SKU: "BULK-2"})

	w := performRequest(r, "POST", "/api/v1/products/bulk-delete", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["deleted"])

	// 清空后列表为空
	var listResp dto.ProductListResp
	w = performRequest(r, "GET", "/api/v1/products", nil)
	json.Unmarshal(w.Body.Bytes(), &listResp)
	assert.Equal(t, int64(0), listResp.Total)
}
