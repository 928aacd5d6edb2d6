package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"product_importer_v1_202608/internal/controller"
	"product_importer_v1_202608/internal/middleware"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Product *controller.ProductController
	Import  *controller.ImportController
	Webhook *controller.WebhookController
	Ops     *controller.OpsController
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog())

	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. API 路由组
	api := r.Group("/api/v1")
	{
		// products 商品管理
		products := api.Group("/products")
		{
			products.GET("", ctls.Product.ListProducts)
			products.POST("", ctls.Product.CreateProduct)
			products.GET("/:id", ctls.Product.GetProduct)
			products.PUT("/:id", ctls.Product.UpdateProduct)
			products.DELETE("/:id", ctls.Product.DeleteProduct)
			// POST /api/v1/products/bulk-delete
			products.POST("/bulk-delete", ctls.Product.DeleteAllProducts)
		}

		// imports 导入管理
		imports := api.Group("/imports")
		{
			// 上传单独限流，导入落盘 + 建任务是重操作
			imports.POST("", middleware.UploadRateLimit(rate.Limit(1), 5), ctls.Import.Upload)
			imports.GET("", ctls.Import.ListJobs)
			imports.GET("/:id", ctls.Import.GetJob)
			// GET /api/v1/imports/:id/status 轮询进度
			imports.GET("/:id/status", ctls.Import.Status)
		}

		// webhooks 订阅管理
		webhooks := api.Group("/webhooks")
		{
			webhooks.GET("", ctls.Webhook.ListWebhooks)
			webhooks.POST("", ctls.Webhook.CreateWebhook)
			webhooks.GET("/:id", ctls.Webhook.GetWebhook)
			webhooks.PUT("/:id", ctls.Webhook.UpdateWebhook)
			webhooks.DELETE("/:id", ctls.Webhook.DeleteWebhook)
			webhooks.GET("/:id/deliveries", ctls.Webhook.ListDeliveries)
			webhooks.POST("/:id/test", ctls.Webhook.SendTest)
		}

		// ops 运维接口
		ops := api.Group("/ops")
		{
			ops.POST("/import-scan", ctls.Ops.TriggerImportScan)
			ops.GET("/tasks", ctls.Ops.TaskStatus)
		}
	}

	return r
}
