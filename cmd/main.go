package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"product_importer_v1_202608/internal/controller"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/repository"
	"product_importer_v1_202608/internal/router"
	"product_importer_v1_202608/internal/service"
	"product_importer_v1_202608/internal/task"
	"product_importer_v1_202608/pkg/config"
	"product_importer_v1_202608/pkg/database"
	"product_importer_v1_202608/pkg/logger"
	"product_importer_v1_202608/pkg/utils"
)

// @title Product Importer API
// @version 1.0
// @description 商品目录管理：CSV 批量导入、商品 CRUD、Webhook 事件推送
// @BasePath /api/v1

func main() {
	// 1. 加载配置
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("[Main] 配置加载失败: %v", err)
	}

	// 2. 初始化日志
	logger.Init(cfg.Server.Mode)
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	// 3. 初始化数据库
	db := initDatabase(cfg)

	// 4. 准备上传目录
	if err := os.MkdirAll(cfg.Import.UploadDir, 0o755); err != nil {
		zap.S().Fatalf("[Main] 创建上传目录失败: %v", err)
	}

	// 5. 初始化依赖
	deps := initDependencies(db, cfg)

	// 6. 启动后台任务（导入 worker + Webhook 投递 worker）
	deps.TaskManager.Start()

	// 7. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 8. 启动服务（阻塞直到收到退出信号）
	startServer(r, cfg, deps.TaskManager)
}

// ==================== 依赖容器 ====================

// Dependencies 应用的所有依赖
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	TaskManager *task.TaskManager
	Controllers *router.Controllers
}

// Repositories 数据访问层
type Repositories struct {
	Product         repository.ProductRepository
	ImportJob       repository.ImportJobRepository
	ImportUow       *repository.ImportUnitOfWork
	Webhook         repository.WebhookRepository
	WebhookDelivery repository.WebhookDeliveryRepository
}

// Services 业务服务层
type Services struct {
	Product *service.ProductService
	Import  *service.ImportService
	Webhook *service.WebhookService
}

// ==================== 初始化 ====================

func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(&cfg.Database,
		&model.Product{},
		&model.ImportJob{},
		&model.Webhook{},
		&model.WebhookDelivery{},
	)
}

func initDependencies(db *gorm.DB, cfg *config.Config) *Dependencies {
	repos := initRepositories(db)

	// Task 先于 service 构造：service 把 task 当队列用，task 启动时再拿 service
	importTask := task.NewImportTask(cfg.Import.QueueSize)
	deliveryTask := task.NewDeliveryTask(cfg.Webhook.QueueSize)

	client := utils.NewWebhookClient(cfg.Webhook.Timeout)

	webhookSvc := service.NewWebhookService(repos.Webhook, repos.WebhookDelivery, client, deliveryTask)
	importSvc := service.NewImportService(repos.ImportJob, repos.Product, repos.ImportUow, webhookSvc, importTask, cfg.Import.BatchSize)
	productSvc := service.NewProductService(repos.Product, webhookSvc)

	services := &Services{
		Product: productSvc,
		Import:  importSvc,
		Webhook: webhookSvc,
	}

	taskCfg := task.DefaultConfig()
	taskCfg.ImportWorkers = cfg.Import.Workers
	taskCfg.ImportRescanSpec = cfg.Import.RescanSpec
	taskCfg.DeliveryWorkers = cfg.Webhook.Workers

	manager := task.NewTaskManager(&task.TaskManagerDeps{
		JobRepo:        repos.ImportJob,
		ImportService:  importSvc,
		WebhookService: webhookSvc,
		ImportTask:     importTask,
		DeliveryTask:   deliveryTask,
	}, taskCfg)

	controllers := initControllers(services, manager, cfg)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		TaskManager: manager,
		Controllers: controllers,
	}
}

func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:         repository.NewProductRepository(db),
		ImportJob:       repository.NewImportJobRepository(db),
		ImportUow:       repository.NewImportUnitOfWork(db),
		Webhook:         repository.NewWebhookRepository(db),
		WebhookDelivery: repository.NewWebhookDeliveryRepository(db),
	}
}

func initControllers(services *Services, manager *task.TaskManager, cfg *config.Config) *router.Controllers {
	return &router.Controllers{
		Product: controller.NewProductController(services.Product),
		Import:  controller.NewImportController(services.Import, cfg.Import.UploadDir),
		Webhook: controller.NewWebhookController(services.Webhook),
		Ops:     controller.NewOpsController(manager),
	}
}

// ==================== 服务启动 ====================

func startServer(r *gin.Engine, cfg *config.Config, manager *task.TaskManager) {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		zap.S().Infof("[Main] 服务启动，监听 :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalf("[Main] 服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("[Main] 收到退出信号，正在关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorf("[Main] HTTP 服务强制关闭: %v", err)
	}

	// HTTP 先停，后台任务再停：在跑的导入和投递收尾后才退出
	manager.Stop()

	zap.S().Info("[Main] 服务已退出")
}
