package task

import (
	"go.uber.org/zap"

	"product_importer_v1_202608/internal/repository"
	"product_importer_v1_202608/internal/service"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台任务
// 管理范围：CSV 导入执行、Webhook 投递
type TaskManager struct {
	deps *TaskManagerDeps
	cfg  *TaskManagerConfig

	importTask   *ImportTask
	deliveryTask *DeliveryTask
}

// TaskManagerDeps 任务管理器依赖
//
// 两个 Task 在 main 里先于 service 构造（service 要拿它们当队列用），
// 这里只负责接管生命周期。
type TaskManagerDeps struct {
	// Repositories
	JobRepo repository.ImportJobRepository

	// Services
	ImportService  *service.ImportService
	WebhookService *service.WebhookService

	// Tasks
	ImportTask   *ImportTask
	DeliveryTask *DeliveryTask
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// CSV 导入
	ImportEnabled    bool
	ImportWorkers    int
	ImportRescanSpec string

	// Webhook 投递
	DeliveryEnabled bool
	DeliveryWorkers int
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		ImportEnabled:    true,
		ImportWorkers:    2,
		ImportRescanSpec: "0 * * * * *",

		DeliveryEnabled: true,
		DeliveryWorkers: 4,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{deps: deps, cfg: cfg}

	if cfg.ImportEnabled && deps.ImportService != nil {
		tm.importTask = deps.ImportTask
	}
	if cfg.DeliveryEnabled && deps.WebhookService != nil {
		tm.deliveryTask = deps.DeliveryTask
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
//
// 先起投递再起导入：导入一完成就会发 import.completed。
func (tm *TaskManager) Start() {
	zap.S().Info("[TaskManager] 正在启动后台任务...")

	if tm.deliveryTask != nil {
		tm.deliveryTask.Start(tm.deps.WebhookService, tm.cfg.DeliveryWorkers)
	}
	if tm.importTask != nil {
		tm.importTask.Start(tm.deps.ImportService, tm.deps.JobRepo, tm.cfg.ImportWorkers, tm.cfg.ImportRescanSpec)
	}

	zap.S().Info("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务，顺序和启动相反
func (tm *TaskManager) Stop() {
	zap.S().Info("[TaskManager] 正在停止后台任务...")

	if tm.importTask != nil {
		tm.importTask.Stop()
	}
	if tm.deliveryTask != nil {
		tm.deliveryTask.Stop()
	}

	zap.S().Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// RunImportScanNow 立即扫一轮 pending 任务
func (tm *TaskManager) RunImportScanNow() error {
	if tm.importTask == nil {
		return ErrTaskDisabled
	}
	go tm.importTask.ScanPending()
	return nil
}

// ==================== 状态查询 ====================

// Status 获取任务启用状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"import":   tm.importTask != nil,
		"delivery": tm.deliveryTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
