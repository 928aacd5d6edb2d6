package controller

import (
	"errors"

	"github.com/gin-gonic/gin"

	"product_importer_v1_202608/internal/task"
)

// OpsController 运维接口：手动触发后台动作、查看任务开关
type OpsController struct {
	taskManager *task.TaskManager
}

func NewOpsController(taskManager *task.TaskManager) *OpsController {
	return &OpsController{taskManager: taskManager}
}

// TriggerImportScan 手动触发 pending 扫描
// @Summary 立即扫一轮待处理的导入任务并补投队列
// @Tags Ops
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/ops/import-scan [post]
func (ctrl *OpsController) TriggerImportScan(c *gin.Context) {
	if err := ctrl.taskManager.RunImportScanNow(); err != nil {
		if errors.Is(err, task.ErrTaskDisabled) {
			c.JSON(409, gin.H{"code": 409, "message": "导入任务未启用"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "触发失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "扫描已触发"})
}

// TaskStatus 查看后台任务开关
// @Summary 查看后台任务启用状态
// @Tags Ops
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/ops/tasks [get]
func (ctrl *OpsController) TaskStatus(c *gin.Context) {
	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    ctrl.taskManager.Status(),
	})
}
