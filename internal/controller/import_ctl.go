package controller

import (
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/service"
)

type ImportController struct {
	importService *service.ImportService
	uploadDir     string
}

func NewImportController(importService *service.ImportService, uploadDir string) *ImportController {
	return &ImportController{
		importService: importService,
		uploadDir:     uploadDir,
	}
}

// ==================== 上传接口 ====================

// Upload 上传 CSV 创建导入任务
// @Summary 上传 CSV 文件，立即返回任务ID，处理在后台进行
// @Tags Import
// @Accept multipart/form-data
// @Param file formData file true "CSV 文件（UTF-8，带表头）"
// @Success 200 {object} dto.ImportJobResp
// @Router /api/v1/imports [post]
func (ctrl *ImportController) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "请上传 CSV 文件"})
		return
	}

	// 落盘文件名用任务无关的随机名，避免上传名里带路径分隔符之类的脏东西
	dst := filepath.Join(ctrl.uploadDir, uuid.NewString()+".csv")
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "文件保存失败: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	job, err := ctrl.importService.CreateJob(ctx, file.Filename, dst)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "任务创建失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toImportJobResp(job),
	})
}

// ==================== 查询接口 ====================

// ListJobs 获取导入任务列表
// @Summary 获取最近的导入任务，新的在前
// @Tags Import
// @Param limit query int false "返回条数" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/imports [get]
func (ctrl *ImportController) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	ctx := c.Request.Context()
	jobs, err := ctrl.importService.ListJobs(ctx, limit)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	respList := make([]dto.ImportJobResp, 0, len(jobs))
	for i := range jobs {
		respList = append(respList, toImportJobResp(&jobs[i]))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

// GetJob 获取导入任务详情
// @Summary 获取单个导入任务
// @Tags Import
// @Param id path string true "任务ID"
// @Success 200 {object} dto.ImportJobResp
// @Router /api/v1/imports/{id} [get]
func (ctrl *ImportController) GetJob(c *gin.Context) {
	jobID := c.Param("id")

	ctx := c.Request.Context()
	job, err := ctrl.importService.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "任务不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    toImportJobResp(job),
	})
}

// Status 轮询导入进度
// @Summary 获取任务进度快照（status/total/processed/progress/error）
// @Tags Import
// @Param id path string true "任务ID"
// @Success 200 {object} dto.ImportStatusResp
// @Router /api/v1/imports/{id}/status [get]
func (ctrl *ImportController) Status(c *gin.Context) {
	jobID := c.Param("id")

	ctx := c.Request.Context()
	status, err := ctrl.importService.Progress(ctx, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": "任务不存在"})
			return
		}
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    status,
	})
}

// toImportJobResp Model 转响应 DTO
func toImportJobResp(job *model.ImportJob) dto.ImportJobResp {
	return dto.ImportJobResp{
		ID:               job.ID,
		OriginalFilename: job.OriginalFilename,
		Status:           job.Status,
		TotalRows:        job.TotalRows,
		ProcessedRows:    job.ProcessedRows,
		Progress:         job.ProgressPercent(),
		ErrorMessage:     job.ErrorMessage,
		UploadedAt:       job.UploadedAt.Format(time.RFC3339),
	}
}
