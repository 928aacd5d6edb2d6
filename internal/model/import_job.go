package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ==================== 导入任务状态 ====================

const (
	ImportStatusPending    = "pending"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// ImportJob CSV 导入任务
//
// 一行记录就是一个任务：上传时落库为 pending，worker 认领后置为
// processing，结束时收敛到 completed / failed。队列丢了没关系，
// 扫表还能把 pending 的捞回来。
type ImportJob struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// --- 文件 ---
	OriginalFilename string `gorm:"size:255;not null" json:"original_filename"`
	FilePath         string `gorm:"size:512" json:"file_path"`

	// --- 进度 ---
	Status        string `gorm:"size:32;not null;default:pending;index" json:"status"`
	TotalRows     int    `gorm:"not null;default:0" json:"total_rows"`
	ProcessedRows int    `gorm:"not null;default:0" json:"processed_rows"`
	ErrorMessage  string `gorm:"type:text" json:"error_message"`

	UploadedAt time.Time `gorm:"autoCreateTime;index" json:"uploaded_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

func (j *ImportJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// ProgressPercent 完成百分比，整数截断（99.9% 显示 99）
func (j *ImportJob) ProgressPercent() int {
	if j.TotalRows <= 0 {
		return 0
	}
	return j.ProcessedRows * 100 / j.TotalRows
}
