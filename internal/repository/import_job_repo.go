package repository

import (
	"context"

	"gorm.io/gorm"

	"product_importer_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ImportJobRepository 导入任务仓储接口
type ImportJobRepository interface {
	Create(ctx context.Context, job *model.ImportJob) error
	GetByID(ctx context.Context, id string) (*model.ImportJob, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	IncrementProcessed(ctx context.Context, id string, delta int) error

	// ClaimPending 把 pending 原子置为 processing，返回是否认领成功。
	// 队列和扫表可能撞到同一个任务，靠这条 UPDATE 保证只有一个 worker 执行。
	ClaimPending(ctx context.Context, id string) (bool, error)

	FindPendingIDs(ctx context.Context, limit int) ([]string, error)
	ListRecent(ctx context.Context, limit int) ([]model.ImportJob, error)

	WithTx(tx *gorm.DB) ImportJobRepository
}

// ==================== 仓储实现 ====================

type importJobRepo struct {
	db *gorm.DB
}

// NewImportJobRepository 创建导入任务仓储
func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepo{db: db}
}

func (r *importJobRepo) Create(ctx context.Context, job *model.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *importJobRepo) GetByID(ctx context.Context, id string) (*model.ImportJob, error) {
	var job model.ImportJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.ImportJob{}).Where("id = ?", id).Updates(fields).Error
}

func (r *importJobRepo) IncrementProcessed(ctx context.Context, id string, delta int) error {
	return r.db.WithContext(ctx).Model(&model.ImportJob{}).
		Where("id = ?", id).
		Update("processed_rows", gorm.Expr("processed_rows + ?", delta)).Error
}

func (r *importJobRepo) ClaimPending(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.ImportJob{}).
		Where("id = ? AND status = ?", id, model.ImportStatusPending).
		Update("status", model.ImportStatusProcessing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindPendingIDs 捞出等待中的任务，先到先处理
func (r *importJobRepo) FindPendingIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	query := r.db.WithContext(ctx).Model(&model.ImportJob{}).
		Where("status = ?", model.ImportStatusPending).
		Order("uploaded_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Pluck("id", &ids).Error
	return ids, err
}

func (r *importJobRepo) ListRecent(ctx context.Context, limit int) ([]model.ImportJob, error) {
	var jobs []model.ImportJob
	query := r.db.WithContext(ctx).Order("uploaded_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

func (r *importJobRepo) WithTx(tx *gorm.DB) ImportJobRepository {
	return &importJobRepo{db: tx}
}

// ==================== 事务支持 ====================

// ImportUnitOfWork 导入工作单元（事务）
//
// 每个批次的「写商品 + 推进度」要么一起成功要么一起回滚，
// 这样断在半路重跑也不会出现进度和数据对不上的情况。
type ImportUnitOfWork struct {
	db *gorm.DB
}

// NewImportUnitOfWork 创建工作单元
func NewImportUnitOfWork(db *gorm.DB) *ImportUnitOfWork {
	return &ImportUnitOfWork{db: db}
}

// Execute 在同一事务内执行批次写入
func (u *ImportUnitOfWork) Execute(ctx context.Context, fn func(products ProductRepository, jobs ImportJobRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewProductRepository(tx), NewImportJobRepository(tx))
	})
}
