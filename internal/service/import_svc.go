package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"product_importer_v1_202608/internal/api/dto"
	"product_importer_v1_202608/internal/model"
	"product_importer_v1_202608/internal/repository"
)

// ==================== 错误与常量 ====================

var (
	ErrMissingFile = errors.New("no file associated with this import job")
	ErrJobNotFound = errors.New("import job not found")
)

const (
	// 每攒多少行刷一次库，按部署环境的数据库压力调
	defaultBatchSize = 5000

	// total_rows 每 1000 行落一次库，让轮询端看到进度在涨
	progressSaveInterval = 1000

	// 批量 INSERT 再按 1000 行切子批
	createBatchSize = 1000
)

// ==================== 导入队列 ====================

// ImportQueue 导入任务队列，由 task 层实现
//
// Enqueue 不阻塞：队列满返回 false 也没关系，
// 任务行本身在库里，定时扫描会把它捞回来。
type ImportQueue interface {
	Enqueue(jobID string) bool
}

// ==================== 行规范化 ====================

// normalizedRow 一行 CSV 规范化后的内部表示
type normalizedRow struct {
	skuUpper    string
	skuLower    string
	name        string
	description string
	priceCents  int64
}

// normalizeRow 把原始 CSV 行转成内部记录
//
// 返回 false 表示这行要跳过（SKU 为空）。纯函数，可并发调用。
// 价格走宽松解析：空、非法、负数都归零，导入永远不因价格失败。
func normalizeRow(row map[string]string) (normalizedRow, bool) {
	sku := strings.TrimSpace(row["sku"])
	if sku == "" {
		return normalizedRow{}, false
	}

	return normalizedRow{
		skuUpper:    strings.ToUpper(sku),
		skuLower:    strings.ToLower(sku),
		name:        strings.TrimSpace(row["name"]),
		description: strings.TrimSpace(row["description"]),
		priceCents:  lenientPriceCents(row["price"]),
	}, true
}

// ==================== 服务定义 ====================

// ImportService CSV 导入流水线
//
// 职责：任务创建、后台执行（流式读 + 分批 upsert + 进度落库）、进度查询。
// 导入路径只触发 import.completed，不触发任何 product.* 事件。
type ImportService struct {
	jobRepo     repository.ImportJobRepository
	productRepo repository.ProductRepository
	uow         *repository.ImportUnitOfWork
	webhookSvc  *WebhookService
	queue       ImportQueue
	batchSize   int
}

func NewImportService(
	jobRepo repository.ImportJobRepository,
	productRepo repository.ProductRepository,
	uow *repository.ImportUnitOfWork,
	webhookSvc *WebhookService,
	queue ImportQueue,
	batchSize int,
) *ImportService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ImportService{
		jobRepo:     jobRepo,
		productRepo: productRepo,
		uow:         uow,
		webhookSvc:  webhookSvc,
		queue:       queue,
		batchSize:   batchSize,
	}
}

// ==================== 任务创建与查询 ====================

// CreateJob 落一条 pending 任务并尝试入队
//
// 入队失败不算错：库里的 pending 行才是真正的队列，
// channel 只是让 worker 少等一轮扫描。
func (s *ImportService) CreateJob(ctx context.Context, originalFilename, filePath string) (*model.ImportJob, error) {
	job := &model.ImportJob{
		OriginalFilename: originalFilename,
		FilePath:         filePath,
		Status:           model.ImportStatusPending,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if !s.queue.Enqueue(job.ID) {
		zap.S().Warnf("[Import] 导入队列已满，任务 %s 等待定时扫描", job.ID)
	}
	return job, nil
}

// GetJob 查询单个任务
func (s *ImportService) GetJob(ctx context.Context, jobID string) (*model.ImportJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrJobNotFound, jobID)
		}
		return nil, err
	}
	return job, nil
}

// ListJobs 最近的任务，新的在前
func (s *ImportService) ListJobs(ctx context.Context, limit int) ([]model.ImportJob, error) {
	return s.jobRepo.ListRecent(ctx, limit)
}

// Progress 进度快照，给轮询端用，只读
func (s *ImportService) Progress(ctx context.Context, jobID string) (*dto.ImportStatusResp, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &dto.ImportStatusResp{
		Status:        job.Status,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		Progress:      job.ProgressPercent(),
		ErrorMessage:  job.ErrorMessage,
	}, nil
}

// ==================== 后台执行 ====================

// Run 执行一个导入任务，在后台 worker 里调用
//
// 状态机：pending -> processing -> completed / failed，终态不再迁移。
// 任何失败都会把 failed + 错误信息落库后再把错误抛给 worker 记日志；
// 已提交的批次保持提交（任务不是端到端原子，原子边界是单个批次）。
func (s *ImportService) Run(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	// 先把进度清零落库，任务重跑也能从干净状态开始
	err = s.jobRepo.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":         model.ImportStatusProcessing,
		"error_message":  "",
		"total_rows":     0,
		"processed_rows": 0,
	})
	if err != nil {
		return err
	}

	if err := s.process(ctx, job); err != nil {
		saveErr := s.jobRepo.UpdateFields(ctx, job.ID, map[string]interface{}{
			"status":        model.ImportStatusFailed,
			"error_message": err.Error(),
		})
		if saveErr != nil {
			zap.S().Errorf("[Import] 任务 %s 失败状态落库出错: %v", job.ID, saveErr)
		}
		return err
	}
	return nil
}

// process 流式读文件并分批 upsert，跑完把 completed 落库
func (s *ImportService) process(ctx context.Context, job *model.ImportJob) error {
	if job.FilePath == "" {
		return ErrMissingFile
	}

	f, err := os.Open(job.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// 空文件连表头都没有，跳过读取循环按 0 行正常收尾
	header, headerErr := reader.Read()
	if headerErr != nil && headerErr != io.EOF {
		return headerErr
	}

	var (
		totalRows int
		processed int
		batch     = make([]normalizedRow, 0, s.batchSize)
	)

	for headerErr == nil {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}

		totalRows++
		if totalRows%progressSaveInterval == 0 {
			saveErr := s.jobRepo.UpdateFields(ctx, job.ID, map[string]interface{}{
				"total_rows": totalRows,
			})
			if saveErr != nil {
				return saveErr
			}
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}

		nr, ok := normalizeRow(row)
		if !ok {
			continue
		}

		batch = append(batch, nr)
		if len(batch) >= s.batchSize {
			if upErr := s.upsertBatch(ctx, job.ID, batch); upErr != nil {
				return upErr
			}
			processed += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if upErr := s.upsertBatch(ctx, job.ID, batch); upErr != nil {
			return upErr
		}
		processed += len(batch)
	}

	err = s.jobRepo.UpdateFields(ctx, job.ID, map[string]interface{}{
		"status":         model.ImportStatusCompleted,
		"total_rows":     totalRows,
		"processed_rows": processed,
	})
	if err != nil {
		return err
	}

	job.Status = model.ImportStatusCompleted
	job.TotalRows = totalRows
	job.ProcessedRows = processed
	s.webhookSvc.Trigger(ctx, model.EventImportCompleted, ImportCompletedPayload(job))
	return nil
}

// upsertBatch 单个批次的对账写入
//
// 一次查询拉出批内所有已存在的 SKU（大小写折叠），
// 新的走批量 INSERT，已有的只改 name/description/price_cents，
// is_active 永远不动。写入和进度推进在同一事务里，要么都成要么都回滚。
// 批内同一 SKU 出现多次时后面的覆盖前面的，暂存 map 保证
// 重复的新 SKU 不会产生两条 INSERT 去撞唯一索引。
func (s *ImportService) upsertBatch(ctx context.Context, jobID string, batch []normalizedRow) error {
	if len(batch) == 0 {
		return nil
	}

	return s.uow.Execute(ctx, func(products repository.ProductRepository, jobs repository.ImportJobRepository) error {
		lowerSet := make(map[string]struct{}, len(batch))
		lowers := make([]string, 0, len(batch))
		for _, nr := range batch {
			if _, ok := lowerSet[nr.skuLower]; !ok {
				lowerSet[nr.skuLower] = struct{}{}
				lowers = append(lowers, nr.skuLower)
			}
		}

		existing, err := products.FindBySKUFold(ctx, lowers)
		if err != nil {
			return err
		}
		existingByLower := make(map[string]*model.Product, len(existing))
		for i := range existing {
			existingByLower[strings.ToLower(existing[i].SKU)] = &existing[i]
		}

		// 按折叠 SKU 暂存，后出现的行覆盖先出现的
		toCreate := make(map[string]*model.Product)
		createOrder := make([]string, 0)
		toUpdate := make(map[string]normalizedRow)
		updateOrder := make([]string, 0)

		for _, nr := range batch {
			if _, ok := existingByLower[nr.skuLower]; ok {
				if _, staged := toUpdate[nr.skuLower]; !staged {
					updateOrder = append(updateOrder, nr.skuLower)
				}
				toUpdate[nr.skuLower] = nr
			} else {
				if _, staged := toCreate[nr.skuLower]; !staged {
					createOrder = append(createOrder, nr.skuLower)
				}
				toCreate[nr.skuLower] = &model.Product{
					SKU:         nr.skuUpper,
					Name:        nr.name,
					Description: nr.description,
					PriceCents:  nr.priceCents,
					IsActive:    true,
				}
			}
		}

		if len(createOrder) > 0 {
			rows := make([]*model.Product, 0, len(createOrder))
			for _, key := range createOrder {
				rows = append(rows, toCreate[key])
			}
			if err := products.BatchCreate(ctx, rows, createBatchSize); err != nil {
				return err
			}
		}

		for _, key := range updateOrder {
			nr := toUpdate[key]
			err := products.UpdateFields(ctx, existingByLower[key].ID, map[string]interface{}{
				"name":        nr.name,
				"description": nr.description,
				"price_cents": nr.priceCents,
			})
			if err != nil {
				return err
			}
		}

		// 进度按整批行数推进，批内重复的 SKU 也算处理过
		return jobs.IncrementProcessed(ctx, jobID, len(batch))
	})
}
