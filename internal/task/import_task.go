package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"product_importer_v1_202608/internal/repository"
	"product_importer_v1_202608/internal/service"
)

// ==================== ImportTask CSV 导入执行任务 ====================

const (
	defaultImportQueueSize = 64
	defaultImportWorkers   = 2

	// 每分钟整点扫一次 pending
	defaultRescanSpec = "0 * * * * *"

	// 单轮扫描最多补投多少任务
	pendingScanLimit = 100
)

// ImportTask 后台导入执行器
//
// channel 只是降低延迟的快路：任务行落库即是入队，
// 上传直接 Enqueue 唤醒 worker，漏掉的（进程重启、队列满）
// 由启动扫描和每分钟的定时扫描兜回来。
// worker 处理前用条件 UPDATE 认领，保证一个任务只会被跑一次。
type ImportTask struct {
	queue chan string
	cron  *cron.Cron

	svc     *service.ImportService
	jobRepo repository.ImportJobRepository

	workers    int
	rescanSpec string
	scanLimit  int

	wg      sync.WaitGroup
	stopped chan struct{}
}

// NewImportTask 创建导入任务（依赖在 Start 时注入）
func NewImportTask(queueSize int) *ImportTask {
	if queueSize <= 0 {
		queueSize = defaultImportQueueSize
	}
	return &ImportTask{
		queue:      make(chan string, queueSize),
		cron:       cron.New(cron.WithSeconds()),
		workers:    defaultImportWorkers,
		rescanSpec: defaultRescanSpec,
		scanLimit:  pendingScanLimit,
		stopped:    make(chan struct{}),
	}
}

// Enqueue 任务入队，不阻塞；队列满返回 false，等扫描补投
func (t *ImportTask) Enqueue(jobID string) bool {
	select {
	case t.queue <- jobID:
		return true
	default:
		return false
	}
}

// Start 注入依赖并启动 worker 和定时扫描
func (t *ImportTask) Start(svc *service.ImportService, jobRepo repository.ImportJobRepository, workers int, rescanSpec string) {
	t.svc = svc
	t.jobRepo = jobRepo
	if workers > 0 {
		t.workers = workers
	}
	if rescanSpec != "" {
		t.rescanSpec = rescanSpec
	}

	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker(i)
	}

	// 进程重启后马上把库里的 pending 捞回来
	go t.ScanPending()

	_, _ = t.cron.AddFunc(t.rescanSpec, t.ScanPending)
	t.cron.Start()
	zap.S().Infof("[ImportTask] 已启动 (worker=%d, 扫描=%q)", t.workers, t.rescanSpec)
}

// Stop 停掉定时器并等 worker 退出，正在跑的任务会跑完
func (t *ImportTask) Stop() {
	cronCtx := t.cron.Stop()
	<-cronCtx.Done()
	close(t.stopped)
	t.wg.Wait()
	zap.S().Info("[ImportTask] 已停止")
}

func (t *ImportTask) worker(id int) {
	defer t.wg.Done()
	for {
		select {
		case <-t.stopped:
			return
		case jobID := <-t.queue:
			t.runJob(id, jobID)
		}
	}
}

// runJob 认领并执行一个任务
func (t *ImportTask) runJob(workerID int, jobID string) {
	ctx := context.Background()

	claimed, err := t.jobRepo.ClaimPending(ctx, jobID)
	if err != nil {
		zap.S().Errorf("[ImportTask] 任务 %s 认领失败: %v", jobID, err)
		return
	}
	if !claimed {
		// 被别的 worker 抢先，或任务已经不在 pending
		return
	}

	zap.S().Infof("[ImportTask] worker-%d 开始处理任务 %s", workerID, jobID)
	start := time.Now()

	if err := t.svc.Run(ctx, jobID); err != nil {
		zap.S().Errorf("[ImportTask] 任务 %s 失败 (耗时 %v): %v", jobID, time.Since(start), err)
		return
	}
	zap.S().Infof("[ImportTask] 任务 %s 完成 (耗时 %v)", jobID, time.Since(start))
}

// ScanPending 扫库补投，和上传入队撞车没关系，认领是原子的
func (t *ImportTask) ScanPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := t.jobRepo.FindPendingIDs(ctx, t.scanLimit)
	if err != nil {
		zap.S().Errorf("[ImportTask] 扫描待处理任务失败: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	enqueued := 0
	for _, id := range ids {
		if t.Enqueue(id) {
			enqueued++
		}
	}
	zap.S().Infof("[ImportTask] 扫描到 %d 个待处理任务，入队 %d 个", len(ids), enqueued)
}
