package task

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"product_importer_v1_202608/internal/service"
)

// ==================== DeliveryTask Webhook 投递任务 ====================

const (
	defaultDeliveryQueueSize = 256
	defaultDeliveryWorkers   = 4
)

// DeliveryTask 后台投递执行器
//
// 纯内存队列：投递本来就是一次性、不重试的，进程挂了丢掉队列里
// 没发出去的也符合契约（回执都还没建，等于从未尝试）。
type DeliveryTask struct {
	queue chan service.DeliveryRequest

	svc     *service.WebhookService
	workers int

	wg      sync.WaitGroup
	stopped chan struct{}
}

// NewDeliveryTask 创建投递任务（依赖在 Start 时注入）
func NewDeliveryTask(queueSize int) *DeliveryTask {
	if queueSize <= 0 {
		queueSize = defaultDeliveryQueueSize
	}
	return &DeliveryTask{
		queue:   make(chan service.DeliveryRequest, queueSize),
		workers: defaultDeliveryWorkers,
		stopped: make(chan struct{}),
	}
}

// Enqueue 投递入队，不阻塞；队列满返回 false 由调用方处置
func (t *DeliveryTask) Enqueue(req service.DeliveryRequest) bool {
	select {
	case t.queue <- req:
		return true
	default:
		return false
	}
}

// Start 注入依赖并启动 worker
func (t *DeliveryTask) Start(svc *service.WebhookService, workers int) {
	t.svc = svc
	if workers > 0 {
		t.workers = workers
	}

	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
	zap.S().Infof("[DeliveryTask] 已启动 (worker=%d)", t.workers)
}

// Stop 等 worker 退出，在发的请求会发完，队列里没发的丢弃
func (t *DeliveryTask) Stop() {
	close(t.stopped)
	t.wg.Wait()
	zap.S().Info("[DeliveryTask] 已停止")
}

func (t *DeliveryTask) worker() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stopped:
			return
		case req := <-t.queue:
			// HTTP 层面的失败 Deliver 自己记回执，
			// 这里只会看到订阅已被删之类的执行前错误
			err := t.svc.Deliver(context.Background(), req.WebhookID, req.Event, req.Payload)
			if err != nil {
				zap.S().Warnf("[DeliveryTask] webhook %d 投递未执行: %v", req.WebhookID, err)
			}
		}
	}
}
