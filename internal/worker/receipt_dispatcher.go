package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/pkg/metrics"
)

// ReceiptFacade exposes the subset of application functionality required by the worker.
type ReceiptFacade interface {
	ClaimReceipts(ctx context.Context, limit int) ([]model.ReceiptNotification, error)
	DeliverReceipt(ctx context.Context, n model.ReceiptNotification) error
	MarkReceiptSent(ctx context.Context, id int64) error
	MarkReceiptFailed(ctx context.Context, id int64, reason string) error
}

// ReceiptDispatcher drains the receipt outbox and retries deliveries concurrently.
type ReceiptDispatcher struct {
	facade       ReceiptFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	metrics      *metrics.Metrics
	logger       *slog.Logger

	jobs   chan model.ReceiptNotification
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReceiptDispatcher constructs receipt dispatcher worker pool.
func NewReceiptDispatcher(facade ReceiptFacade, pollInterval time.Duration, batchSize, workers int, m *metrics.Metrics, logger *slog.Logger) *ReceiptDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ReceiptDispatcher{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		metrics:      m,
		logger:       logger,
		jobs:         make(chan model.ReceiptNotification, batchSize*workers),
	}
}

// Start launches background processing.
func (d *ReceiptDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}

	d.wg.Add(1)
	go d.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (d *ReceiptDispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *ReceiptDispatcher) dispatch(ctx context.Context) {
	defer d.wg.Done()
	defer close(d.jobs)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.claimAndDispatch(ctx)
		}
	}
}

func (d *ReceiptDispatcher) claimAndDispatch(ctx context.Context) {
	batch, err := d.facade.ClaimReceipts(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("claim receipts failed", slog.String("error", err.Error()))
		return
	}
	for _, n := range batch {
		select {
		case <-ctx.Done():
			return
		case d.jobs <- n:
		}
	}
}

func (d *ReceiptDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-d.jobs:
			if !ok {
				return
			}
			d.deliver(ctx, n)
		}
	}
}

func (d *ReceiptDispatcher) deliver(ctx context.Context, n model.ReceiptNotification) {
	if err := d.facade.DeliverReceipt(ctx, n); err != nil {
		d.metrics.ObserveDelivery(metrics.DeliveryFailed)
		d.logger.Warn("receipt delivery failed",
			slog.Int64("notification_id", n.ID),
			slog.Int64("order_id", n.OrderID),
			slog.Int("attempts", n.Attempts+1),
			slog.String("error", err.Error()))
		// Outbox bookkeeping must land even when shutdown cancels ctx.
		if err := d.facade.MarkReceiptFailed(context.WithoutCancel(ctx), n.ID, err.Error()); err != nil {
			d.logger.Error("mark receipt failed", slog.Int64("notification_id", n.ID), slog.String("error", err.Error()))
		}
		return
	}

	d.metrics.ObserveDelivery(metrics.DeliverySent)
	if err := d.facade.MarkReceiptSent(context.WithoutCancel(ctx), n.ID); err != nil {
		d.logger.Error("mark receipt sent", slog.Int64("notification_id", n.ID), slog.String("error", err.Error()))
	}
}
