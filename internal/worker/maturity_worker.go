package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/profitwave/internal/observability"
	"github.com/ayo6706/profitwave/internal/service"
	"go.uber.org/zap"
)

// MaturityWorker pays out investments whose lock-in period has ended.
// Safe for concurrent instances thanks to FOR UPDATE SKIP LOCKED.
type MaturityWorker struct {
	investments  *service.InvestmentService
	pollInterval time.Duration
	batchSize    int32
	now          func() time.Time
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewMaturityWorker(investments *service.InvestmentService) *MaturityWorker {
	return &MaturityWorker{
		investments:  investments,
		pollInterval: time.Minute,
		batchSize:    50,
		now:          func() time.Time { return time.Now().UTC() },
		stopCh:       make(chan struct{}),
	}
}

func (w *MaturityWorker) WithPollInterval(interval time.Duration) *MaturityWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

func (w *MaturityWorker) WithBatchSize(size int32) *MaturityWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// WithClock overrides the time used to decide which investments are due.
func (w *MaturityWorker) WithClock(now func() time.Time) *MaturityWorker {
	if now != nil {
		w.now = now
	}
	return w
}

// Start polls until Stop is called or ctx is canceled.
func (w *MaturityWorker) Start(ctx context.Context) {
	zap.L().Info("maturity worker starting",
		zap.Duration("interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize),
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("maturity worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("maturity worker stop signal received")
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				zap.L().Error("maturity settlement failed", zap.Error(err))
			}
		}
	}
}

func (w *MaturityWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// ProcessOnce drains due investments batch by batch and returns how many were
// settled.
func (w *MaturityWorker) ProcessOnce(ctx context.Context) (int, error) {
	asOf := w.now()
	total := 0
	for {
		n, err := w.investments.SettleMatured(ctx, asOf, w.batchSize)
		if err != nil {
			observability.IncrementWorkerRun("maturity", "failed")
			return total, err
		}
		total += n
		if n < int(w.batchSize) {
			break
		}
	}
	observability.IncrementWorkerRun("maturity", "success")
	return total, nil
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *MaturityWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *MaturityWorker) String() string {
	return fmt.Sprintf("MaturityWorker(interval=%v, batch=%d)", w.pollInterval, w.batchSize)
}
