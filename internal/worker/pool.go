package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"leetscore/internal/logger"
	"leetscore/internal/models"
)

// ErrPoolClosed is returned by Submit once Shutdown has started
var ErrPoolClosed = errors.New("worker pool is shut down")

// RunStore persists batch-run audit rows
type RunStore interface {
	InsertBatchRun(ctx context.Context, run *models.BatchRun) error
}

// Pool manages a pool of workers for asynchronous audit writes
type Pool struct {
	jobs        chan models.BatchRun
	workerCount int
	store       RunStore
	timeout     time.Duration
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics

	// closed guards jobs: Submit holds the read lock while sending
	mu     sync.RWMutex
	closed bool
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// MetricsSnapshot is a point-in-time copy of PoolMetrics
type MetricsSnapshot struct {
	Processed          int64  `json:"processed"`
	Failed             int64  `json:"failed"`
	BackpressureEvents int64  `json:"backpressure_events"`
	AvgProcessingTime  string `json:"avg_processing_time"`
	QueueUtilization   string `json:"queue_utilization"`
}

// NewPool creates a new worker pool
func NewPool(workerCount, queueSize int, store RunStore) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:        make(chan models.BatchRun, queueSize),
		workerCount: workerCount,
		store:       store,
		timeout:     5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (wp *Pool) Start() {
	logger.Info("Starting audit worker pool with %d workers and queue size %d", wp.workerCount, cap(wp.jobs))

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker is the main worker loop that processes jobs
func (wp *Pool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case run, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.process(id, run)
		}
	}
}

// process writes a single audit row; a panic in the store only costs that row
func (wp *Pool) process(workerID int, run models.BatchRun) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warning("Audit worker #%d PANIC recovered: %v", workerID, r)
			wp.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(wp.ctx, wp.timeout)
	defer cancel()

	err := wp.store.InsertBatchRun(ctx, &run)
	processingTime := time.Since(startTime)

	if err != nil {
		logger.Error("Audit worker #%d failed to persist batch run (%d users): %v (took %v)",
			workerID, run.Total, err, processingTime)
		wp.metrics.incrementFailed()
		return
	}

	logger.Debug("Audit worker #%d stored batch run (%d users) in %v", workerID, run.Total, processingTime)
	wp.metrics.recordSuccess(processingTime)
}

// Submit queues a run without blocking. A full queue drops the run.
func (wp *Pool) Submit(run models.BatchRun) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		logger.Warning("Audit pool closed, dropping batch run of %d users", run.Total)
		return ErrPoolClosed
	}

	select {
	case wp.jobs <- run:
		return nil
	default:
		logger.Warning("BACKPRESSURE: audit queue full, dropping batch run of %d users", run.Total)
		wp.metrics.incrementBackpressure()
		return fmt.Errorf("worker pool queue full (backpressure)")
	}
}

// Shutdown drains queued runs, giving up after timeout
func (wp *Pool) Shutdown(timeout time.Duration) error {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.jobs)
	}
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.printMetrics()
		return nil

	case <-time.After(timeout):
		wp.cancel()
		logger.Warning("Audit pool shutdown timed out after %v", timeout)
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// Metrics returns a snapshot of the pool metrics
func (wp *Pool) Metrics() MetricsSnapshot {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.metrics.processed > 0 {
		avgProcessing = wp.metrics.totalProcessing / time.Duration(wp.metrics.processed)
	}

	return MetricsSnapshot{
		Processed:          wp.metrics.processed,
		Failed:             wp.metrics.failed,
		BackpressureEvents: wp.metrics.backpressure,
		AvgProcessingTime:  avgProcessing.String(),
		QueueUtilization:   fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

func (wp *Pool) printMetrics() {
	m := wp.Metrics()
	logger.Info("Audit pool: processed=%d failed=%d backpressure=%d avg=%s",
		m.Processed, m.Failed, m.BackpressureEvents, m.AvgProcessingTime)
}

func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
