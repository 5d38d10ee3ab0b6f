package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"expense-tracker/api/logger"

	"go.uber.org/zap"
)

var (
	ErrPoolStopped      = errors.New("worker pool is stopped")
	ErrInvalidPartition = errors.New("invalid partition")
)

// JobFunc processes one queued payload.
type JobFunc func(ctx context.Context, job []byte) error

// WorkerPool runs one goroutine per partition so jobs for the same
// partition are handled in order.
type WorkerPool struct {
	workers    int
	partitions []chan []byte
	handle     JobFunc
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// done is closed by Stop to release blocked SubmitWait callers.
	// sendMu is held shared by senders and exclusively while closing
	// the partition channels.
	done   chan struct{}
	sendMu sync.RWMutex

	// Metrics
	mu                 sync.RWMutex
	stopped            bool
	jobsProcessed      uint64
	jobsFailed         uint64
	processingDuration uint64
	bufferFillLevels   []uint64
	jobsDropped        uint64
}

func NewWorkerPool(workers, buffer int, handle JobFunc) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan []byte, workers)
	for i := range partitions {
		partitions[i] = make(chan []byte, buffer)
	}
	return &WorkerPool{
		workers:          workers,
		partitions:       partitions,
		handle:           handle,
		ctx:              ctx,
		cancelFunc:       cancel,
		done:             make(chan struct{}),
		bufferFillLevels: make([]uint64, workers),
	}
}

func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) Start() {
	logger.Get().Info("Starting worker pool", zap.Int("workers", wp.workers))
	for i := range wp.partitions {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop lets workers finish what is already buffered and waits for them.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.mu.Unlock()

	close(wp.done)
	wp.sendMu.Lock()
	for _, ch := range wp.partitions {
		close(ch)
	}
	wp.sendMu.Unlock()

	logger.Get().Info("Stopping worker pool")
	wp.wg.Wait()
	wp.cancelFunc()
}

// Submit queues a job on the given partition. It reports false when the
// job was dropped.
func (wp *WorkerPool) Submit(job []byte, partition int32) bool {
	if !wp.validPartition(partition) {
		return false
	}

	wp.sendMu.RLock()
	defer wp.sendMu.RUnlock()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.stopped {
		wp.jobsDropped++
		logger.Get().Warn("Worker pool is stopped, job not submitted")
		return false
	}

	select {
	case wp.partitions[partition] <- job:
		wp.bufferFillLevels[partition]++
		logger.Get().Debug("Job submitted to worker pool", zap.Int32("partition", partition))
		return true
	default:
		wp.jobsDropped++
		logger.Get().Warn("Worker partition buffer full, job dropped", zap.Int32("partition", partition))
		return false
	}
}

// SubmitWait queues a job on the given partition, blocking while its
// buffer is full. It returns ctx.Err() if ctx ends first and
// ErrPoolStopped if the pool stops first.
func (wp *WorkerPool) SubmitWait(ctx context.Context, job []byte, partition int32) error {
	if !wp.validPartition(partition) {
		return ErrInvalidPartition
	}

	wp.sendMu.RLock()
	defer wp.sendMu.RUnlock()

	wp.mu.Lock()
	if wp.stopped {
		wp.jobsDropped++
		wp.mu.Unlock()
		logger.Get().Warn("Worker pool is stopped, job not submitted")
		return ErrPoolStopped
	}
	// Counted before the send so the worker never sees a level of zero
	// for a job it already received.
	wp.bufferFillLevels[partition]++
	wp.mu.Unlock()

	select {
	case wp.partitions[partition] <- job:
		logger.Get().Debug("Job submitted to worker pool", zap.Int32("partition", partition))
		return nil
	case <-ctx.Done():
		wp.unqueue(partition)
		return ctx.Err()
	case <-wp.done:
		wp.unqueue(partition)
		return ErrPoolStopped
	}
}

func (wp *WorkerPool) validPartition(partition int32) bool {
	if partition >= 0 && int(partition) < len(wp.partitions) {
		return true
	}
	wp.drop()
	logger.Get().Error("Invalid partition number",
		zap.Int32("partition", partition),
		zap.Int("max_partitions", len(wp.partitions)))
	return false
}

// unqueue reverts the fill level of a SubmitWait that gave up.
func (wp *WorkerPool) unqueue(partition int32) {
	wp.mu.Lock()
	if wp.bufferFillLevels[partition] > 0 {
		wp.bufferFillLevels[partition]--
	}
	wp.jobsDropped++
	wp.mu.Unlock()
}

func (wp *WorkerPool) drop() {
	wp.mu.Lock()
	wp.jobsDropped++
	wp.mu.Unlock()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	logger.Get().Info("Worker started", zap.Int("worker_id", id))

	for job := range wp.partitions[id] {
		wp.mu.Lock()
		if wp.bufferFillLevels[id] > 0 {
			wp.bufferFillLevels[id]--
		}
		wp.mu.Unlock()

		startTime := time.Now()
		err := wp.handle(wp.ctx, job)
		elapsed := uint64(time.Since(startTime).Milliseconds())

		wp.mu.Lock()
		if err != nil {
			wp.jobsFailed++
		} else {
			wp.jobsProcessed++
		}
		wp.processingDuration += elapsed
		wp.mu.Unlock()

		if err != nil {
			logger.Get().Error("Failed to process job",
				zap.Int("worker_id", id),
				zap.Error(err))
		}
	}
	logger.Get().Info("Worker stopping", zap.Int("worker_id", id))
}

// Metrics is a point-in-time snapshot of the pool counters.
type Metrics struct {
	JobsProcessed   uint64   `json:"jobs_processed"`
	JobsFailed      uint64   `json:"jobs_failed"`
	JobsDropped     uint64   `json:"jobs_dropped"`
	AvgProcessingMs float64  `json:"avg_processing_ms"`
	BufferLevels    []uint64 `json:"buffer_levels"`
	ActiveWorkers   int      `json:"active_workers"`
}

func (wp *WorkerPool) Metrics() Metrics {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	var avgProcessingTime float64
	if handled := wp.jobsProcessed + wp.jobsFailed; handled > 0 {
		avgProcessingTime = float64(wp.processingDuration) / float64(handled)
	}

	levels := make([]uint64, len(wp.bufferFillLevels))
	copy(levels, wp.bufferFillLevels)

	return Metrics{
		JobsProcessed:   wp.jobsProcessed,
		JobsFailed:      wp.jobsFailed,
		JobsDropped:     wp.jobsDropped,
		AvgProcessingMs: avgProcessingTime,
		BufferLevels:    levels,
		ActiveWorkers:   wp.workers,
	}
}

// MetricsHandler returns the current metrics as JSON
func (wp *WorkerPool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wp.Metrics())
}
