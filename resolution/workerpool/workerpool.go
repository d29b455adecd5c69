package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

var (
	// ErrQueueFull is returned when a work item cannot be buffered.
	ErrQueueFull = errors.New("work queue is full")
	// ErrPoolStopped is returned for work that arrives after, or is left over at, shutdown.
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// WorkItem represents a single sealed batch to be processed by the worker pool.
type WorkItem struct {
	// Key identifies the item in logs.
	Key string
	// Size is the number of references carried by the item.
	Size int
	// Run performs the work. The context ends when the pool shuts down.
	Run func(ctx context.Context)
	// Abort is called instead of Run when the item is dropped.
	Abort func(err error)
}

// PoolOptions configures the worker pool.
type PoolOptions struct {
	// WorkerCount is the number of concurrent workers, bounding parallel bulk calls.
	WorkerCount int
	// QueueSize is the size of the work queue buffer.
	QueueSize int
	// Logger for the worker pool.
	Logger logr.Logger
}

// WorkerPool manages a pool of workers that process work items concurrently.
// Items may be enqueued before Start, they are processed once the workers run.
type WorkerPool struct {
	PoolOptions
	workQueue   chan *WorkItem
	mu          sync.RWMutex
	stopped     bool
	workersDone sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(opts PoolOptions) *WorkerPool {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 10
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}

	return &WorkerPool{
		PoolOptions: opts,
		workQueue:   make(chan *WorkItem, opts.QueueSize),
	}
}

// Start begins the worker pool.
// This method blocks until the context is cancelled to implement graceful shutdown.
// Items still queued at shutdown are aborted with ErrPoolStopped.
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.Logger.Info("starting worker pool", "workers", wp.WorkerCount, "queueSize", wp.QueueSize)

	for i := range wp.WorkerCount {
		wp.workersDone.Add(1)
		go wp.worker(ctx, i)
	}

	// wait for context cancellation
	<-ctx.Done()
	wp.Logger.Info("worker pool shutting down, draining queue")

	// close work queue to signal workers to stop
	wp.mu.Lock()
	wp.stopped = true
	close(wp.workQueue)
	wp.mu.Unlock()

	// wait for all workers to finish
	wp.workersDone.Wait()

	for item := range wp.workQueue {
		QueueSizeGauge.Set(float64(len(wp.workQueue)))
		abort(item, ErrPoolStopped)
	}

	wp.Logger.Info("worker pool shutdown complete")
	return nil
}

// Enqueue hands an item to the workers without blocking.
func (wp *WorkerPool) Enqueue(item *WorkItem) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.workQueue <- item:
		QueueSizeGauge.Set(float64(len(wp.workQueue)))
		wp.Logger.V(1).Info("enqueued work item", "key", item.Key, "size", item.Size)
		return nil
	default:
		return ErrQueueFull
	}
}

// worker is the main worker loop that processes work items.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.workersDone.Done()
	logger := wp.Logger.WithValues("worker", id)
	logger.V(1).Info("worker started")
	defer logger.V(1).Info("worker stopped")

	for {
		select {
		case <-ctx.Done():
			logger.V(1).Info("worker stopped due to context cancellation")
			return
		case item, ok := <-wp.workQueue:
			if !ok {
				logger.V(1).Info("work queue closed, worker exiting")
				return
			}

			QueueSizeGauge.Set(float64(len(wp.workQueue)))
			if ctx.Err() != nil {
				abort(item, ErrPoolStopped)
				continue
			}
			wp.handleWorkItem(ctx, logger, item)
		}
	}
}

func (wp *WorkerPool) handleWorkItem(ctx context.Context, logger logr.Logger, item *WorkItem) {
	logger.V(1).Info("processing work item", "key", item.Key, "size", item.Size)

	InFlightGauge.Inc()
	defer InFlightGauge.Dec()

	start := time.Now()
	item.Run(ctx)
	duration := time.Since(start).Seconds()

	DispatchDurationHistogram.Observe(duration)
	logger.V(1).Info("processed work item", "key", item.Key, "duration", duration)
}

func abort(item *WorkItem, err error) {
	if item.Abort != nil {
		item.Abort(err)
	}
}
