package workerpool_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/presentation/resolution/workerpool"
)

type FakeLogger struct {
	mu sync.Mutex
	logr.Logger
	infoBuffer  bytes.Buffer
	errorBuffer bytes.Buffer
}

func (logger *FakeLogger) Init(info logr.RuntimeInfo) {}
func (logger *FakeLogger) Enabled(lvl int) bool       { return true }
func (logger *FakeLogger) Info(lvl int, msg string, keysAndValues ...interface{}) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.infoBuffer.WriteString(msg)
}
func (logger *FakeLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.errorBuffer.WriteString(msg)
}
func (logger *FakeLogger) WithValues(keysAndValues ...interface{}) logr.LogSink { return logger }
func (logger *FakeLogger) WithName(name string) logr.LogSink                    { return logger }
func (logger *FakeLogger) GetLog() string {
	logger.mu.Lock()
	defer logger.mu.Unlock()

	return logger.infoBuffer.String()
}

var _ logr.LogSink = (*FakeLogger)(nil)

func TestWorkerPool_Defaults(t *testing.T) {
	wp := workerpool.NewWorkerPool(workerpool.PoolOptions{})
	assert.Equal(t, 10, wp.WorkerCount)
	assert.Equal(t, 100, wp.QueueSize)
}

func TestWorkerPool_StartAndStop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		fakeLogger := &FakeLogger{}
		logger := logr.New(fakeLogger)

		wp := workerpool.NewWorkerPool(workerpool.PoolOptions{
			WorkerCount: 3,
			QueueSize:   10,
			Logger:      logger,
		})

		done := make(chan struct{})
		go func() {
			_ = wp.Start(ctx)
			close(done)
		}()

		// Wait for workers to start
		synctest.Wait()

		// Cancel context to stop workers
		cancel()

		// Wait for workers to stop
		synctest.Wait()
		<-done

		assert.Contains(t, fakeLogger.GetLog(), "worker stopped")
		assert.Contains(t, fakeLogger.GetLog(), "worker pool shutdown complete")
	})
}

func TestWorkerPool_RunsItems(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		wp := workerpool.NewWorkerPool(workerpool.PoolOptions{WorkerCount: 2, QueueSize: 20})
		go func() { _ = wp.Start(ctx) }()

		var ran atomic.Int32
		for i := range 10 {
			err := wp.Enqueue(&workerpool.WorkItem{
				Key:  fmt.Sprintf("batch-%d", i),
				Size: 1,
				Run: func(ctx context.Context) {
					time.Sleep(10 * time.Millisecond)
					ran.Add(1)
				},
			})
			require.NoError(t, err)
		}

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, int32(10), ran.Load())
	})
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		wp := workerpool.NewWorkerPool(workerpool.PoolOptions{WorkerCount: 2, QueueSize: 20})
		go func() { _ = wp.Start(ctx) }()

		var current, peak atomic.Int32
		for range 6 {
			require.NoError(t, wp.Enqueue(&workerpool.WorkItem{
				Run: func(ctx context.Context) {
					n := current.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(time.Second)
					current.Add(-1)
				},
			}))
		}

		synctest.Wait()
		time.Sleep(5 * time.Second)
		synctest.Wait()
		assert.Equal(t, int32(2), peak.Load())
		assert.Equal(t, int32(0), current.Load())
	})
}

func TestWorkerPool_QueueFull(t *testing.T) {
	wp := workerpool.NewWorkerPool(workerpool.PoolOptions{WorkerCount: 1, QueueSize: 1})

	// not started, so nothing drains the queue
	require.NoError(t, wp.Enqueue(&workerpool.WorkItem{Run: func(context.Context) {}}))
	err := wp.Enqueue(&workerpool.WorkItem{Run: func(context.Context) {}})
	assert.ErrorIs(t, err, workerpool.ErrQueueFull)
}

func TestWorkerPool_AbortsOnShutdown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())

		wp := workerpool.NewWorkerPool(workerpool.PoolOptions{WorkerCount: 1, QueueSize: 10})

		var aborted atomic.Int32
		release := make(chan struct{})
		require.NoError(t, wp.Enqueue(&workerpool.WorkItem{
			Run: func(context.Context) { <-release },
		}))
		for range 3 {
			require.NoError(t, wp.Enqueue(&workerpool.WorkItem{
				Run: func(context.Context) { t.Error("must not run after shutdown") },
				Abort: func(err error) {
					assert.ErrorIs(t, err, workerpool.ErrPoolStopped)
					aborted.Add(1)
				},
			}))
		}

		done := make(chan struct{})
		go func() {
			_ = wp.Start(ctx)
			close(done)
		}()

		// the single worker is blocked in the first item
		synctest.Wait()
		cancel()
		close(release)
		<-done

		assert.Equal(t, int32(3), aborted.Load())
		assert.ErrorIs(t, wp.Enqueue(&workerpool.WorkItem{}), workerpool.ErrPoolStopped)
	})
}
