package resolution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"ocm.software/open-component-model/presentation/catalog"
	"ocm.software/open-component-model/presentation/resolution/workerpool"
)

const (
	// DefaultBatchDelay is how long a batch window stays open after its first reference.
	DefaultBatchDelay = 50 * time.Millisecond
	// DefaultMaxBatchSize is the maximum number of references per bulk request.
	DefaultMaxBatchSize = 100
)

var (
	// ErrItemCountMismatch is returned when the catalog answers with a different number of
	// items than references were requested.
	ErrItemCountMismatch = errors.New("catalog returned a different number of items than requested")
	// ErrFetchPanic is returned when the catalog client panics during a bulk request.
	ErrFetchPanic = errors.New("catalog client panicked")
)

// BaselineFields are requested from the catalog for every bulk request.
var BaselineFields = []string{
	"kind",
	"metadata.name",
	"metadata.namespace",
	"metadata.title",
	"metadata.description",
	"spec.profile.displayName",
	"spec.type",
}

// MemoEntry is the memoized outcome of a successful fetch.
type MemoEntry struct {
	// Entity is nil if the catalog did not know the reference.
	Entity    *catalog.Entity
	FetchedAt time.Time
}

// LoaderOptions configures the Loader.
type LoaderOptions struct {
	// BatchDelay is how long a window collects references. Zero or less dispatches every
	// reference on its own immediately.
	BatchDelay time.Duration
	// MaxBatchSize seals a window as soon as it holds this many references.
	MaxBatchSize int
	// Fields are requested in addition to BaselineFields.
	Fields []string
	// MemoTTL is the lifetime of memoized outcomes if Memo is not set.
	MemoTTL time.Duration
	// Memo stores outcomes of successful fetches. Built from MemoTTL if nil.
	Memo *expirable.LRU[string, *MemoEntry]
	// Cache receives every successful outcome. Optional.
	Cache *SnapshotCache
	// WorkerCount bounds the number of concurrent bulk requests.
	WorkerCount int
	// QueueSize is the number of sealed batches the worker pool buffers. Batches beyond it
	// wait in the loader until a worker is free.
	QueueSize int
	Logger    logr.Logger
}

// Loader coalesces single-reference loads into bulk catalog requests.
//
// Each reference is loaded at most once at a time: concurrent loads of the same reference
// share one outcome, whether the reference still waits in an open window or its batch is
// already in flight. Successful outcomes, found or not, are memoized; failures are not.
type Loader struct {
	LoaderOptions

	client catalog.Client
	fields []string
	pool   *workerpool.WorkerPool
	flight singleflight.Group

	mu      sync.Mutex
	open    *window
	seq     uint64
	backlog []*window
}

type window struct {
	id    uint64
	refs  []string
	calls []*call
	timer *time.Timer
}

func (w *window) key() string {
	return fmt.Sprintf("batch-%d", w.id)
}

type call struct {
	ref    string
	done   chan struct{}
	entity *catalog.Entity
	err    error
}

// NewLoader creates a Loader. It does not process anything until Start is called.
// A memo built from MemoTTL starts a cleanup goroutine that is never stopped.
func NewLoader(client catalog.Client, opts LoaderOptions) *Loader {
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.MemoTTL <= 0 {
		opts.MemoTTL = DefaultCacheTTL
	}
	if opts.Memo == nil {
		// size 0 keeps the memo unbounded, entries only leave by expiry
		opts.Memo = expirable.NewLRU[string, *MemoEntry](0, nil, opts.MemoTTL)
	}

	return &Loader{
		LoaderOptions: opts,
		client:        client,
		fields:        mergeFields(BaselineFields, opts.Fields),
		pool: workerpool.NewWorkerPool(workerpool.PoolOptions{
			WorkerCount: opts.WorkerCount,
			QueueSize:   opts.QueueSize,
			Logger:      opts.Logger.WithName("workerpool"),
		}),
	}
}

// Start runs the workers executing bulk requests and blocks until ctx is cancelled.
// Batches still waiting at shutdown resolve all their callers to absent.
func (l *Loader) Start(ctx context.Context) error {
	err := l.pool.Start(ctx)

	l.mu.Lock()
	backlog := l.backlog
	l.backlog = nil
	BacklogSizeGauge.Set(0)
	l.mu.Unlock()

	for _, w := range backlog {
		l.fail(w.key(), w, workerpool.ErrPoolStopped)
	}
	return err
}

// Fields returns the projection sent with every bulk request.
func (l *Loader) Fields() []string {
	return append([]string(nil), l.fields...)
}

// Load returns the entity for the canonical reference ref.
// The boolean is false if the catalog does not know the reference, the bulk request failed,
// or ctx ended before the outcome was known.
func (l *Loader) Load(ctx context.Context, ref string) (*catalog.Entity, bool) {
	if entry, ok := l.Memo.Get(ref); ok {
		MemoHitCounterTotal.Inc()
		return entry.Entity, entry.Entity != nil
	}

	ch := l.flight.DoChan(ref, func() (any, error) {
		// a flight for ref may have finished between the memo lookup and joining
		if entry, ok := l.Memo.Get(ref); ok {
			MemoHitCounterTotal.Inc()
			return entry, nil
		}
		c := l.enqueue(ref)
		<-c.done
		if c.err != nil {
			return nil, c.err
		}
		return &MemoEntry{Entity: c.entity}, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			SharedLoadCounterTotal.Inc()
		}
		if res.Err != nil {
			return nil, false
		}
		entry := res.Val.(*MemoEntry)
		return entry.Entity, entry.Entity != nil
	case <-ctx.Done():
		return nil, false
	}
}

// enqueue adds ref to the open window, opening a new one if needed.
func (l *Loader) enqueue(ref string) *call {
	c := &call{ref: ref, done: make(chan struct{})}

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.open
	if w == nil {
		l.seq++
		w = &window{id: l.seq}
		l.open = w
		if l.BatchDelay > 0 {
			w.timer = time.AfterFunc(l.BatchDelay, func() { l.fire(w) })
		}
	}

	w.refs = append(w.refs, ref)
	w.calls = append(w.calls, c)

	if l.BatchDelay <= 0 || len(w.refs) >= l.MaxBatchSize {
		l.sealLocked(w)
	}

	return c
}

// fire seals w when its delay elapsed, unless it was already sealed for being full.
func (l *Loader) fire(w *window) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open != w {
		return
	}
	l.sealLocked(w)
}

func (l *Loader) sealLocked(w *window) {
	l.open = nil
	if w.timer != nil {
		w.timer.Stop()
	}
	l.dispatch(w)
}

// dispatch hands w to the worker pool behind any batches already waiting for room.
// Must be called with l.mu held.
func (l *Loader) dispatch(w *window) {
	BatchCounterTotal.Inc()
	BatchSizeHistogram.Observe(float64(len(w.refs)))

	l.backlog = append(l.backlog, w)
	l.drainLocked()
	if len(l.backlog) > 0 {
		l.Logger.V(1).Info("worker queue is full, holding batch", "batch", w.key(), "backlog", len(l.backlog))
	}
}

// drain moves waiting batches into the worker pool once queue slots are free.
func (l *Loader) drain() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drainLocked()
}

// drainLocked enqueues waiting batches in seal order until the pool queue is full.
// A full queue keeps the batch waiting, any other enqueue error fails it.
func (l *Loader) drainLocked() {
	for len(l.backlog) > 0 {
		w := l.backlog[0]
		key := w.key()
		err := l.pool.Enqueue(&workerpool.WorkItem{
			Key:  key,
			Size: len(w.refs),
			Run: func(ctx context.Context) {
				// the worker took this batch off the queue, refill the slot
				l.drain()
				l.fetch(ctx, key, w)
				l.drain()
			},
			Abort: func(err error) { l.fail(key, w, err) },
		})
		if errors.Is(err, workerpool.ErrQueueFull) {
			break
		}
		l.backlog[0] = nil
		l.backlog = l.backlog[1:]
		if err != nil {
			l.fail(key, w, err)
		}
	}
	BacklogSizeGauge.Set(float64(len(l.backlog)))
}

func (l *Loader) fetch(ctx context.Context, key string, w *window) {
	entities, err := l.bulk(ctx, w.refs)
	if err != nil {
		l.fail(key, w, err)
		return
	}

	now := time.Now()
	for i, c := range w.calls {
		entity := entities[i]
		l.Memo.Add(c.ref, &MemoEntry{Entity: entity, FetchedAt: now})
		if l.Cache != nil {
			l.Cache.Set(c.ref, entity, now)
		}
		c.entity = entity
		close(c.done)
	}
	l.Logger.V(1).Info("fetched batch", "batch", key, "size", len(w.refs))
}

// bulk performs the catalog request for refs, returning items in request order.
func (l *Loader) bulk(ctx context.Context, refs []string) (items []*catalog.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("%w: %v", ErrFetchPanic, r)
		}
	}()

	resp, err := l.client.GetEntitiesByRefs(ctx, catalog.Request{
		EntityRefs: refs,
		Fields:     l.fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entities by refs: %w", err)
	}

	received := 0
	if resp != nil {
		received = len(resp.Items)
	}
	if received != len(refs) {
		return nil, fmt.Errorf("%w: requested %d, received %d", ErrItemCountMismatch, len(refs), received)
	}

	return resp.Items, nil
}

// fail releases every caller of w with err. Nothing is memoized or cached.
func (l *Loader) fail(key string, w *window, err error) {
	FetchFailureCounterTotal.Inc()
	l.Logger.Error(err, "failed to fetch batch", "batch", key, "size", len(w.refs))
	for _, c := range w.calls {
		c.err = err
		close(c.done)
	}
}

func mergeFields(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	fields := make([]string, 0, len(base)+len(extra))
	for _, f := range append(append([]string(nil), base...), extra...) {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	return fields
}
