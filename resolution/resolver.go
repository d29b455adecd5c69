package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"ocm.software/open-component-model/presentation/catalog"
	"ocm.software/open-component-model/presentation/presentation"
	"ocm.software/open-component-model/presentation/ref"
)

// ErrRenderPanic is reported when a renderer panics.
var ErrRenderPanic = errors.New("renderer panicked")

// Resolver turns entity references into snapshots. It answers every request immediately
// from what is known and, if the data is missing or stale, refreshes it in the background
// and delivers the new snapshot on the returned Update.
//
// The Resolver is safe for concurrent use. It requires Start to run for any fetch to happen.
type Resolver struct {
	opts   Options
	cache  *SnapshotCache
	loader *Loader
	logger logr.Logger
}

// NewResolver creates a resolver reading from client.
//
// Unless opts.Memo is set, the resolver owns an expiring memo whose cleanup goroutine runs
// until the process exits. Create one resolver per catalog and share it.
func NewResolver(client catalog.Client, opts Options) *Resolver {
	opts = opts.withDefaults()
	cache := NewSnapshotCache(opts.CacheTTL)

	return &Resolver{
		opts:   opts,
		cache:  cache,
		logger: opts.Logger,
		loader: NewLoader(client, LoaderOptions{
			BatchDelay:   opts.BatchDelay,
			MaxBatchSize: opts.MaxBatchSize,
			Fields:       opts.fields(),
			MemoTTL:      opts.CacheTTL,
			Memo:         opts.Memo,
			Cache:        cache,
			WorkerCount:  opts.MaxConcurrentBatches,
			QueueSize:    opts.QueueSize,
			Logger:       opts.Logger.WithName("loader"),
		}),
	}
}

// Start processes bulk requests until ctx is cancelled.
func (r *Resolver) Start(ctx context.Context) error {
	r.logger.Info("starting resolver", "cacheTTL", r.opts.CacheTTL, "batchDelay", r.opts.BatchDelay,
		"maxBatchSize", r.opts.MaxBatchSize, "async", r.opts.Async && r.opts.Renderer.Async())
	return r.loader.Start(ctx)
}

// Cache returns the snapshot cache of the resolver.
func (r *Resolver) Cache() *SnapshotCache {
	return r.cache
}

// Loader returns the loader that batches catalog requests.
func (r *Resolver) Loader() *Loader {
	return r.loader
}

// Resolve renders entityRef from the data currently known and schedules a refresh if that
// data is missing or stale.
//
// The returned Update emits at most one follow-up snapshot. The refresh is not cancelled
// when ctx ends; callers that lose interest simply stop reading the Update.
func (r *Resolver) Resolve(ctx context.Context, entityRef string, rctx presentation.Context) (presentation.Snapshot, *Update) {
	logger := r.logger.WithValues("entityRef", entityRef)

	parsed, err := ref.Parse(entityRef,
		ref.WithDefaultKind(rctx.DefaultKind),
		ref.WithDefaultNamespace(rctx.DefaultNamespace),
	)
	if err != nil {
		NormalizationFailureCounterTotal.Inc()
		logger.V(1).Info("could not normalize entity reference", "error", err.Error())
		return presentation.Fallback(entityRef), NoUpdate()
	}

	key := parsed.Canonical()
	display := parsed.String()
	kind := ref.Fold(parsed.Kind)

	var known *catalog.Entity
	stale := true
	if entry, ok := r.cache.Get(key); !ok {
		CacheMissCounterTotal.WithLabelValues(kind).Inc()
	} else {
		known = entry.Entity
		if stale = r.cache.IsStale(entry, time.Now()); stale {
			CacheStaleCounterTotal.WithLabelValues(kind).Inc()
		} else {
			CacheHitCounterTotal.WithLabelValues(kind).Inc()
		}
	}

	loading := stale && r.opts.Async && r.opts.Renderer.Async()

	snapshot, loadEntity := r.render(logger, entityRef, presentation.Input{
		EntityRef: display,
		Loading:   loading,
		Entity:    known,
		Context:   rctx,
	}, loading)

	if !loading || !loadEntity {
		return snapshot, NoUpdate()
	}

	update := newUpdate()
	go r.refresh(context.WithoutCancel(ctx), logger, key, entityRef, display, rctx, update)
	return snapshot, update
}

// ResolveEntity renders an entity that the caller already holds.
// Nothing is fetched or cached.
func (r *Resolver) ResolveEntity(entity *catalog.Entity, rctx presentation.Context) presentation.Snapshot {
	if entity == nil {
		return presentation.Snapshot{}
	}
	display := entity.Ref().String()
	snapshot, _ := r.render(r.logger.WithValues("entityRef", display), display, presentation.Input{
		EntityRef: display,
		Entity:    entity,
		Context:   rctx,
	}, false)
	return snapshot
}

// refresh loads fresh data for key and publishes the re-rendered snapshot on update.
func (r *Resolver) refresh(ctx context.Context, logger logr.Logger, key, entityRef, display string,
	rctx presentation.Context, update *Update,
) {
	defer update.complete()

	entity, found := r.loader.Load(ctx, key)
	if !found {
		logger.V(1).Info("no fresh data for entity reference")
		return
	}

	snapshot, _ := r.render(logger, entityRef, presentation.Input{
		EntityRef: display,
		Entity:    entity,
		Context:   rctx,
	}, false)

	UpdatesPublishedCounterTotal.Inc()
	update.publish(snapshot)
}

// render invokes the renderer. Errors and panics produce the raw reference fallback and
// keep loadOnFailure as the load decision.
func (r *Resolver) render(logger logr.Logger, entityRef string, in presentation.Input, loadOnFailure bool) (presentation.Snapshot, bool) {
	res, err := r.safeRender(in)
	if err != nil {
		RenderFailureCounterTotal.Inc()
		logger.Error(err, "failed to render entity reference, falling back to raw reference")
		return presentation.Fallback(entityRef), loadOnFailure
	}
	return res.Snapshot, res.LoadEntity
}

func (r *Resolver) safeRender(in presentation.Input) (res presentation.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = presentation.Result{}, fmt.Errorf("%w: %v", ErrRenderPanic, p)
		}
	}()
	return r.opts.Renderer.Render(in)
}
