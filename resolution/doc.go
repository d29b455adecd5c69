// Package resolution resolves entity references into presentation snapshots while keeping
// round trips to the catalog to a minimum. The following actions are taken once a
// resolution request is received.
//
//	Input: Resolver.Resolve(ctx, entityRef, presentation.Context)
//		↓
//	Normalize reference
//		├─ parse failure → fallback snapshot, NoUpdate()
//		└─ canonical key (case folded)
//		  ↓
//	SnapshotCache.Get(key)
//		├─ fresh → render with cached entity, NoUpdate()
//		└─ absent or stale → render with whatever is cached, loading=true
//		  ↓
//	Loader.Load(key) (background goroutine, not cancellable)
//		├─ fetch memo hit → shared outcome, no network call
//		├─ singleflight join → shared outcome of the pending or in-flight request
//		└─ join the open batch window (timer armed on first key)
//		  ↓
//	window sealed (timer fired or MaxBatchSize reached)
//		├─ WorkerPool.Enqueue(batch)
//		└─ worker: catalog.Client.GetEntitiesByRefs(refs, fields)
//		  ↓
//	Distribute results positionally
//		├─ success → memo + SnapshotCache written, callers released
//		└─ failure → every caller of the batch sees "absent"
//		  ↓
//	Re-render with the fresh entity and publish once on the Update
//
// Two caches with different lifetimes are involved and must not be merged. The
// SnapshotCache is owned by the Resolver, keeps the last known data for every reference
// forever and only judges it stale after CacheTTL. The fetch memo is owned by the Loader,
// expires entries on its own after the same TTL, and only exists to suppress repeated bulk
// calls for references that were fetched recently.
//
// Failed bulk calls are not retried. They are neither memoized nor written to the
// SnapshotCache, so the next resolution of the same reference naturally tries again.
package resolution
