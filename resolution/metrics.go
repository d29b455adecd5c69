package resolution

import (
	"ocm.software/open-component-model/presentation/internal/metrics"
)

const (
	// Subsystem is the metrics subsystem of the resolution package.
	Subsystem = "resolution"
	// KindLabel is the name of the label carrying the folded entity kind.
	KindLabel = "kind"
)

// CacheHitCounterTotal counts resolutions served from fresh cache entries.
// [kind].
var CacheHitCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	"cache_hit",
	"Number of resolutions served from a fresh snapshot cache entry.",
	KindLabel,
)

// CacheMissCounterTotal counts resolutions without any cache entry.
// [kind].
var CacheMissCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	"cache_miss",
	"Number of resolutions without a snapshot cache entry.",
	KindLabel,
)

// CacheStaleCounterTotal counts resolutions that found a stale cache entry.
// [kind].
var CacheStaleCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	"cache_stale",
	"Number of resolutions that found a stale snapshot cache entry.",
	KindLabel,
)

// MemoHitCounterTotal counts loads answered by the fetch memo.
var MemoHitCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"memo_hit",
	"Number of loads answered by the fetch memo without a bulk call.",
)

// SharedLoadCounterTotal counts loads that joined a pending or in-flight request.
var SharedLoadCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"load_shared",
	"Number of loads that shared the outcome of a pending or in-flight request.",
)

// BacklogSizeGauge tracks sealed batches waiting for room in the worker queue.
var BacklogSizeGauge = metrics.MustRegisterGauge(
	Subsystem,
	"backlog_size",
	"Number of sealed batches waiting for room in the worker queue.",
)

// BatchCounterTotal counts dispatched bulk requests.
var BatchCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"batches",
	"Number of bulk requests dispatched to the catalog.",
)

// BatchSizeHistogram tracks the number of references per bulk request.
var BatchSizeHistogram = metrics.MustRegisterHistogram(
	Subsystem,
	"batch_size",
	"Number of references per bulk request.",
	[]float64{1, 2, 5, 10, 25, 50, 100, 250},
)

// FetchFailureCounterTotal counts failed bulk requests.
var FetchFailureCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"fetch_failures",
	"Number of bulk requests that failed and resolved all callers to absent.",
)

// RenderFailureCounterTotal counts renders that failed and fell back to the raw reference.
var RenderFailureCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"render_failures",
	"Number of renders replaced by the raw reference fallback.",
)

// NormalizationFailureCounterTotal counts references that could not be parsed.
var NormalizationFailureCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"normalization_failures",
	"Number of references that could not be parsed.",
)

// UpdatesPublishedCounterTotal counts follow-up snapshots published on updates.
var UpdatesPublishedCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	"updates_published",
	"Number of follow-up snapshots published after an asynchronous refresh.",
)
