package workerpool

import (
	"ocm.software/open-component-model/presentation/internal/metrics"
)

const (
	// QueueSizeGaugeLabel tracks the current size of the batch queue.
	QueueSizeGaugeLabel = "queue_size"
	// InFlightGaugeLabel tracks the number of batches currently being fetched.
	InFlightGaugeLabel = "in_flight"
	// DispatchDurationHistogramLabel tracks how long a batch takes to run.
	DispatchDurationHistogramLabel = "dispatch_duration_seconds"
	// Subsystem is the metrics subsystem of the worker pool.
	Subsystem = "workerpool"
)

// QueueSizeGauge tracks the current size of the batch queue.
var QueueSizeGauge = metrics.MustRegisterGauge(
	Subsystem,
	QueueSizeGaugeLabel,
	"Current size of the batch dispatch queue.",
)

// InFlightGauge tracks the number of batches currently being fetched.
var InFlightGauge = metrics.MustRegisterGauge(
	Subsystem,
	InFlightGaugeLabel,
	"Number of batches currently being fetched.",
)

// DispatchDurationHistogram tracks how long a batch takes to run.
var DispatchDurationHistogram = metrics.MustRegisterHistogram(
	Subsystem,
	DispatchDurationHistogramLabel,
	"Duration of batch dispatches in seconds.",
	[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
)
