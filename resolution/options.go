package resolution

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"ocm.software/open-component-model/presentation/presentation"
)

// DefaultMaxConcurrentBatches bounds parallel bulk requests.
const DefaultMaxConcurrentBatches = 10

// Options configures a Resolver. Start from DefaultOptions; zero numeric values are
// replaced by their defaults, except BatchDelay where zero dispatches immediately.
type Options struct {
	// CacheTTL is the age after which cached data is refreshed. It is also the lifetime
	// of memoized fetch outcomes.
	CacheTTL time.Duration
	// BatchDelay is how long references are collected into one bulk request.
	BatchDelay time.Duration
	// MaxBatchSize is the maximum number of references per bulk request.
	MaxBatchSize int
	// ExtraFields are requested from the catalog in addition to the baseline fields.
	ExtraFields []string
	// Renderer defaults to the text variant of presentation.Default.
	Renderer presentation.Renderer
	// Async disables the refresh phase entirely when false.
	Async bool
	// MaxConcurrentBatches bounds the number of bulk requests in flight.
	MaxConcurrentBatches int
	// QueueSize is the number of sealed batches that may wait for a free slot.
	QueueSize int
	Logger    logr.Logger
	// Memo replaces the fetch memo built from CacheTTL.
	Memo *expirable.LRU[string, *MemoEntry]
}

// DefaultOptions returns the default resolver configuration.
func DefaultOptions() Options {
	return Options{
		CacheTTL:             DefaultCacheTTL,
		BatchDelay:           DefaultBatchDelay,
		MaxBatchSize:         DefaultMaxBatchSize,
		Async:                true,
		MaxConcurrentBatches: DefaultMaxConcurrentBatches,
	}
}

func (o Options) withDefaults() Options {
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	if o.MaxConcurrentBatches <= 0 {
		o.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}
	if o.Renderer == nil {
		o.Renderer = presentation.NewDefault(presentation.VariantText)
	}
	if o.Logger.GetSink() == nil {
		o.Logger = logr.Discard()
	}
	return o
}

// fields returns the extra fields of the options and the renderer.
func (o Options) fields() []string {
	fields := append([]string(nil), o.ExtraFields...)
	if fd, ok := o.Renderer.(presentation.FieldDeclarer); ok {
		fields = append(fields, fd.ExtraFields()...)
	}
	return fields
}
