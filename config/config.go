// Package config reads resolver settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"ocm.software/open-component-model/presentation/presentation"
	"ocm.software/open-component-model/presentation/resolution"
)

const (
	// ConfigType is the only accepted value of the type field.
	ConfigType = "presentation.config.ocm.software/v1alpha1"
)

// ErrInvalidConfig is returned for configurations that fail validation.
var ErrInvalidConfig = errors.New("invalid presentation configuration")

// Duration wraps time.Duration to support JSON/YAML marshaling
// of human-readable duration strings (e.g. "30s", "50ms").
// Use as a pointer (*Duration) so that nil means "not set".
type Duration time.Duration

// NewDuration creates a pointer to a Duration set to d.
func NewDuration(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// Value returns the underlying time.Duration, 0 for nil.
func (d *Duration) Value() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: must be a duration like 30s, 50ms, or nanoseconds number: %w", value, err)
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("duration must be a duration string or nanoseconds number, got %T", v)
	}
}

// Config holds the resolver settings of a configuration file.
// Unset fields keep the defaults of resolution.DefaultOptions.
type Config struct {
	Type string `json:"type,omitempty"`

	// CacheTTL is the age after which cached entity data is refreshed.
	CacheTTL *Duration `json:"cacheTTL,omitempty"`
	// BatchDelay is how long references are collected into one bulk request.
	// "0s" dispatches every reference immediately.
	BatchDelay *Duration `json:"batchDelay,omitempty"`
	// MaxBatchSize limits the number of references per bulk request.
	MaxBatchSize *int `json:"maxBatchSize,omitempty"`
	// MaxConcurrentBatches limits the number of bulk requests in flight.
	MaxConcurrentBatches *int `json:"maxConcurrentBatches,omitempty"`
	// QueueSize is the number of sealed batches waiting for a free slot.
	QueueSize *int `json:"queueSize,omitempty"`
	// Async enables the refresh phase. Defaults to true.
	Async *bool `json:"async,omitempty"`
	// ExtraFields are requested from the catalog in addition to the baseline fields.
	ExtraFields []string `json:"extraFields,omitempty"`

	// Variant of the default renderer, "text" or "icon".
	Variant presentation.Variant `json:"variant,omitempty"`
	// DefaultKind is applied to references without a kind.
	DefaultKind string `json:"defaultKind,omitempty"`
	// DefaultNamespace is applied to references without a namespace.
	DefaultNamespace string `json:"defaultNamespace,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	cfg, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Decode parses and validates a YAML or JSON configuration.
// Unknown fields are rejected, field names must match exactly.
func Decode(data []byte) (*Config, error) {
	if err := checkFields(data); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// knownFields are the json names of the Config fields.
var knownFields = func() map[string]struct{} {
	fields := map[string]struct{}{}
	t := reflect.TypeFor[Config]()
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = struct{}{}
		}
	}
	return fields
}()

// checkFields rejects top level keys that do not exactly match a Config field.
// Decoding into Config alone would accept keys differing in case only.
func checkFields(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := knownFields[key]; !ok {
			errs = append(errs, fmt.Errorf("unknown field %q", key))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the configuration for values the resolver cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Type != "" && c.Type != ConfigType {
		errs = append(errs, fmt.Errorf("unsupported type %q, expected %q", c.Type, ConfigType))
	}
	if c.CacheTTL != nil && c.CacheTTL.Value() <= 0 {
		errs = append(errs, fmt.Errorf("cacheTTL must be positive, got %s", c.CacheTTL))
	}
	if c.BatchDelay != nil && c.BatchDelay.Value() < 0 {
		errs = append(errs, fmt.Errorf("batchDelay must not be negative, got %s", c.BatchDelay))
	}
	for name, v := range map[string]*int{
		"maxBatchSize":         c.MaxBatchSize,
		"maxConcurrentBatches": c.MaxConcurrentBatches,
		"queueSize":            c.QueueSize,
	} {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, *v))
		}
	}
	switch c.Variant {
	case "", presentation.VariantText, presentation.VariantIcon:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", presentation.ErrUnknownVariant, c.Variant))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Merge merges the provided configs into a single config.
// The last explicitly set value wins; extra fields accumulate.
func Merge(configs ...*Config) *Config {
	merged := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.Type != "" {
			merged.Type = cfg.Type
		}
		if cfg.CacheTTL != nil {
			merged.CacheTTL = cfg.CacheTTL
		}
		if cfg.BatchDelay != nil {
			merged.BatchDelay = cfg.BatchDelay
		}
		if cfg.MaxBatchSize != nil {
			merged.MaxBatchSize = cfg.MaxBatchSize
		}
		if cfg.MaxConcurrentBatches != nil {
			merged.MaxConcurrentBatches = cfg.MaxConcurrentBatches
		}
		if cfg.QueueSize != nil {
			merged.QueueSize = cfg.QueueSize
		}
		if cfg.Async != nil {
			merged.Async = cfg.Async
		}
		merged.ExtraFields = append(merged.ExtraFields, cfg.ExtraFields...)
		if cfg.Variant != "" {
			merged.Variant = cfg.Variant
		}
		if cfg.DefaultKind != "" {
			merged.DefaultKind = cfg.DefaultKind
		}
		if cfg.DefaultNamespace != "" {
			merged.DefaultNamespace = cfg.DefaultNamespace
		}
	}
	return merged
}

// Options converts the configuration into resolver options.
// A nil Config yields resolution.DefaultOptions with the default renderer.
func (c *Config) Options() resolution.Options {
	opts := resolution.DefaultOptions()
	if c == nil {
		opts.Renderer = presentation.NewDefault(presentation.VariantText)
		return opts
	}
	if c.CacheTTL != nil {
		opts.CacheTTL = c.CacheTTL.Value()
	}
	if c.BatchDelay != nil {
		opts.BatchDelay = c.BatchDelay.Value()
	}
	if c.MaxBatchSize != nil {
		opts.MaxBatchSize = *c.MaxBatchSize
	}
	if c.MaxConcurrentBatches != nil {
		opts.MaxConcurrentBatches = *c.MaxConcurrentBatches
	}
	if c.QueueSize != nil {
		opts.QueueSize = *c.QueueSize
	}
	if c.Async != nil {
		opts.Async = *c.Async
	}
	opts.ExtraFields = append([]string(nil), c.ExtraFields...)
	opts.Renderer = presentation.NewDefault(c.Variant)
	return opts
}

// Context returns the rendering context described by the configuration.
func (c *Config) Context() presentation.Context {
	if c == nil {
		return presentation.Context{}
	}
	return presentation.Context{
		Variant:          c.Variant,
		DefaultKind:      c.DefaultKind,
		DefaultNamespace: c.DefaultNamespace,
	}
}
