package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/presentation/config"
	"ocm.software/open-component-model/presentation/presentation"
	"ocm.software/open-component-model/presentation/resolution"
)

func TestDecode(t *testing.T) {
	cfg, err := config.Decode([]byte(`
type: presentation.config.ocm.software/v1alpha1
cacheTTL: 1m
batchDelay: 0s
maxBatchSize: 25
async: false
extraFields:
  - metadata.labels
variant: icon
defaultKind: component
defaultNamespace: payments
`))
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, time.Minute, opts.CacheTTL)
	assert.Equal(t, time.Duration(0), opts.BatchDelay)
	assert.Equal(t, 25, opts.MaxBatchSize)
	assert.Equal(t, resolution.DefaultMaxConcurrentBatches, opts.MaxConcurrentBatches)
	assert.False(t, opts.Async)
	assert.Equal(t, []string{"metadata.labels"}, opts.ExtraFields)
	assert.Equal(t, presentation.NewDefault(presentation.VariantIcon), opts.Renderer)

	assert.Equal(t, presentation.Context{
		Variant:          presentation.VariantIcon,
		DefaultKind:      "component",
		DefaultNamespace: "payments",
	}, cfg.Context())
}

func TestDecode_JSONWithNanoseconds(t *testing.T) {
	cfg, err := config.Decode([]byte(`{"cacheTTL": 5000000000, "batchDelay": "10ms"}`))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL.Value())
	assert.Equal(t, 10*time.Millisecond, cfg.BatchDelay.Value())
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := config.Decode([]byte(`{}`))
	require.NoError(t, err)

	opts := cfg.Options()
	def := resolution.DefaultOptions()
	assert.Equal(t, def.CacheTTL, opts.CacheTTL)
	assert.Equal(t, def.BatchDelay, opts.BatchDelay)
	assert.Equal(t, def.MaxBatchSize, opts.MaxBatchSize)
	assert.True(t, opts.Async)

	var nilCfg *config.Config
	assert.Equal(t, def.CacheTTL, nilCfg.Options().CacheTTL)
	assert.Equal(t, presentation.Context{}, nilCfg.Context())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{name: "unknown field", data: `cacheSize: 10`, msg: `unknown field "cacheSize"`},
		{name: "field differing in case", data: `cacheTtl: 1m`, msg: `unknown field "cacheTtl"`},
		{name: "upper case field", data: "maxBatchSize: 10\nBATCHDELAY: 5ms", msg: `unknown field "BATCHDELAY"`},
		{name: "field in json", data: `{"CacheTTL": "1m"}`, msg: `unknown field "CacheTTL"`},
		{name: "bad duration", data: `cacheTTL: soon`, msg: "invalid duration"},
		{name: "zero ttl", data: `cacheTTL: 0s`, msg: "cacheTTL must be positive"},
		{name: "negative delay", data: `batchDelay: -1s`, msg: "batchDelay must not be negative"},
		{name: "zero batch size", data: `maxBatchSize: 0`, msg: "maxBatchSize must be positive"},
		{name: "unknown variant", data: `variant: emoji`, msg: "emoji"},
		{name: "foreign type", data: `type: http.config.ocm.software`, msg: "unsupported type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Decode([]byte(tc.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	_, err := config.Decode([]byte(`variant: emoji`))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, presentation.ErrUnknownVariant)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presentation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxConcurrentBatches: 3\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Options().MaxConcurrentBatches)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	size := 10
	merged := config.Merge(
		&config.Config{CacheTTL: config.NewDuration(time.Minute), ExtraFields: []string{"a"}, Variant: presentation.VariantIcon},
		nil,
		&config.Config{MaxBatchSize: &size, ExtraFields: []string{"b"}},
		&config.Config{CacheTTL: config.NewDuration(time.Hour)},
	)
	assert.Equal(t, time.Hour, merged.CacheTTL.Value())
	assert.Equal(t, 10, *merged.MaxBatchSize)
	assert.Equal(t, []string{"a", "b"}, merged.ExtraFields)
	assert.Equal(t, presentation.VariantIcon, merged.Variant)
	assert.Nil(t, merged.BatchDelay)
}

func TestDuration(t *testing.T) {
	var d *config.Duration
	assert.Equal(t, time.Duration(0), d.Value())
	assert.Equal(t, "1m30s", config.NewDuration(90*time.Second).String())
}
