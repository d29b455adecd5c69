package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LoggingKeyName is the attribute logr uses for the name of a logger bridged to slog.
const LoggingKeyName = "logger"

// filter wraps a slog.Handler and drops records below the minimum level of their key value.
type filter struct {
	handler slog.Handler
	filters map[string]slog.Level
	key     string
	// preset is the key value fixed through WithAttrs, if any.
	preset string
}

// NewFilter creates a handler that drops records whose key attribute maps to a higher
// minimum level than the record level. Records without the key pass unchanged.
func NewFilter(handler slog.Handler, key string, filters map[string]slog.Level) slog.Handler {
	return &filter{
		handler: handler,
		filters: filters,
		key:     key,
	}
}

func (f *filter) Enabled(ctx context.Context, level slog.Level) bool {
	if f.handler.Enabled(ctx, level) {
		return true
	}
	// a filter may lower the level for a single logger
	for _, minLevel := range f.filters {
		if level >= minLevel {
			return true
		}
	}
	return false
}

func (f *filter) WithAttrs(attrs []slog.Attr) slog.Handler {
	preset := f.preset
	if preset == "" {
		for _, attr := range attrs {
			if attr.Key == f.key {
				preset = attr.Value.String()
				break
			}
		}
	}
	return &filter{
		handler: f.handler.WithAttrs(attrs),
		filters: f.filters,
		key:     f.key,
		preset:  preset,
	}
}

func (f *filter) WithGroup(name string) slog.Handler {
	return &filter{
		handler: f.handler.WithGroup(name),
		filters: f.filters,
		key:     f.key,
		preset:  f.preset,
	}
}

func (f *filter) Handle(ctx context.Context, record slog.Record) error {
	value := f.preset
	if value == "" {
		value = f.valueFromRecord(record)
	}

	if minLevel, ok := f.filters[value]; ok {
		if record.Level < minLevel {
			return nil
		}
		return f.handler.Handle(ctx, record)
	}

	if !f.handler.Enabled(ctx, record.Level) {
		return nil
	}
	return f.handler.Handle(ctx, record)
}

func (f *filter) valueFromRecord(record slog.Record) string {
	var value string
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == f.key {
			value = attr.Value.String()
			return false
		}
		return true
	})
	return value
}

// KeyFiltersFromStrings parses filters in the format "key=level".
//
//	filters, err := KeyFiltersFromStrings("resolver/loader=debug", "resolver/loader/workerpool=error")
func KeyFiltersFromStrings(raw ...string) (map[string]slog.Level, error) {
	filters := make(map[string]slog.Level, len(raw))

	for _, filter := range raw {
		key, levelStr, found := strings.Cut(filter, "=")
		if !found {
			return nil, fmt.Errorf("invalid filter format: %s, expected key=value", filter)
		}

		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("invalid log level in filter %s: %w", filter, err)
		}

		filters[key] = level
	}

	return filters, nil
}
