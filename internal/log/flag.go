// Package log configures the slog logger of the command line from flags.
package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"ocm.software/open-component-model/presentation/internal/flags/enum"
)

const (
	LevelFlag  = "loglevel"
	FormatFlag = "logformat"
	FilterFlag = "logfilter"

	FormatText = "text"
	FormatJSON = "json"
)

func RegisterLoggingFlags(flags *pflag.FlagSet) {
	enum.Var(flags, LevelFlag, []string{
		"warn",
		"debug",
		"info",
		"error",
	}, "set the log level")
	enum.VarP(flags, FormatFlag, "f", []string{FormatText, FormatJSON}, "set the log format")
	flags.StringSlice(FilterFlag, nil, `minimum level per logger name, e.g. "resolver/loader=debug"`)
}

// GetBaseLogger builds the logger described by the logging flags, writing to out.
func GetBaseLogger(flags *pflag.FlagSet, out io.Writer) (*slog.Logger, error) {
	logLevel, err := GetLoggerLevel(flags)
	if err != nil {
		return nil, err
	}

	format, err := enum.Get(flags, FormatFlag)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: logLevel,
		})
	case FormatText:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: logLevel,
		})
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	rawFilters, err := flags.GetStringSlice(FilterFlag)
	if err != nil {
		return nil, err
	}
	if len(rawFilters) > 0 {
		filters, err := KeyFiltersFromStrings(rawFilters...)
		if err != nil {
			return nil, err
		}
		handler = NewFilter(handler, LoggingKeyName, filters)
	}

	return slog.New(handler), nil
}

func GetLoggerLevel(flags *pflag.FlagSet) (slog.Level, error) {
	logLevel, err := enum.Get(flags, LevelFlag)
	if err != nil {
		return slog.LevelWarn, err
	}
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
	return level, nil
}
