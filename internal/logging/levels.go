package logging

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ErrInvalidLogLevel is returned when a level name is not recognised.
var ErrInvalidLogLevel = errors.New("logging: invalid log level")

// String renders the severity label used in console output.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "INFO"
	}
}

// ParseLevel maps a level name to a Level. Syslog style names used by
// upstream content systems are folded onto the closest severity.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "notice":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "critical", "alert", "emergency":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, goerrors.Wrap(
			fmt.Errorf("%w: %q", ErrInvalidLogLevel, name),
			goerrors.CategoryValidation,
			"unsupported log level",
		).WithTextCode("LOG_LEVEL_INVALID")
	}
}

// Log writes msg at the named level. Unknown level names are rejected with
// ErrInvalidLogLevel and nothing is logged.
func Log(logger interfaces.Logger, level string, msg string, args ...any) error {
	parsed, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if logger == nil {
		return nil
	}
	switch parsed {
	case LevelTrace:
		logger.Trace(msg, args...)
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	case LevelFatal:
		logger.Fatal(msg, args...)
	}
	return nil
}
