package logging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ErrInvalidLevel is returned when a log level is neither numeric nor a known name.
var ErrInvalidLevel = errors.New("invalid log level")

// Numeric levels as written in the config file.
const (
	LevelDebug    = 10
	LevelInfo     = 20
	LevelWarning  = 30
	LevelError    = 40
	LevelCritical = 50
)

// ParseLevel converts a configured level to a zap level. Numbers are
// thresholds: a value between two named levels enables the higher one, so 25
// behaves like WARNING. Names are case-insensitive.
func ParseLevel(raw string) (zapcore.Level, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return fromNumeric(n), nil
	}

	switch strings.ToUpper(s) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARNING", "WARN":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return zapcore.DPanicLevel, nil
	}
	return zapcore.InvalidLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, raw)
}

func fromNumeric(n int) zapcore.Level {
	switch {
	case n <= LevelDebug:
		return zapcore.DebugLevel
	case n <= LevelInfo:
		return zapcore.InfoLevel
	case n <= LevelWarning:
		return zapcore.WarnLevel
	case n <= LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.DPanicLevel
	}
}

// LevelName returns the display name used in log lines.
func LevelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return "INFO"
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

func levelNameEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(LevelName(l))
}
