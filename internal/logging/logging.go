package logging

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultMaxSizeMB caps each log file at 10 MiB.
	DefaultMaxSizeMB = 10
	// DefaultMaxBackups is the number of rotated files kept.
	DefaultMaxBackups = 10
)

// ErrEmptyName is returned when a logger is initialised without a name.
var ErrEmptyName = errors.New("logger name must not be empty")

// Handle is an initialised logger and its file sink.
type Handle struct {
	name   string
	path   string
	level  zap.AtomicLevel
	sink   *lumberjack.Logger
	logger *zap.Logger
}

// Logger returns the zap logger.
func (h *Handle) Logger() *zap.Logger { return h.logger }

// Path returns the active log file.
func (h *Handle) Path() string { return h.path }

// Level returns the current minimum level.
func (h *Handle) Level() zapcore.Level { return h.level.Level() }

// SetLevel changes the minimum level without touching the sink.
func (h *Handle) SetLevel(l zapcore.Level) { h.level.SetLevel(l) }

// Close flushes and closes the file sink.
func (h *Handle) Close() error {
	_ = h.logger.Sync()
	return h.sink.Close()
}

// Option configures a Registry.
type Option func(*Registry)

// WithRotation overrides the rotation limits (primarily for tests).
func WithRotation(maxSizeMB, maxBackups int) Option {
	return func(r *Registry) {
		r.maxSizeMB = maxSizeMB
		r.maxBackups = maxBackups
	}
}

// Registry holds at most one Handle per logger name.
type Registry struct {
	mu         sync.Mutex
	handles    map[string]*Handle
	maxSizeMB  int
	maxBackups int
}

// NewRegistry returns an empty registry with the default rotation limits.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handles:    make(map[string]*Handle),
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var process = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return process }

// Init initialises name on the process-wide registry.
func Init(name string, level zapcore.Level, logDir string) (*Handle, error) {
	return process.Init(name, level, logDir)
}

// Init returns the logger called name, writing to <logDir>/<name>.log. When
// the logger already exists only its level is updated; the existing sink is
// kept, so entries are never duplicated.
func (r *Registry) Init(name string, level zapcore.Level, logDir string) (*Handle, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(logDir, name+".log")
	if h, ok := r.handles[name]; ok {
		h.SetLevel(level)
		if h.path != path {
			h.logger.Warn("log file already attached, ignoring new location",
				zap.String("active", h.path),
				zap.String("requested", path),
			)
		}
		return h, nil
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.maxSizeMB,
		MaxBackups: r.maxBackups,
		LocalTime:  true,
	}
	// Open the file now so permission problems surface during bootstrap.
	if _, err := sink.Write(nil); err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(sink), atom)
	logger := zap.New(core, zap.AddCaller()).Named(name)

	h := &Handle{
		name:   name,
		path:   path,
		level:  atom,
		sink:   sink,
		logger: logger,
	}
	r.handles[name] = h
	return h, nil
}

// Len returns the number of attached sinks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close closes every sink and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, h := range r.handles {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(r.handles, name)
	}
	return errors.Join(errs...)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          zapcore.OmitKey,
		CallerKey:        zapcore.OmitKey,
		FunctionKey:      "func",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levelNameEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
}
