package bootstrap

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/seqforge/internal/config"
	"github.com/eugenenazirov/seqforge/internal/features"
	"github.com/eugenenazirov/seqforge/internal/logging"
	"github.com/eugenenazirov/seqforge/internal/platform"
	"github.com/eugenenazirov/seqforge/internal/storage"
)

// ErrPanic marks a bootstrap step that panicked.
var ErrPanic = errors.New("bootstrap step panicked")

// DefaultAppName names the config file, the log file and the variable prefix.
const DefaultAppName = "seqforge"

// Options are the inputs of a bootstrap run. Zero values select the host
// defaults.
type Options struct {
	// AppName defaults to DefaultAppName.
	AppName string
	// Prefix of the environment variables; defaults to AppName.
	Prefix string
	// Paths resolves the platform directories; defaults to platform.Host().
	Paths platform.Resolver
	// Env is read for overrides and receives the resolved values; defaults
	// to the process environment.
	Env config.Environment
	// Loggers defaults to the process-wide registry.
	Loggers *logging.Registry
	// Features builds the probed features from the snapshot; defaults to
	// features.Defaults.
	Features func(*config.Snapshot) []features.Feature
}

func (o Options) withDefaults() Options {
	if o.AppName == "" {
		o.AppName = DefaultAppName
	}
	if o.Prefix == "" {
		o.Prefix = o.AppName
	}
	if o.Paths == nil {
		o.Paths = platform.Host()
	}
	if o.Env == nil {
		o.Env = config.OSEnvironment{}
	}
	if o.Loggers == nil {
		o.Loggers = logging.Default()
	}
	if o.Features == nil {
		o.Features = features.Defaults
	}
	return o
}

// Environment is the outcome of a successful bootstrap. It is read-only and
// shared by every consumer.
type Environment struct {
	AppName    string
	ConfigPath string
	// Created reports whether this run wrote the config file.
	Created   bool
	Platform  platform.Paths
	Snapshot  *config.Snapshot
	Persisted *storage.Config
	Log       *logging.Handle
	Features  []features.Set
	Stage     Stage

	features []features.Feature
	vars     config.Environment
}

// Logger returns the process logger.
func (e *Environment) Logger() *zap.Logger { return e.Log.Logger() }

// Environ lists the environment the run resolved against and wrote to.
func (e *Environment) Environ() []string { return e.vars.Environ() }

// Probe evaluates the configured features again without logging.
func (e *Environment) Probe() []features.Set {
	out := make([]features.Set, 0, len(e.features))
	for _, f := range e.features {
		out = append(out, features.Evaluate(f))
	}
	return out
}

// Run performs one complete bootstrap pass. It is not guarded; use Init or a
// Bootstrapper for once-only semantics.
func Run(opts Options) (_ *Environment, err error) {
	opts = opts.withDefaults()
	env := &Environment{AppName: opts.AppName, Stage: StageUninitialized, vars: opts.Env}

	// A panicking resolver or feature builder fails the stage being attempted.
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: env.Stage + 1, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	fail := func(stage Stage, err error) (*Environment, error) {
		return nil, &StageError{Stage: stage, Err: err}
	}

	// ConfigLoaded
	paths, err := opts.Paths.Resolve(opts.AppName)
	if err != nil {
		return fail(StageConfigLoaded, fmt.Errorf("resolve platform paths: %w", err))
	}
	env.Platform = paths

	resolver := config.NewResolver(opts.Prefix, opts.Env)
	configDir, configDirSource := resolver.ConfigDir(paths.ConfigDir)
	if err := storage.EnsureDir(configDir); err != nil {
		return fail(StageConfigLoaded, err)
	}

	defaults := config.Defaults(paths)
	env.ConfigPath = filepath.Join(configDir, opts.AppName+".ini")
	persisted, created, err := storage.LoadOrCreate(env.ConfigPath, toPairs(defaults))
	if err != nil {
		return fail(StageConfigLoaded, err)
	}
	env.Persisted = persisted
	env.Created = created
	env.Stage = StageConfigLoaded

	// EnvironmentResolved
	snap, err := resolver.Snapshot(configDir, configDirSource, persisted, defaults)
	if err != nil {
		return fail(StageEnvironmentResolved, err)
	}
	env.Snapshot = snap
	env.Stage = StageEnvironmentResolved

	// DirectoriesEnsured
	if err := storage.EnsureDirs(snap.ConfigDir(), snap.LogDir(), snap.DataDir()); err != nil {
		return fail(StageDirectoriesEnsured, err)
	}
	env.Stage = StageDirectoriesEnsured

	// LoggerReady
	level, err := logging.ParseLevel(snap.LogLevel())
	if err != nil {
		return fail(StageLoggerReady, err)
	}
	handle, err := opts.Loggers.Init(opts.AppName, level, snap.LogDir())
	if err != nil {
		return fail(StageLoggerReady, err)
	}
	env.Log = handle
	env.Stage = StageLoggerReady

	logger := handle.Logger()
	if created {
		logger.Info("created config file", zap.String("path", env.ConfigPath))
	}
	logger.Info("log directory ready", zap.String("path", snap.LogDir()))
	logger.Info("data directory ready",
		zap.String("path", snap.DataDir()),
		zap.String("variable", config.KeyDataDir.Var(opts.Prefix)),
	)

	// FeaturesProbed
	env.features = opts.Features(snap)
	env.Features = features.RunAll(logger, env.features)
	env.Stage = StageFeaturesProbed

	env.Stage = StageReady
	logger.Debug("bootstrap complete", zap.Stringer("stage", env.Stage))
	return env, nil
}

func toPairs(entries []config.Entry) []storage.Pair {
	out := make([]storage.Pair, 0, len(entries))
	for _, e := range entries {
		out = append(out, storage.Pair{Key: string(e.Key), Value: e.Value})
	}
	return out
}

// Bootstrapper runs the sequence at most once and hands every caller the
// same result.
type Bootstrapper struct {
	once sync.Once
	opts Options
	env  *Environment
	err  error
}

// New returns a Bootstrapper that will run with opts.
func New(opts Options) *Bootstrapper {
	return &Bootstrapper{opts: opts}
}

// Get runs the bootstrap on first use and returns the cached outcome
// afterwards, including a cached failure.
func (b *Bootstrapper) Get() (*Environment, error) {
	b.once.Do(func() {
		b.env, b.err = Run(b.opts)
	})
	return b.env, b.err
}

var (
	processMu sync.Mutex
	process   *Bootstrapper
)

// Init bootstraps the process. Only the options of the first call are used;
// later calls return the first result.
func Init(opts Options) (*Environment, error) {
	processMu.Lock()
	if process == nil {
		process = New(opts)
	}
	b := process
	processMu.Unlock()

	return b.Get()
}
