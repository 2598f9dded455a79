package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/seqforge/internal/config"
	"github.com/eugenenazirov/seqforge/internal/features"
	"github.com/eugenenazirov/seqforge/internal/logging"
	"github.com/eugenenazirov/seqforge/internal/platform"
	"github.com/eugenenazirov/seqforge/internal/storage"
)

type fixture struct {
	root     string
	paths    platform.Paths
	env      *config.MapEnvironment
	registry *logging.Registry
}

func newFixture(t *testing.T, vars map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	registry := logging.NewRegistry()
	t.Cleanup(func() { _ = registry.Close() })

	return &fixture{
		root: root,
		paths: platform.Paths{
			ConfigDir: filepath.Join(root, "config"),
			DataDir:   filepath.Join(root, "data"),
			LogDir:    filepath.Join(root, "log"),
		},
		env:      config.NewMapEnvironment(vars),
		registry: registry,
	}
}

func (f *fixture) options() Options {
	return Options{
		Paths:    platform.Static(f.paths),
		Env:      f.env,
		Loggers:  f.registry,
		Features: func(*config.Snapshot) []features.Feature { return nil },
	}
}

func TestRunFirstRunCreatesEverything(t *testing.T) {
	f := newFixture(t, nil)

	env, err := Run(f.options())
	require.NoError(t, err)

	assert.Equal(t, StageReady, env.Stage)
	assert.True(t, env.Created)
	assert.Equal(t, filepath.Join(f.paths.ConfigDir, "seqforge.ini"), env.ConfigPath)

	for _, dir := range []string{f.paths.ConfigDir, f.paths.DataDir, f.paths.LogDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}

	persisted, err := storage.Load(env.ConfigPath)
	require.NoError(t, err)
	pairs := persisted.Pairs()
	require.Len(t, pairs, 8)
	want := config.Defaults(f.paths)
	for i, p := range pairs {
		assert.Equal(t, string(want[i].Key), p.Key)
		assert.Equal(t, want[i].Value, p.Value)
	}

	assert.Equal(t, "30", env.Snapshot.LogLevel())
	assert.Equal(t, zapcore.WarnLevel, env.Log.Level())
	assert.Equal(t, filepath.Join(f.paths.LogDir, "seqforge.log"), env.Log.Path())
}

func TestRunExportsResolvedVariables(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_email": "me@lab.org"})

	env, err := Run(f.options())
	require.NoError(t, err)

	for _, name := range []string{
		"seqforge_config_dir", "seqforge_loglevel", "seqforge_email", "seqforge_data_dir",
		"seqforge_log_dir", "seqforge_cached_funcs", "seqforge_ape", "seqforge_primers", "seqforge_enzymes",
	} {
		got, ok := f.env.LookupEnv(name)
		require.True(t, ok, name)
		want, _ := env.Snapshot.Lookup(name)
		assert.Equal(t, want, got, name)
	}
	got, _ := f.env.LookupEnv("seqforge_email")
	assert.Equal(t, "me@lab.org", got)
	assert.Contains(t, env.Environ(), "seqforge_email=me@lab.org")
}

func TestRunEnvOverridesPersistedLogLevel(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_loglevel": "10"})
	require.NoError(t, os.MkdirAll(f.paths.ConfigDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.paths.ConfigDir, "seqforge.ini"), []byte("[main]\nloglevel = 30\n"), 0o644))

	env, err := Run(f.options())
	require.NoError(t, err)

	assert.False(t, env.Created)
	assert.Equal(t, "10", env.Snapshot.LogLevel())
	assert.Equal(t, zapcore.DebugLevel, env.Log.Level())
	assert.Equal(t, f.paths.DataDir, env.Snapshot.DataDir(), "keys missing from the file fall back to defaults")
}

func TestRunHonoursConfigDirOverride(t *testing.T) {
	f := newFixture(t, nil)
	custom := filepath.Join(f.root, "elsewhere")
	require.NoError(t, f.env.Setenv("seqforge_config_dir", custom))

	env, err := Run(f.options())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(custom, "seqforge.ini"), env.ConfigPath)
	assert.Equal(t, custom, env.Snapshot.ConfigDir())
	_, err = os.Stat(env.ConfigPath)
	assert.NoError(t, err)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_loglevel": "20"})

	first, err := Run(f.options())
	require.NoError(t, err)
	second, err := Run(f.options())
	require.NoError(t, err)

	assert.True(t, first.Snapshot.Equal(second.Snapshot))
	assert.False(t, second.Created)
	assert.Equal(t, 1, f.registry.Len())
	assert.Same(t, first.Log, second.Log)

	second.Logger().Info("single entry marker")
	require.NoError(t, second.Logger().Sync())

	data, err := os.ReadFile(first.Log.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "single entry marker"))
}

func TestRunSecondRunReadsDefaultsUnchanged(t *testing.T) {
	f := newFixture(t, nil)

	first, err := Run(f.options())
	require.NoError(t, err)

	g := newFixture(t, nil)
	opts := g.options()
	opts.Paths = platform.Static(f.paths)

	second, err := Run(opts)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.True(t, first.Snapshot.Equal(second.Snapshot))
	for _, key := range config.Keys() {
		assert.Equal(t, config.SourceConfig, second.Snapshot.Source(key), key)
	}
}

func TestRunMalformedConfigIsFatal(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.MkdirAll(f.paths.ConfigDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.paths.ConfigDir, "seqforge.ini"), []byte("not ini at all\n"), 0o644))

	env, err := Run(f.options())
	assert.Nil(t, env)
	assert.ErrorIs(t, err, storage.ErrConfigParse)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConfigLoaded, stageErr.Stage)

	_, statErr := os.Stat(f.paths.DataDir)
	assert.True(t, os.IsNotExist(statErr), "later stages must not run")
}

func TestRunPathConflictIsFatal(t *testing.T) {
	f := newFixture(t, nil)
	occupied := filepath.Join(f.root, "data-file")
	require.NoError(t, os.WriteFile(occupied, nil, 0o644))
	require.NoError(t, f.env.Setenv("seqforge_data_dir", occupied))

	_, err := Run(f.options())
	assert.ErrorIs(t, err, storage.ErrPathConflict)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageDirectoriesEnsured, stageErr.Stage)
	assert.Equal(t, 0, f.registry.Len())
}

func TestRunInvalidLogLevelIsFatal(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_loglevel": "chatty"})

	_, err := Run(f.options())
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoggerReady, stageErr.Stage)
}

func TestRunPlatformFailure(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.Paths = failingResolver{}

	_, err := Run(opts)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConfigLoaded, stageErr.Stage)
}

func TestRunProbesFeaturesIntoLog(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_loglevel": "20"})
	opts := f.options()
	opts.Features = func(*config.Snapshot) []features.Feature {
		return []features.Feature{{
			Name: "gel simulation",
			Probes: []features.Probe{
				features.Static("scipy", true),
				features.Static("numpy", false),
				features.Static("matplotlib", true),
				features.Static("mpldatacursor", false),
				features.Static("pint", true),
			},
		}}
	}

	env, err := Run(opts)
	require.NoError(t, err)
	require.NoError(t, env.Logger().Sync())

	require.Len(t, env.Features, 1)
	assert.Equal(t, []string{"numpy", "mpldatacursor"}, env.Features[0].Missing())
	assert.Len(t, env.Probe(), 1)

	data, err := os.ReadFile(env.Log.Path())
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "WARNING")
	assert.Contains(t, log, "gel simulation will NOT be available")
	assert.Contains(t, log, "numpy, mpldatacursor")
	assert.Contains(t, log, "log directory ready")
	assert.Contains(t, log, f.paths.LogDir)
	assert.Contains(t, log, "data directory ready")
}

type failingResolver struct{}

func (failingResolver) Resolve(string) (platform.Paths, error) {
	return platform.Paths{}, errors.New("no home directory")
}

type countingResolver struct {
	calls atomic.Int32
	paths platform.Paths
}

func (c *countingResolver) Resolve(string) (platform.Paths, error) {
	c.calls.Add(1)
	return c.paths, nil
}

func TestBootstrapperRunsOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t, nil)
	counter := &countingResolver{paths: f.paths}
	opts := f.options()
	opts.Paths = counter

	b := New(opts)

	const callers = 16
	results := make([]*Environment, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env, err := b.Get()
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = env
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), counter.calls.Load())
	for _, env := range results {
		assert.Same(t, results[0], env)
	}
	assert.Equal(t, 1, f.registry.Len())
}

func TestBootstrapperCachesFailure(t *testing.T) {
	f := newFixture(t, map[string]string{"seqforge_loglevel": "chatty"})
	b := New(f.options())

	_, first := b.Get()
	require.Error(t, first)

	require.NoError(t, f.env.Setenv("seqforge_loglevel", "30"))
	_, second := b.Get()
	assert.Same(t, first, second)
}

type panickingResolver struct{}

func (panickingResolver) Resolve(string) (platform.Paths, error) {
	panic("resolver exploded")
}

func TestRunTurnsPanicsIntoStageErrors(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.Paths = panickingResolver{}

	env, err := Run(opts)
	assert.Nil(t, env)
	require.ErrorIs(t, err, ErrPanic)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConfigLoaded, stageErr.Stage)
	assert.Contains(t, err.Error(), "resolver exploded")
}

func TestBootstrapperCachesPanicAsError(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.Features = func(*config.Snapshot) []features.Feature {
		panic("bad feature list")
	}
	b := New(opts)

	env, first := b.Get()
	assert.Nil(t, env)
	require.ErrorIs(t, first, ErrPanic)

	var stageErr *StageError
	require.ErrorAs(t, first, &stageErr)
	assert.Equal(t, StageFeaturesProbed, stageErr.Stage)

	env, second := b.Get()
	assert.Nil(t, env)
	assert.Same(t, first, second)
}

func TestInitUsesProcessBootstrapper(t *testing.T) {
	f := newFixture(t, nil)

	env, err := Init(f.options())
	require.NoError(t, err)

	other := newFixture(t, nil)
	again, err := Init(other.options())
	require.NoError(t, err)
	assert.Same(t, env, again)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "Ready", StageReady.String())
	assert.Equal(t, "ConfigLoaded", StageConfigLoaded.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
