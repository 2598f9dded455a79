package application

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/seqforge/internal/bootstrap"
	"github.com/eugenenazirov/seqforge/internal/config"
	"github.com/eugenenazirov/seqforge/internal/features"
	"github.com/eugenenazirov/seqforge/internal/logging"
	"github.com/eugenenazirov/seqforge/internal/platform"
)

func TestNewInitializesDependencies(t *testing.T) {
	env := bootstrapTestEnv(t)

	app, err := New(env, baseTestConfig(":8085"))
	require.NoError(t, err)

	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	assert.Equal(t, ":8085", app.Server().Addr)
}

func TestNewRejectsMissingEnvironment(t *testing.T) {
	_, err := New(nil, baseTestConfig(":0"))
	require.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.RateLimitRPS = -1

	_, err := New(bootstrapTestEnv(t), cfg)
	require.ErrorIs(t, err, ErrInvalidRateLimit)
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		want   error
	}{
		{name: "defaults", mutate: func(*ServerConfig) {}},
		{name: "disabled rate limit", mutate: func(c *ServerConfig) { c.RateLimitRPS, c.RateLimitBurst = 0, 0 }},
		{name: "negative burst", mutate: func(c *ServerConfig) { c.RateLimitBurst = -1 }, want: ErrInvalidRateLimit},
		{name: "zero grace period", mutate: func(c *ServerConfig) { c.ShutdownGracePeriod = 0 }, want: ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	assert.Equal(t, ":8080", DefaultServerConfig().Addr())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Port: "127.0.0.1:9000"}.Addr())
}

func TestRootHandlerServesDiagnostics(t *testing.T) {
	env := bootstrapTestEnv(t)
	app, err := New(env, baseTestConfig(":0"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/paths", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var paths map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&paths))
	assert.Equal(t, env.ConfigPath, paths["configFile"])
	assert.Equal(t, env.Snapshot.DataDir(), paths["dataDir"])

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceForProbesLiveFeatures(t *testing.T) {
	env := bootstrapTestEnv(t)

	src := SourceFor(env)
	sets := src.Probe()
	require.Len(t, sets, 1)
	assert.Equal(t, "probe", sets[0].Feature)
	assert.Contains(t, src.Environ(), "seqforge_email=someone@example.com")
}

func TestStartServesOnBoundAddress(t *testing.T) {
	app, err := New(bootstrapTestEnv(t), baseTestConfig("127.0.0.1:0"))
	require.NoError(t, err)

	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Server().Close() })

	resp, err := http.Get("http://" + app.Addr() + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartReportsPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	app, err := New(bootstrapTestEnv(t), baseTestConfig(busy.Addr().String()))
	require.NoError(t, err)

	err = app.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.EADDRINUSE)
	assert.Contains(t, err.Error(), busy.Addr().String())
}

func bootstrapTestEnv(t *testing.T) *bootstrap.Environment {
	t.Helper()
	root := t.TempDir()
	registry := logging.NewRegistry()
	t.Cleanup(func() { _ = registry.Close() })

	env, err := bootstrap.Run(bootstrap.Options{
		Paths: platform.Static(platform.Paths{
			ConfigDir: filepath.Join(root, "config"),
			DataDir:   filepath.Join(root, "data"),
			LogDir:    filepath.Join(root, "log"),
		}),
		Env:     config.NewMapEnvironment(nil),
		Loggers: registry,
		Features: func(*config.Snapshot) []features.Feature {
			return []features.Feature{{Name: "probe", Probes: []features.Probe{features.Static("x", true)}}}
		},
	})
	require.NoError(t, err)
	return env
}

func baseTestConfig(port string) ServerConfig {
	return ServerConfig{
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
