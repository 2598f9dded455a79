package application

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/eugenenazirov/seqforge/internal/api"
	"github.com/eugenenazirov/seqforge/internal/bootstrap"
)

// App encapsulates the diagnostic handler and HTTP server.
type App struct {
	env     *bootstrap.Environment
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	listener net.Listener
}

// New builds the diagnostic server for env. Requests are logged through the
// bootstrapped logger.
func New(env *bootstrap.Environment, cfg ServerConfig) (*App, error) {
	if env == nil {
		return nil, errors.New("environment is not bootstrapped")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	logger := env.Logger()
	handler := api.NewHandler(SourceFor(env))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		env:     env,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// SourceFor exposes env to the diagnostic handlers.
func SourceFor(env *bootstrap.Environment) api.Source {
	return api.Source{
		Snapshot:   env.Snapshot,
		ConfigPath: env.ConfigPath,
		Probe:      env.Probe,
		Environ:    env.Environ,
	}
}

// BuildRootHandler mounts the API under /api/ and answers everything else
// with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start binds the listen address and serves in a goroutine. Bind failures,
// such as a port already in use, are returned to the caller.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln

	a.logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("config", a.env.ConfigPath),
	)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded, or the configured one.
func (a *App) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.server.Addr
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root handler served by the app.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
