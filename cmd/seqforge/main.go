package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/seqforge/internal/application"
	"github.com/eugenenazirov/seqforge/internal/bootstrap"
	"github.com/eugenenazirov/seqforge/internal/config"
	"github.com/eugenenazirov/seqforge/internal/folder"
	"github.com/eugenenazirov/seqforge/internal/report"
)

var signalNotify = signal.Notify

func main() {
	c := &cli{
		stdout: os.Stdout,
		init:   bootstrap.Init,
		open:   folder.Open,
		cwd:    folder.OpenCurrent,
	}
	if err := c.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seqforge: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the collaborators of one invocation so tests can swap them.
type cli struct {
	stdout io.Writer
	opts   bootstrap.Options
	init   func(bootstrap.Options) (*bootstrap.Environment, error)
	open   func(path string) string
	cwd    func() string
}

func (c *cli) run(args []string) error {
	app := kingpin.New("seqforge", "Sequence toolkit environment: configuration, directories, logging and feature checks")
	configDir := app.Flag("config-dir", "Directory holding seqforge.ini").
		Envar(config.ConfigDirKey.Var(bootstrap.DefaultAppName)).String()

	envCmd := app.Command("env", "Print every seqforge_ environment variable").Default()
	envFormat := envCmd.Flag("format", "Output format").Short('o').Default(string(report.FormatTable)).Enum(report.Formats...)
	envResolved := envCmd.Flag("resolved", "Print the resolved snapshot instead of the process environment").Bool()

	pathsCmd := app.Command("paths", "Print the config file and the directories in use")
	featuresCmd := app.Command("features", "Probe the optional features")

	openCmd := app.Command("open", "Open a folder in the file manager")
	openTarget := openCmd.Arg("folder", "Folder to open").Required().Enum("config", "data", "log", "cwd")

	serveCmd := app.Command("serve", "Serve the diagnostics over HTTP")
	defaults := application.DefaultServerConfig()
	port := serveCmd.Flag("port", "HTTP port exposed by the diagnostics server").Default(defaults.Port).String()
	rateLimitRPS := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").
		Default(fmt.Sprint(defaults.RateLimitRPS)).Float64()
	rateLimitBurst := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").
		Default(fmt.Sprint(defaults.RateLimitBurst)).Int()
	grace := serveCmd.Flag("shutdown-grace", "Time allowed for in-flight requests on shutdown").
		Default(defaults.ShutdownGracePeriod.String()).Duration()
	requestLogging := serveCmd.Flag("request-logging", "Log every request").Default("true").Bool()

	cmd, err := app.Parse(args)
	if err != nil {
		return err
	}

	env, err := c.bootstrap(*configDir)
	if err != nil {
		return err
	}
	logger := env.Logger()
	defer func() {
		_ = logger.Sync()
	}()

	switch cmd {
	case envCmd.FullCommand():
		rows := report.Collect(env.Environ(), env.Snapshot.Prefix())
		if *envResolved {
			rows = report.FromSnapshot(env.Snapshot)
		}
		return report.Render(c.stdout, rows, report.Format(*envFormat))
	case pathsCmd.FullCommand():
		c.printPaths(env)
	case featuresCmd.FullCommand():
		c.printFeatures(env)
	case openCmd.FullCommand():
		if msg := c.openFolder(env, *openTarget); msg != "" {
			fmt.Fprintln(c.stdout, msg)
		}
	case serveCmd.FullCommand():
		cfg := defaults
		cfg.Port = *port
		cfg.RateLimitRPS = *rateLimitRPS
		cfg.RateLimitBurst = *rateLimitBurst
		cfg.ShutdownGracePeriod = *grace
		cfg.EnableRequestLogging = *requestLogging
		return c.serve(env, cfg)
	}
	return nil
}

// bootstrap exports an explicit --config-dir before the environment is
// resolved so it wins like any other override.
func (c *cli) bootstrap(configDir string) (*bootstrap.Environment, error) {
	opts := c.opts
	if configDir != "" {
		vars := opts.Env
		if vars == nil {
			vars = config.OSEnvironment{}
		}
		prefix := opts.Prefix
		if prefix == "" {
			prefix = bootstrap.DefaultAppName
		}
		if err := vars.Setenv(config.ConfigDirKey.Var(prefix), configDir); err != nil {
			return nil, fmt.Errorf("export config dir: %w", err)
		}
		opts.Env = vars
	}
	return c.init(opts)
}

func (c *cli) printPaths(env *bootstrap.Environment) {
	fmt.Fprintf(c.stdout, "config file: %s\n", env.ConfigPath)
	fmt.Fprintf(c.stdout, "config dir:  %s\n", env.Snapshot.ConfigDir())
	fmt.Fprintf(c.stdout, "data dir:    %s\n", env.Snapshot.DataDir())
	fmt.Fprintf(c.stdout, "log file:    %s\n", env.Log.Path())
}

func (c *cli) printFeatures(env *bootstrap.Environment) {
	for _, set := range env.Probe() {
		if missing := set.Missing(); len(missing) > 0 {
			fmt.Fprintf(c.stdout, "%s: not available (missing %s)\n", set.Feature, strings.Join(missing, ", "))
			continue
		}
		fmt.Fprintf(c.stdout, "%s: available\n", set.Feature)
	}
}

func (c *cli) openFolder(env *bootstrap.Environment, target string) string {
	switch target {
	case "config":
		return c.open(env.Snapshot.ConfigDir())
	case "data":
		return c.open(env.Snapshot.DataDir())
	case "log":
		return c.open(env.Snapshot.LogDir())
	default:
		return c.cwd()
	}
}

func (c *cli) serve(env *bootstrap.Environment, cfg application.ServerConfig) error {
	app, err := application.New(env, cfg)
	if err != nil {
		return err
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	fmt.Fprintf(c.stdout, "serving diagnostics on http://%s\n", app.Addr())

	shutdown(app.Server(), cfg.ShutdownGracePeriod, env.Logger())
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
