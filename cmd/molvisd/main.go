// Package main implements the entry point for the molvisd bridge daemon.
// molvisd hosts molecular visualization scenes and bridges drawing commands
// to browser renderers over WebSocket, with an optional NATS transport for
// brokered deployments.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Roy-Kid/molvis/config"
	"github.com/Roy-Kid/molvis/metric"
	"github.com/Roy-Kid/molvis/registry"
	"github.com/Roy-Kid/molvis/scene"
	"github.com/Roy-Kid/molvis/transport/natsrpc"
	"github.com/Roy-Kid/molvis/transport/ws"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "molvisd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting molvisd",
		"version", Version,
		"build_time", BuildTime,
		"listen", cfg.Listen,
		"ws_path", cfg.WSPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

// serve wires the transport, metrics, and default scene, then blocks until
// shutdown.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metricsRegistry := metric.NewMetricsRegistry()

	transport := ws.New(cfg.Listen, cfg.WSPath, ws.WithLogger(logger))
	if cfg.MetricsPath != "" {
		transport.RegisterHandler(cfg.MetricsPath,
			promhttp.HandlerFor(metricsRegistry.PrometheusRegistry(), promhttp.HandlerOpts{}))
	}

	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("start websocket transport: %w", err)
	}
	slog.Info("WebSocket transport listening", "addr", transport.Addr(), "path", cfg.WSPath)

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return fmt.Errorf("parse timeout: %w", err)
	}

	reg := registry.NewRegistry(registry.WithLogger(logger))

	defaultScene, err := scene.New(cfg.DefaultScene, transport,
		scene.WithLogger(logger),
		scene.WithMetrics(metricsRegistry.CoreMetrics()),
		scene.WithTimeout(timeout),
		scene.WithBufferThreshold(cfg.BufferThreshold),
	)
	if err != nil {
		return fmt.Errorf("create scene %s: %w", cfg.DefaultScene, err)
	}
	if err := reg.Register(defaultScene); err != nil {
		return fmt.Errorf("register scene %s: %w", defaultScene.Name(), err)
	}
	slog.Info("Default scene registered", "scene", defaultScene.Name(), "session_id", defaultScene.SessionID())

	if cfg.NATS.Enabled {
		if err := attachNATSScene(cfg, reg, logger, metricsRegistry, timeout); err != nil {
			slog.Warn("NATS scene unavailable", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Received shutdown signal")

		reg.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return transport.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("molvisd shutdown complete")
	return nil
}

// attachNATSScene creates a second scene served over the NATS broker
func attachNATSScene(
	cfg *config.Config,
	reg *registry.Registry,
	logger *slog.Logger,
	metricsRegistry *metric.MetricsRegistry,
	timeout time.Duration,
) error {
	sceneName := cfg.DefaultScene + "_nats"

	tr, err := natsrpc.Connect(cfg.NATS.URL, sceneName,
		natsrpc.WithLogger(logger),
		natsrpc.WithSubjectPrefix(cfg.NATS.SubjectPrefix),
		natsrpc.WithName(appName),
	)
	if err != nil {
		return fmt.Errorf("connect nats %s: %w", cfg.NATS.URL, err)
	}

	s, err := scene.New(sceneName, tr,
		scene.WithLogger(logger),
		scene.WithMetrics(metricsRegistry.CoreMetrics()),
		scene.WithTimeout(timeout),
		scene.WithBufferThreshold(cfg.BufferThreshold),
	)
	if err != nil {
		_ = tr.Close()
		return fmt.Errorf("create scene %s: %w", sceneName, err)
	}

	if err := reg.Register(s); err != nil {
		_ = tr.Close()
		return fmt.Errorf("register scene %s: %w", s.Name(), err)
	}
	slog.Info("NATS scene registered", "scene", s.Name(), "url", cfg.NATS.URL)
	return nil
}

// loadConfig loads configuration from disk, falling back to defaults when no
// path is given.
func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	if cliCfg.ConfigPath == "" {
		cfg := config.DefaultConfig()
		applyFlagOverrides(cfg, cliCfg)
		return cfg, nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, cliCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides lets explicit CLI flags win over file values. The
// log-level flag carries a non-empty default, so it only overrides the file
// when the user actually provided it on the command line or via environment.
func applyFlagOverrides(cfg *config.Config, cliCfg *CLIConfig) {
	if cliCfg.Listen != "" {
		cfg.Listen = cliCfg.Listen
	}
	if flagProvided("log-level") || os.Getenv("MOLVIS_LOG_LEVEL") != "" {
		cfg.LogLevel = cliCfg.LogLevel
	}
}
