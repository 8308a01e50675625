package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/lao"
	"github.com/aretw0/lao/internal/config"
	redisadapter "github.com/aretw0/lao/pkg/adapters/redis"
	"github.com/aretw0/lao/pkg/observability"
	"github.com/aretw0/lao/pkg/registry"
	"github.com/aretw0/lao/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options are the flags shared by every subcommand. Zero values keep the
// configuration file and environment settings.
type Options struct {
	ConfigPath string
	PluginsDir string
	Workers    int
	Retries    *int
	LogLevel   string
	RedisURL   string
	Debug      bool
}

// loadConfig resolves defaults, lao.yaml, environment and flags, in that order.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.PluginsDir != "" {
		cfg.PluginsDir = opts.PluginsDir
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.Retries != nil {
		cfg.Retry.Limit = *opts.Retries
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.RedisURL != "" {
		cfg.Redis.URL = opts.RedisURL
	}
	return cfg, cfg.Validate()
}

func registryOptions(cfg config.Config, logger *slog.Logger) []registry.Option {
	return []registry.Option{
		registry.WithLogger(logger),
		registry.WithBufferSize(cfg.BufferSize),
		registry.WithHandshakeTimeout(cfg.HandshakeTimeout),
	}
}

func orchestratorOptions(cfg config.Config, logger *slog.Logger, debug bool) []lao.Option {
	opts := []lao.Option{
		lao.WithLogger(logger),
		lao.WithRetryPolicy(cfg.RetryPolicy()),
		lao.WithWorkers(cfg.Workers),
	}
	if debug {
		opts = append(opts, lao.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	return opts
}

// loadRegistry loads the plugin directory, logging every skipped plugin.
func loadRegistry(ctx context.Context, cfg config.Config, logger *slog.Logger) *registry.Registry {
	reg, errs := registry.LoadAll(ctx, cfg.PluginsDir, registryOptions(cfg, logger)...)
	for _, err := range errs {
		logger.Warn("Plugin skipped", "err", err)
	}
	return reg
}

// createOrchestrator builds the single-workflow orchestrator used by run.
func createOrchestrator(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool, extra ...lao.Option) (*lao.Orchestrator, error) {
	opts := append(orchestratorOptions(cfg, logger, debug), extra...)
	opts = append(opts, lao.WithRegistryOptions(registryOptions(cfg, logger)...))

	orch, errs := lao.Open(ctx, cfg.PluginsDir, opts...)
	for _, err := range errs {
		logger.Warn("Plugin skipped", "err", err)
	}
	if orch.Registry().Len() == 0 {
		return orch, fmt.Errorf("no plugins loaded from %q", cfg.PluginsDir)
	}
	return orch, nil
}

// createManager builds the multi-workflow service used by serve and mcp.
// With a Redis URL, results and run locks are shared through Redis.
func createManager(ctx context.Context, cfg config.Config, logger *slog.Logger, debug bool, metrics *observability.Metrics) (*session.Manager, func(), error) {
	reg := loadRegistry(ctx, cfg, logger)

	orchOpts := orchestratorOptions(cfg, logger, debug)
	if metrics != nil {
		orchOpts = append(orchOpts, lao.WithLifecycleHooks(metrics.Hooks()))
	}
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithOrchestratorOptions(orchOpts...),
	}

	cleanup := func() {}
	if cfg.Redis.URL != "" {
		client, err := redisadapter.NewClient(cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		store := redisadapter.NewFromClient(client, redisadapter.WithTTL(cfg.Redis.ResultTTL))
		opts = append(opts,
			session.WithStore(store),
			session.WithLocker(redisadapter.NewLocker(client, redisadapter.DefaultPrefix), cfg.Redis.LockTTL),
		)
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close redis client", "err", err)
			}
		}
		logger.Info("Using redis for results and run locks")
	}
	return session.NewManager(reg, opts...), cleanup, nil
}

// newMetrics registers collectors on a fresh registry, with Go and process
// collectors alongside.
func newMetrics() (*observability.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return observability.NewMetrics(reg), reg
}
