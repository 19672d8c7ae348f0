package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/antnode-manager/internal/logger"
	"github.com/marmos91/antnode-manager/internal/telemetry"
	"github.com/marmos91/antnode-manager/pkg/audit"
	"github.com/marmos91/antnode-manager/pkg/config"
	"github.com/marmos91/antnode-manager/pkg/metrics"
	"github.com/marmos91/antnode-manager/pkg/registry"
	"github.com/marmos91/antnode-manager/pkg/statusapi"
	"github.com/marmos91/antnode-manager/pkg/supervisor"
	"github.com/marmos91/antnode-manager/pkg/supervisor/systemd"
	"github.com/marmos91/antnode-manager/pkg/types"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start antnoded",
	Long: `Start antnoded: load the node registry, bring up the read-only
status API, and watch the registry document for external edits.

By default antnoded runs in the background (daemon mode). Use
--foreground to run attached, e.g. under a process supervisor.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/antnode-manager/antnoded.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/antnode-manager/antnoded.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "antnoded",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "antnoded",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("antnoded starting", "version", Version, "commit", Commit)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("profiling disabled")
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	logger.Info("registry loaded", "path", cfg.Registry.Path, "nodes", len(reg.Nodes()))

	watcher, err := registry.NewWatcher(reg)
	if err != nil {
		return fmt.Errorf("failed to start registry watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.Start(ctx)

	sup := systemd.New()

	var coll *metrics.Collector
	if cfg.Metrics.Enabled {
		coll = metrics.New()
		go runDriftSweep(ctx, reg, sup, coll)
		logger.Info("metrics enabled", "path", "/metrics", "api_port", cfg.API.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		auditStore, err = audit.Open(audit.Config{Path: cfg.Audit.Path})
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer func() {
			if err := auditStore.Close(); err != nil {
				logger.Error("audit store close error", "error", err)
			}
		}()
		logger.Info("audit store opened", "path", cfg.Audit.Path)
	} else {
		logger.Info("audit logging disabled")
	}

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	var apiServer *statusapi.Server
	serverDone := make(chan error, 1)
	if cfg.API.Enabled {
		apiServer = statusapi.NewServer(cfg.API.Port, reg, sup, coll, auditStore)
		logger.Info("status api enabled", "port", cfg.API.Port)
		go func() {
			serverDone <- apiServer.Start(ctx)
		}()
	} else {
		logger.Info("status api disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("antnoded is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if apiServer != nil {
			if err := <-serverDone; err != nil {
				logger.Error("status api shutdown error", "error", err)
				return err
			}
		}
		logger.Info("antnoded stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("status api error", "error", err)
			return err
		}
		logger.Info("antnoded stopped")
	}

	return nil
}

// driftSweepInterval paces the background reconciliation probe feeding
// the self-metrics endpoint.
const driftSweepInterval = 60 * time.Second

// runDriftSweep periodically probes every Running entry's process and
// feeds the outcome into the self-metrics collector, so /metrics
// surfaces stale Running entries without antnoded ever mutating the
// registry itself.
func runDriftSweep(ctx context.Context, reg *registry.Registry, sup supervisor.Supervisor, coll *metrics.Collector) {
	ticker := time.NewTicker(driftSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, entry := range reg.Nodes() {
				if entry.Status != types.StatusRunning {
					continue
				}
				probeStart := time.Now()
				_, err := sup.GetProcessPID(ctx, entry.AntnodePath)
				coll.Observe("reconcile", entry.ServiceName, time.Since(probeStart), err)
				if err != nil {
					logger.Warn("running entry has no live process", "service_name", entry.ServiceName)
				}
			}
		}
	}
}
