// Command txd is the orchestrator daemon: it owns the reconcile timer
// and the HTTP surface described in spec §4.7/§6, adapted from the
// teacher's cmd/bd daemon entrypoint (daemon_lock.go, daemon_logger.go)
// onto this engine's services.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/config"
	"github.com/jamesaphoenix/tx/internal/httpapi"
	"github.com/jamesaphoenix/tx/internal/logging"
	"github.com/jamesaphoenix/tx/internal/orchestrator"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: .tx/config.yaml)")
	foreground := flag.Bool("foreground", false, "also log to stderr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "txd: load config: %v\n", err)
		os.Exit(1)
	}

	rotated, logger := logging.NewDaemon(cfg.LogPath, cfg.LogJSON, logging.ParseLevel(cfg.LogLevel), *foreground)
	defer rotated.Close()

	lock, err := acquireDaemonLock(cfg.DataDir, cfg.DBPath())
	if err != nil {
		logger.Error("cannot acquire daemon lock", "error", err)
		os.Exit(1)
	}
	defer lock.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if _, err := a.Orchestrator.Start(ctx, orchestrator.StartConfig{
		WorkerPoolSize:           cfg.WorkerPoolSize,
		ReconcileIntervalSeconds: cfg.ReconcileIntervalSeconds,
		HeartbeatIntervalSeconds: cfg.HeartbeatIntervalSeconds,
		LeaseDurationMinutes:     cfg.LeaseDurationMinutes,
	}); err != nil {
		logger.Error("start orchestrator", "error", err)
		os.Exit(1)
	}

	srv := &httpapi.Server{
		Tasks:        a.Task,
		Ready:        a.Ready,
		Hierarchy:    a.Hierarchy,
		Labels:       a.Label,
		Claims:       a.Claim,
		Workers:      a.Worker,
		Orchestrator: a.Orchestrator,
		Learning:     a.Learning,
		Logger:       logger.Logger,
		PathRoots:    cfg.TranscriptRoots,
	}
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.NewMux()}
	go func() {
		logger.Info("http surface listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
		}
	}()

	runReconcileLoop(ctx, a, logger.Logger, cfg.ReconcileInterval())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if _, err := a.Orchestrator.Stop(shutdownCtx, true); err != nil {
		logger.Error("graceful stop", "error", err)
	}
	logger.Info("txd stopped")
}

// runReconcileLoop ticks Reconcile on the configured interval until ctx
// is cancelled (SIGINT/SIGTERM), per-row errors are already swallowed by
// Reconcile itself; only a top-level failure is logged here.
func runReconcileLoop(ctx context.Context, a *app.App, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := a.Orchestrator.Reconcile(ctx)
			if err != nil {
				logger.Error("reconcile failed", "error", err)
				continue
			}
			logger.Debug("reconcile complete",
				"deadWorkers", result.DeadWorkersFound,
				"expiredClaims", result.ExpiredClaimsReleased,
				"orphanedTasks", result.OrphanedTasksRecovered,
				"staleStates", result.StaleStatesFixed,
				"took", result.ReconcileTime)
		}
	}
}
