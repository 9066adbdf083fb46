// Package app wires every service onto one opened store, the single
// construction path shared by cmd/txd and cmd/tx so the two binaries
// never drift in how they assemble the engine.
package app

import (
	"context"

	"github.com/jamesaphoenix/tx/internal/attempt"
	"github.com/jamesaphoenix/tx/internal/candidate"
	"github.com/jamesaphoenix/tx/internal/claim"
	"github.com/jamesaphoenix/tx/internal/config"
	"github.com/jamesaphoenix/tx/internal/dependency"
	"github.com/jamesaphoenix/tx/internal/export"
	"github.com/jamesaphoenix/tx/internal/hierarchy"
	"github.com/jamesaphoenix/tx/internal/label"
	"github.com/jamesaphoenix/tx/internal/learning"
	"github.com/jamesaphoenix/tx/internal/orchestrator"
	"github.com/jamesaphoenix/tx/internal/ready"
	"github.com/jamesaphoenix/tx/internal/score"
	"github.com/jamesaphoenix/tx/internal/storage/sqlite"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/worker"
)

// App bundles the opened store and every service built on top of it.
type App struct {
	Store *sqlite.Storage
	Cfg   config.Config

	Task         *task.Service
	Ready        *ready.Service
	Dependency   *dependency.Service
	Hierarchy    *hierarchy.Service
	Score        *score.Service
	Claim        *claim.Service
	Worker       *worker.Service
	Orchestrator *orchestrator.Service
	Attempt      *attempt.Service
	Learning     *learning.Service
	Candidate    *candidate.Service
	Label        *label.Service

	// Export is the best-effort auto-sync dispatcher (spec §5), fired by
	// Task/Learning/Attempt mutations whenever the export.auto_sync_enabled
	// config row is "true". Always non-nil; the row gate, not a nil check,
	// is what turns export on and off.
	Export *export.Dispatcher
}

// Open opens the SQLite file named by cfg.DBPath and constructs every
// service over it.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := sqlite.Open(ctx, cfg.DBPath())
	if err != nil {
		return nil, err
	}

	taskSvc := task.New(store)
	attemptSvc := attempt.New(store)
	learningSvc := learning.New(store, nil)

	exporter := export.New(cfg.DataDir+"/export", exportPolicy(ctx, store), exportEnabled(store), nil)
	taskSvc.SetExporter(exporter)
	attemptSvc.SetExporter(exporter)
	learningSvc.SetExporter(exporter)

	return &App{
		Store:        store,
		Cfg:          cfg,
		Task:         taskSvc,
		Ready:        ready.New(store),
		Dependency:   dependency.New(store),
		Hierarchy:    hierarchy.New(store),
		Score:        score.New(store),
		Claim:        claim.New(store),
		Worker:       worker.New(store),
		Orchestrator: orchestrator.New(store),
		Attempt:      attemptSvc,
		Learning:     learningSvc,
		Candidate:    candidate.New(store),
		Label:        label.New(store),
		Export:       exporter,
	}, nil
}

// exportEnabled reads the export.auto_sync_enabled config row on every
// dispatch, so toggling it (e.g. via PATCH to config, or directly in the
// store) takes effect without restarting the daemon.
func exportEnabled(store *sqlite.Storage) export.Enabled {
	return func(ctx context.Context) bool {
		v, ok, err := store.GetConfig(ctx, "export.auto_sync_enabled")
		if err != nil || !ok {
			return false
		}
		return v == "true"
	}
}

// exportPolicy reads export.error_policy once at startup; unlike the
// enabled flag it only affects how failed dispatches are logged, not
// whether they're attempted.
func exportPolicy(ctx context.Context, store *sqlite.Storage) export.ErrorPolicy {
	v, ok, err := store.GetConfig(ctx, "export.error_policy")
	if err != nil || !ok || v != string(export.PolicyStrict) {
		return export.PolicyBestEffort
	}
	return export.PolicyStrict
}

func (a *App) Close() error {
	if a.Export != nil {
		a.Export.Wait()
	}
	return a.Store.Close()
}
