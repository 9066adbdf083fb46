// Package orchestrator implements the singleton process controller and
// its reconciliation sweep (spec §4.7). The running/stopped flag lives
// in the store, not in process memory (spec §9 "orchestrator state as a
// row, not a process singleton"), so multiple client processes (CLI,
// dashboard, workers) observe a single consistent view.
package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// StartConfig overrides the defaults already seeded in the orchestrator
// row; zero values leave the current row value untouched.
type StartConfig struct {
	WorkerPoolSize           int
	ReconcileIntervalSeconds int
	HeartbeatIntervalSeconds int
	LeaseDurationMinutes     int
}

func (s *Service) Start(ctx context.Context, cfg StartConfig) (*types.OrchestratorState, error) {
	st, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	if st.Status == types.OrchestratorRunning {
		return nil, &txerr.OrchestratorError{Code: txerr.AlreadyRunning}
	}

	now := s.now()
	patch := map[string]any{
		"status":     string(types.OrchestratorRunning),
		"pid":        os.Getpid(),
		"started_at": now,
	}
	if cfg.WorkerPoolSize > 0 {
		patch["worker_pool_size"] = cfg.WorkerPoolSize
	}
	if cfg.ReconcileIntervalSeconds > 0 {
		patch["reconcile_interval_seconds"] = cfg.ReconcileIntervalSeconds
	}
	if cfg.HeartbeatIntervalSeconds > 0 {
		patch["heartbeat_interval_seconds"] = cfg.HeartbeatIntervalSeconds
	}
	if cfg.LeaseDurationMinutes > 0 {
		patch["lease_duration_minutes"] = cfg.LeaseDurationMinutes
	}
	if err := s.store.UpdateOrchestratorState(ctx, patch); err != nil {
		return nil, err
	}
	return s.store.GetOrchestratorState(ctx)
}

// Stop transitions the orchestrator to stopped. A non-graceful stop
// marks every non-dead worker dead, matching the spec's "stop(graceful)"
// contract.
func (s *Service) Stop(ctx context.Context, graceful bool) (*types.OrchestratorState, error) {
	st, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	if st.Status != types.OrchestratorRunning {
		return nil, &txerr.OrchestratorError{Code: txerr.NotRunning}
	}

	if !graceful {
		workers, err := s.store.ListWorkers(ctx)
		if err != nil {
			return nil, err
		}
		for _, w := range workers {
			if w.Status == types.WorkerDead {
				continue
			}
			if err := s.store.UpdateWorker(ctx, w.ID, map[string]any{"status": string(types.WorkerDead)}); err != nil {
				return nil, err
			}
		}
	}

	if err := s.store.UpdateOrchestratorState(ctx, map[string]any{"status": string(types.OrchestratorStopped)}); err != nil {
		return nil, err
	}
	return s.store.GetOrchestratorState(ctx)
}

func (s *Service) Status(ctx context.Context) (*types.OrchestratorState, error) {
	return s.store.GetOrchestratorState(ctx)
}

// ReconcileResult tallies each phase of one reconciliation pass.
type ReconcileResult struct {
	DeadWorkersFound       int
	ExpiredClaimsReleased  int
	OrphanedTasksRecovered int
	StaleStatesFixed       int
	ReconcileTime          time.Duration
}

// Reconcile runs the five-phase repair sweep described in spec §4.7. Per-
// row errors are swallowed without being logged or returned; the
// returned counts reflect only successes.
func (s *Service) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	start := s.now()
	result := &ReconcileResult{}

	orch, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	// 1. Dead workers.
	interval := orch.HeartbeatIntervalSeconds
	if interval <= 0 {
		interval = 30
	}
	cutoff := now.Add(-time.Duration(2*interval) * time.Second)
	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		if w.Status == types.WorkerDead || w.Status == types.WorkerStopping {
			continue
		}
		if w.LastHeartbeatAt.Before(cutoff) {
			if err := s.store.UpdateWorker(ctx, w.ID, map[string]any{"status": string(types.WorkerDead)}); err == nil {
				result.DeadWorkersFound++
			}
		}
	}

	// 2. Expired claims.
	expired, err := s.store.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, c := range expired {
		if err := s.store.ExpireClaim(ctx, c.ID); err != nil {
			continue
		}
		result.ExpiredClaimsReleased++
		if err := s.restoreAfterLeaveActive(ctx, c.TaskID); err != nil {
			continue
		}
	}

	// 3. Orphaned tasks: active with no active claim.
	activeTasks, err := s.store.ListTasks(ctx, types.TaskFilter{Status: []types.TaskStatus{types.StatusActive}})
	if err != nil {
		return nil, err
	}
	for _, t := range activeTasks {
		if _, err := s.store.GetActiveClaim(ctx, t.ID); err != nil {
			if txerr.IsNotFound(err, "claim") {
				if err := s.restoreAfterLeaveActive(ctx, t.ID); err == nil {
					result.OrphanedTasksRecovered++
				}
			}
		}
	}

	// 4. Stale worker states: busy with no current task.
	workers, err = s.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range workers {
		if w.Status == types.WorkerBusy && w.CurrentTaskID == nil {
			if err := s.store.UpdateWorker(ctx, w.ID, map[string]any{"status": string(types.WorkerIdle)}); err == nil {
				result.StaleStatesFixed++
			}
		}
	}

	// 5. Update lastReconcileAt.
	if err := s.store.UpdateOrchestratorState(ctx, map[string]any{"last_reconcile_at": now}); err != nil {
		return nil, err
	}

	result.ReconcileTime = s.now().Sub(start)
	return result, nil
}

// restoreAfterLeaveActive applies the post-expiry status policy: ready if
// every blocker is done, blocked otherwise.
func (s *Service) restoreAfterLeaveActive(ctx context.Context, taskID string) error {
	blockers, err := s.store.ListBlockers(ctx, taskID)
	if err != nil {
		return err
	}
	allDone := true
	for _, blockerID := range blockers {
		blocker, err := s.store.GetTask(ctx, blockerID)
		if err != nil {
			allDone = false
			continue
		}
		if blocker.Status != types.StatusDone {
			allDone = false
			break
		}
	}
	next := types.StatusBlocked
	if allDone {
		next = types.StatusReady
	}
	return s.store.UpdateTask(ctx, taskID, map[string]any{"status": string(next)})
}
