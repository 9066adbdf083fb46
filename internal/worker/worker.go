// Package worker implements worker registration, heartbeats, and dead-
// worker detection (spec §4.6).
package worker

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/idgen"
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

// RegisterInput is the set of caller-supplied registration fields.
type RegisterInput struct {
	Name         string
	Capabilities []string
	Hostname     string
	PID          int
	// WorkerID, if non-empty, overrides id generation (tests only).
	WorkerID string
}

var poolStatuses = []types.WorkerStatus{types.WorkerStarting, types.WorkerIdle, types.WorkerBusy}

// Register admits a new worker iff the orchestrator is running and the
// pool isn't already at capacity.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*types.Worker, error) {
	orch, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	if orch.Status != types.OrchestratorRunning {
		return nil, &txerr.RegistrationError{Reason: "orchestrator is not running"}
	}
	n, err := s.store.CountWorkersInStatuses(ctx, poolStatuses)
	if err != nil {
		return nil, err
	}
	if n >= orch.WorkerPoolSize {
		return nil, &txerr.RegistrationError{Reason: "worker pool is at capacity"}
	}

	id := in.WorkerID
	if id == "" {
		id = idgen.Worker()
	}
	now := s.now()
	w := &types.Worker{
		ID:              id,
		Name:            in.Name,
		Hostname:        in.Hostname,
		PID:             in.PID,
		Status:          types.WorkerStarting,
		RegisteredAt:    now,
		LastHeartbeatAt: now,
		Capabilities:    in.Capabilities,
		Metadata:        map[string]string{},
	}
	if err := s.store.InsertWorker(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Deregister(ctx context.Context, workerID string) error {
	return s.store.DeleteWorker(ctx, workerID)
}

// HeartbeatInput carries the fields a worker reports on each beat.
type HeartbeatInput struct {
	WorkerID      string
	Timestamp     time.Time
	Status        types.WorkerStatus
	CurrentTaskID *string
	Metrics       map[string]string
}

// Heartbeat is idempotent and cannot resurrect a dead worker.
func (s *Service) Heartbeat(ctx context.Context, in HeartbeatInput) (*types.Worker, error) {
	w, err := s.store.GetWorker(ctx, in.WorkerID)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{"last_heartbeat_at": in.Timestamp}
	if w.Status != types.WorkerDead && in.Status != "" {
		patch["status"] = string(in.Status)
	}
	if in.CurrentTaskID != nil {
		if *in.CurrentTaskID == "" {
			patch["current_task_id"] = nil
		} else {
			patch["current_task_id"] = *in.CurrentTaskID
		}
	}
	if in.Metrics != nil {
		patch["metadata"] = in.Metrics
	}
	if err := s.store.UpdateWorker(ctx, in.WorkerID, patch); err != nil {
		return nil, err
	}
	return s.store.GetWorker(ctx, in.WorkerID)
}

func (s *Service) UpdateStatus(ctx context.Context, workerID string, status types.WorkerStatus) (*types.Worker, error) {
	if err := s.store.UpdateWorker(ctx, workerID, map[string]any{"status": string(status)}); err != nil {
		return nil, err
	}
	return s.store.GetWorker(ctx, workerID)
}

func (s *Service) List(ctx context.Context) ([]*types.Worker, error) {
	return s.store.ListWorkers(ctx)
}

// FindDead returns workers whose last heartbeat predates
// missedHeartbeats * heartbeatIntervalSeconds, excluding ones already
// dead or stopping.
func (s *Service) FindDead(ctx context.Context, missedHeartbeats int) ([]*types.Worker, error) {
	orch, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	interval := orch.HeartbeatIntervalSeconds
	if interval <= 0 {
		interval = 30
	}
	cutoff := s.now().Add(-time.Duration(missedHeartbeats*interval) * time.Second)

	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	var dead []*types.Worker
	for _, w := range workers {
		if w.Status == types.WorkerDead || w.Status == types.WorkerStopping {
			continue
		}
		if w.LastHeartbeatAt.Before(cutoff) {
			dead = append(dead, w)
		}
	}
	return dead, nil
}

func (s *Service) MarkDead(ctx context.Context, workerID string) error {
	return s.store.UpdateWorker(ctx, workerID, map[string]any{"status": string(types.WorkerDead)})
}
