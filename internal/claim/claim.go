// Package claim implements the at-most-one-worker-per-task lease
// coordinator (spec §4.5). The at-most-one invariant is enforced by the
// store's partial unique index; this package adds the task/worker
// eligibility checks and the "claim also moves the task to active"
// contract around it.
package claim

import (
	"context"
	"time"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const maxRenewals = 10

type Service struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Claim atomically inserts an active claim for taskID and moves the task
// to status active, provided the task is workable, the worker is
// eligible, and no active claim already exists.
func (s *Service) Claim(ctx context.Context, taskID, workerID string) (*types.Claim, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.Status.Workable() {
		return nil, &txerr.ValidationError{Reason: "task " + taskID + " is not in a workable status"}
	}
	w, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if !eligibleClaimant(w.Status) {
		return nil, &txerr.ValidationError{Reason: "worker " + workerID + " is not eligible to claim (status " + string(w.Status) + ")"}
	}

	orch, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	leaseMinutes := orch.LeaseDurationMinutes
	if leaseMinutes <= 0 {
		leaseMinutes = 15
	}

	now := s.now()
	c := &types.Claim{
		TaskID:         taskID,
		WorkerID:       workerID,
		ClaimedAt:      now,
		LeaseExpiresAt: now.Add(time.Duration(leaseMinutes) * time.Minute),
		RenewedCount:   0,
		Status:         types.ClaimActive,
	}

	existingWorkerID, ok, err := s.store.ClaimTask(ctx, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &txerr.AlreadyClaimedError{TaskID: taskID, ClaimedByWorkerID: existingWorkerID}
	}
	return c, nil
}

func eligibleClaimant(status types.WorkerStatus) bool {
	return status == types.WorkerStarting || status == types.WorkerIdle || status == types.WorkerBusy
}

func (s *Service) Renew(ctx context.Context, taskID, workerID string) (*types.Claim, error) {
	current, err := s.store.GetActiveClaim(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if current.WorkerID != workerID {
		return nil, txerr.ClaimNotFound(taskID)
	}
	if current.RenewedCount >= maxRenewals {
		return nil, &txerr.MaxRenewalsExceededError{ClaimID: current.ID, Max: maxRenewals}
	}

	orch, err := s.store.GetOrchestratorState(ctx)
	if err != nil {
		return nil, err
	}
	leaseMinutes := orch.LeaseDurationMinutes
	if leaseMinutes <= 0 {
		leaseMinutes = 15
	}

	return s.store.RenewClaim(ctx, taskID, workerID, s.now().Add(time.Duration(leaseMinutes)*time.Minute))
}

func (s *Service) Release(ctx context.Context, taskID, workerID string) error {
	return s.store.ReleaseClaim(ctx, taskID, workerID)
}

func (s *Service) ReleaseByWorker(ctx context.Context, workerID string) (int, error) {
	return s.store.ReleaseByWorker(ctx, workerID)
}

func (s *Service) Expire(ctx context.Context, claimID int64) error {
	return s.store.ExpireClaim(ctx, claimID)
}

func (s *Service) GetActiveClaim(ctx context.Context, taskID string) (*types.Claim, error) {
	return s.store.GetActiveClaim(ctx, taskID)
}

func (s *Service) GetExpired(ctx context.Context) ([]*types.Claim, error) {
	return s.store.ListExpired(ctx, s.now())
}
