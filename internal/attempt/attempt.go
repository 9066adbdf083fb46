// Package attempt implements the append-only attempt ledger (spec §4.8).
package attempt

import (
	"context"
	"strings"
	"time"

	"github.com/jamesaphoenix/tx/internal/export"
	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

type Service struct {
	store storage.Store
	now   func() time.Time

	exporter *export.Dispatcher
}

func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SetExporter wires the best-effort auto-sync dispatcher (spec §5); nil
// (the default) disables export entirely.
func (s *Service) SetExporter(d *export.Dispatcher) { s.exporter = d }

func (s *Service) dispatchExport(ctx context.Context, a *types.Attempt) {
	if s.exporter == nil || a == nil {
		return
	}
	s.exporter.Dispatch(ctx, export.EntityAttempt, a)
}

func (s *Service) Create(ctx context.Context, taskID, approach string, outcome types.AttemptOutcome, reason string) (*types.Attempt, error) {
	if strings.TrimSpace(approach) == "" {
		return nil, &txerr.ValidationError{Reason: "approach must not be empty"}
	}
	if outcome != types.AttemptFailed && outcome != types.AttemptSucceeded {
		return nil, &txerr.ValidationError{Reason: "invalid outcome: " + string(outcome)}
	}
	exists, err := s.store.TaskExists(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, txerr.TaskNotFound(taskID)
	}

	a := &types.Attempt{
		TaskID:    taskID,
		Approach:  approach,
		Outcome:   outcome,
		Reason:    reason,
		CreatedAt: s.now(),
	}
	id, err := s.store.InsertAttempt(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	s.dispatchExport(ctx, a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*types.Attempt, error) {
	return s.store.GetAttempt(ctx, id)
}

func (s *Service) ListForTask(ctx context.Context, taskID string) ([]*types.Attempt, error) {
	return s.store.ListAttemptsForTask(ctx, taskID)
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	a, getErr := s.store.GetAttempt(ctx, id)
	if err := s.store.DeleteAttempt(ctx, id); err != nil {
		return err
	}
	if getErr == nil {
		s.dispatchExport(ctx, a)
	}
	return nil
}

func (s *Service) GetFailedCount(ctx context.Context, taskID string) (int, error) {
	return s.store.FailedCount(ctx, taskID)
}

// GetFailedCountsForTasks is sparse: tasks with zero failed attempts are
// omitted from the returned map.
func (s *Service) GetFailedCountsForTasks(ctx context.Context, taskIDs []string) (map[string]int, error) {
	return s.store.FailedCounts(ctx, taskIDs)
}
