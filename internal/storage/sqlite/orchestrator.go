package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func (s *Storage) GetOrchestratorState(ctx context.Context) (*types.OrchestratorState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, pid, started_at, last_reconcile_at, worker_pool_size,
		       reconcile_interval_seconds, heartbeat_interval_seconds, lease_duration_minutes
		FROM orchestrator_state WHERE id = 1`)
	var st types.OrchestratorState
	var status string
	if err := row.Scan(&status, &st.PID, &st.StartedAt, &st.LastReconcileAt, &st.WorkerPoolSize,
		&st.ReconcileIntervalSeconds, &st.HeartbeatIntervalSeconds, &st.LeaseDurationMinutes); err != nil {
		return nil, txerr.Database(err)
	}
	st.Status = types.OrchestratorStatus(status)
	return &st, nil
}

func (s *Storage) UpdateOrchestratorState(ctx context.Context, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for k, v := range patch {
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	q := fmt.Sprintf("UPDATE orchestrator_state SET %s WHERE id = 1", strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return txerr.Database(err)
	}
	return nil
}
