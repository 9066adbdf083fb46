package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const workerColumns = `id, name, hostname, pid, status, registered_at, last_heartbeat_at, current_task_id, capabilities, metadata`

func scanWorker(row interface{ Scan(...any) error }) (*types.Worker, error) {
	var w types.Worker
	var status, caps, meta string
	if err := row.Scan(&w.ID, &w.Name, &w.Hostname, &w.PID, &status, &w.RegisteredAt,
		&w.LastHeartbeatAt, &w.CurrentTaskID, &caps, &meta); err != nil {
		return nil, err
	}
	w.Status = types.WorkerStatus(status)
	w.Capabilities = decodeStringSlice(caps)
	w.Metadata = decodeStringMap(meta)
	return &w, nil
}

func (s *Storage) InsertWorker(ctx context.Context, w *types.Worker) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, name, hostname, pid, status, registered_at, last_heartbeat_at, current_task_id, capabilities, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Hostname, w.PID, string(w.Status), w.RegisteredAt, w.LastHeartbeatAt,
		w.CurrentTaskID, encodeJSON(w.Capabilities), encodeJSON(w.Metadata),
	)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func (s *Storage) GetWorker(ctx context.Context, id string) (*types.Worker, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txerr.WorkerNotFound(id)
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return w, nil
}

func (s *Storage) DeleteWorker(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return txerr.WorkerNotFound(id)
	}
	return nil
}

func (s *Storage) UpdateWorker(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for k, v := range patch {
		if k == "metadata" {
			if m, ok := v.(map[string]string); ok {
				v = encodeJSON(m)
			}
		}
		if k == "capabilities" {
			if c, ok := v.([]string); ok {
				v = encodeJSON(c)
			}
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE workers SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return txerr.WorkerNotFound(id)
	}
	return nil
}

func (s *Storage) ListWorkers(ctx context.Context) ([]*types.Worker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers ORDER BY registered_at ASC`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, w)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) CountWorkersInStatuses(ctx context.Context, statuses []types.WorkerStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = strings.TrimSuffix(placeholders, ",")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workers WHERE status IN (`+placeholders+`)`, args...).Scan(&n)
	if err != nil {
		return 0, txerr.Database(err)
	}
	return n, nil
}
