package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func (s *Storage) InsertAttempt(ctx context.Context, a *types.Attempt) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (task_id, approach, outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.TaskID, a.Approach, string(a.Outcome), a.Reason, a.CreatedAt,
	)
	if err != nil {
		return 0, txerr.Database(err)
	}
	return res.LastInsertId()
}

func scanAttempt(row interface{ Scan(...any) error }) (*types.Attempt, error) {
	var a types.Attempt
	var outcome string
	if err := row.Scan(&a.ID, &a.TaskID, &a.Approach, &outcome, &a.Reason, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Outcome = types.AttemptOutcome(outcome)
	return &a, nil
}

const attemptColumns = `id, task_id, approach, outcome, reason, created_at`

func (s *Storage) GetAttempt(ctx context.Context, id int64) (*types.Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txerr.AttemptNotFound(idString(id))
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return a, nil
}

func (s *Storage) ListAttemptsForTask(ctx context.Context, taskID string) ([]*types.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE task_id = ? ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, a)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) DeleteAttempt(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return txerr.AttemptNotFound(idString(id))
	}
	return nil
}

func (s *Storage) FailedCount(ctx context.Context, taskID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE task_id = ? AND outcome = 'failed'`, taskID).Scan(&n)
	if err != nil {
		return 0, txerr.Database(err)
	}
	return n, nil
}

func (s *Storage) FailedCounts(ctx context.Context, taskIDs []string) (map[string]int, error) {
	if len(taskIDs) == 0 {
		return map[string]int{}, nil
	}
	placeholders := strings.Repeat("?,", len(taskIDs))
	placeholders = strings.TrimSuffix(placeholders, ",")
	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, COUNT(*) FROM attempts
		WHERE task_id IN (`+placeholders+`) AND outcome = 'failed'
		GROUP BY task_id`, args...)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	out := map[string]int{} // sparse: tasks with zero failures are simply absent
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, txerr.Database(err)
		}
		out[id] = n
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) TaskExists(ctx context.Context, taskID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ?)`, taskID).Scan(&exists)
	if err != nil {
		return false, txerr.Database(err)
	}
	return exists, nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
