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

func (s *Storage) CreateTask(ctx context.Context, t *types.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, parent_id, score, created_at, updated_at, completed_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), t.ParentID, t.Score,
		t.CreatedAt, t.UpdatedAt, t.CompletedAt, encodeJSON(t.Metadata),
	)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func scanTask(row interface{ Scan(...any) error }) (*types.Task, error) {
	var t types.Task
	var status string
	var metadata string
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.ParentID, &t.Score,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &metadata); err != nil {
		return nil, err
	}
	t.Status = types.TaskStatus(status)
	t.Metadata = decodeStringMap(metadata)
	return &t, nil
}

const taskColumns = `id, title, description, status, parent_id, score, created_at, updated_at, completed_at, metadata`

func (s *Storage) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txerr.TaskNotFound(id)
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return t, nil
}

// UpdateTask applies a partial patch. Recognized keys: title, description,
// status, parent_id, score, completed_at, metadata. parent_id and
// completed_at accept nil to clear the column.
func (s *Storage) UpdateTask(ctx context.Context, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	sets := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+1)
	for k, v := range patch {
		if k == "__now__" {
			continue
		}
		if k == "metadata" {
			if m, ok := v.(map[string]string); ok {
				v = encodeJSON(m)
			}
		}
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, nowArg(patch))
	args = append(args, id)

	q := fmt.Sprintf("UPDATE tasks SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return txerr.TaskNotFound(id)
	}
	return nil
}

// nowArg lets callers pass an explicit "updated_at" via patch["__now__"]
// (used by tests needing deterministic timestamps); otherwise it uses
// SQLite's own clock via CURRENT_TIMESTAMP-equivalent Go time.
func nowArg(patch map[string]any) any {
	if v, ok := patch["__now__"]; ok {
		return v
	}
	return sqlNow()
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return txerr.TaskNotFound(id)
	}
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, filter types.TaskFilter) ([]*types.Task, error) {
	where, args := taskFilterClause(filter)
	q := `SELECT ` + taskColumns + ` FROM tasks`
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY score DESC, id ASC"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			q += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, t)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) CountTasks(ctx context.Context, filter types.TaskFilter) (int, error) {
	where, args := taskFilterClause(filter)
	q := `SELECT COUNT(*) FROM tasks`
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, txerr.Database(err)
	}
	return n, nil
}

func taskFilterClause(filter types.TaskFilter) (string, []any) {
	var clauses []string
	var args []any

	if len(filter.Status) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Status))
		placeholders = strings.TrimSuffix(placeholders, ",")
		clauses = append(clauses, "status IN ("+placeholders+")")
		for _, st := range filter.Status {
			args = append(args, string(st))
		}
	}
	if filter.ParentID != nil {
		if *filter.ParentID == "" {
			clauses = append(clauses, "parent_id IS NULL")
		} else {
			clauses = append(clauses, "parent_id = ?")
			args = append(args, *filter.ParentID)
		}
	}
	if filter.Search != "" {
		clauses = append(clauses, "(title LIKE ? ESCAPE '\\' OR description LIKE ? ESCAPE '\\')")
		pattern := "%" + escapeLike(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	return strings.Join(clauses, " AND "), args
}

// escapeLike makes a free-text fragment safe to embed in a LIKE pattern
// by escaping its own wildcard characters (spec §4.9 "LIKE safety").
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Dependency edges.

func (s *Storage) AddDependency(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return &txerr.ValidationError{Reason: "a task cannot block itself"}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dependencies (blocker_id, blocked_id) VALUES (?, ?)`, blockerID, blockedID)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func (s *Storage) RemoveDependency(ctx context.Context, blockerID, blockedID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM dependencies WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func (s *Storage) ListBlockers(ctx context.Context, taskID string) ([]string, error) {
	return queryStrings(ctx, s.db, `SELECT blocker_id FROM dependencies WHERE blocked_id = ?`, taskID)
}

func (s *Storage) ListBlocking(ctx context.Context, taskID string) ([]string, error) {
	return queryStrings(ctx, s.db, `SELECT blocked_id FROM dependencies WHERE blocker_id = ?`, taskID)
}

func (s *Storage) AllDependencies(ctx context.Context) ([]types.Dependency, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT blocker_id, blocked_id, created_at FROM dependencies`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []types.Dependency
	for rows.Next() {
		var d types.Dependency
		if err := rows.Scan(&d.BlockerID, &d.BlockedID, &d.CreatedAt); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, d)
	}
	return out, txerr.Database(rows.Err())
}

// Hierarchy.

func (s *Storage) ListChildren(ctx context.Context, taskID string) ([]string, error) {
	return queryStrings(ctx, s.db, `SELECT id FROM tasks WHERE parent_id = ?`, taskID)
}

func (s *Storage) AllParents(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, parent_id FROM tasks WHERE parent_id IS NOT NULL`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var id, parent string
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, txerr.Database(err)
		}
		out[id] = parent
	}
	return out, txerr.Database(rows.Err())
}

func queryStrings(ctx context.Context, db *sql.DB, q string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, v)
	}
	return out, txerr.Database(rows.Err())
}
