package sqlite

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func (s *Storage) UpsertLabel(ctx context.Context, name, color string) (*types.Label, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (name, color) VALUES (?, ?)
		ON CONFLICT(lower(name)) DO UPDATE SET color = excluded.color`, name, color)
	if err != nil {
		return nil, txerr.Database(err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, name, color FROM labels WHERE lower(name) = lower(?)`, name)
	var l types.Label
	if err := row.Scan(&l.ID, &l.Name, &l.Color); err != nil {
		return nil, txerr.Database(err)
	}
	return &l, nil
}

func (s *Storage) ListLabels(ctx context.Context) ([]*types.Label, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM labels ORDER BY name ASC`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Label
	for rows.Next() {
		var l types.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, &l)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) DeleteLabel(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "label", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *Storage) AttachLabel(ctx context.Context, taskID string, labelID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO label_assignments (task_id, label_id) VALUES (?, ?)
		ON CONFLICT(task_id, label_id) DO NOTHING`, taskID, labelID)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func (s *Storage) DetachLabel(ctx context.Context, taskID string, labelID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM label_assignments WHERE task_id = ? AND label_id = ?`, taskID, labelID)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "label_assignment", ID: taskID + "/" + strconv.FormatInt(labelID, 10)}
	}
	return nil
}

func (s *Storage) LabelsForTask(ctx context.Context, taskID string) ([]*types.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.color FROM labels l
		JOIN label_assignments la ON la.label_id = l.id
		WHERE la.task_id = ? ORDER BY l.name ASC`, taskID)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Label
	for rows.Next() {
		var l types.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, &l)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) TasksForLabel(ctx context.Context, labelID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id FROM label_assignments WHERE label_id = ? ORDER BY task_id ASC`, labelID)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, id)
	}
	return out, txerr.Database(rows.Err())
}

// RenameLabelEverywhere reassigns every task_label edge from one label name
// to another, merging assignment sets when the destination label already
// exists on a task, then removes the now-unused source label. Grounds the
// generic label.rewrite.<from>=<to> config mechanism used by migration 001.
func (s *Storage) RenameLabelEverywhere(ctx context.Context, from, to string) error {
	return s.RunInTransaction(ctx, func(tx *sql.Tx) error {
		var fromID, toID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM labels WHERE lower(name) = lower(?)`, from).Scan(&fromID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `SELECT id FROM labels WHERE lower(name) = lower(?)`, to).Scan(&toID)
		if err == sql.ErrNoRows {
			_, err = tx.ExecContext(ctx, `UPDATE labels SET name = ? WHERE id = ?`, to, fromID)
			return err
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE label_assignments SET label_id = ?
			WHERE label_id = ? AND NOT EXISTS (
				SELECT 1 FROM label_assignments la2 WHERE la2.task_id = label_assignments.task_id AND la2.label_id = ?
			)`, toID, fromID, toID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM label_assignments WHERE label_id = ?`, fromID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, fromID)
		return err
	})
}
