package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

const claimColumns = `id, task_id, worker_id, claimed_at, lease_expires_at, renewed_count, status`

func scanClaim(row interface{ Scan(...any) error }) (*types.Claim, error) {
	var c types.Claim
	var status string
	if err := row.Scan(&c.ID, &c.TaskID, &c.WorkerID, &c.ClaimedAt, &c.LeaseExpiresAt, &c.RenewedCount, &status); err != nil {
		return nil, err
	}
	c.Status = types.ClaimStatus(status)
	return &c, nil
}

// InsertClaimIfNone relies on the partial unique index
// idx_claims_one_active_per_task to make the check-and-insert atomic
// even under concurrent callers (spec §4.5): a racing INSERT either
// succeeds uniquely or fails with a constraint violation, which we
// resolve by re-reading the winning claim's worker id.
func (s *Storage) InsertClaimIfNone(ctx context.Context, c *types.Claim) (string, bool, error) {
	return insertClaimIfNoneTx(ctx, s.db, c, func(ctx context.Context, taskID string) (*types.Claim, error) {
		return s.GetActiveClaim(ctx, taskID)
	})
}

// ClaimTask inserts an active claim for c.TaskID (iff none exists) and, in
// the same transaction, moves the task to status active. See the
// ClaimStore.ClaimTask doc comment for why this must be one transaction
// rather than the two separate calls InsertClaimIfNone+UpdateTask used to
// be.
func (s *Storage) ClaimTask(ctx context.Context, c *types.Claim) (string, bool, error) {
	var existingWorkerID string
	var ok bool
	err := s.RunInTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		existingWorkerID, ok, err = insertClaimIfNoneTx(ctx, tx, c, func(ctx context.Context, taskID string) (*types.Claim, error) {
			row := tx.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE task_id = ? AND status = 'active'`, taskID)
			cl, err := scanClaim(row)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, txerr.ClaimNotFound(taskID)
			}
			if err != nil {
				return nil, txerr.Database(err)
			}
			return cl, nil
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		res, err := tx.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(types.StatusActive), sqlNow(), c.TaskID)
		if err != nil {
			return txerr.Database(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return txerr.Database(err)
		}
		if n == 0 {
			return txerr.TaskNotFound(c.TaskID)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return existingWorkerID, ok, nil
}

// execer is the subset of *sql.DB and *sql.Tx that insertClaimIfNoneTx
// needs, letting InsertClaimIfNone and ClaimTask share one implementation
// whether or not they're already inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertClaimIfNoneTx(ctx context.Context, db execer, c *types.Claim, getActive func(context.Context, string) (*types.Claim, error)) (string, bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO claims (task_id, worker_id, claimed_at, lease_expires_at, renewed_count, status)
		VALUES (?, ?, ?, ?, 0, 'active')`,
		c.TaskID, c.WorkerID, c.ClaimedAt, c.LeaseExpiresAt,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			existing, getErr := getActive(ctx, c.TaskID)
			if getErr != nil {
				return "", false, txerr.Database(getErr)
			}
			return existing.WorkerID, false, nil
		}
		return "", false, txerr.Database(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", false, txerr.Database(err)
	}
	c.ID = id
	c.RenewedCount = 0
	c.Status = types.ClaimActive
	return "", true, nil
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}

func (s *Storage) GetActiveClaim(ctx context.Context, taskID string) (*types.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE task_id = ? AND status = 'active'`, taskID)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, txerr.ClaimNotFound(taskID)
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return c, nil
}

func (s *Storage) RenewClaim(ctx context.Context, taskID, workerID string, newExpiry time.Time) (*types.Claim, error) {
	c, err := s.GetActiveClaim(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if c.WorkerID != workerID {
		return nil, txerr.ClaimNotFound(taskID)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE claims SET lease_expires_at = ?, renewed_count = renewed_count + 1 WHERE id = ?`,
		newExpiry, c.ID)
	if err != nil {
		return nil, txerr.Database(err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, c.ID)
	return scanClaim(row)
}

func (s *Storage) ReleaseClaim(ctx context.Context, taskID, workerID string) error {
	c, err := s.GetActiveClaim(ctx, taskID)
	if err != nil {
		return err
	}
	if c.WorkerID != workerID {
		return txerr.ClaimNotFound(taskID)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE claims SET status = 'released' WHERE id = ?`, c.ID)
	if err != nil {
		return txerr.Database(err)
	}
	return nil
}

func (s *Storage) ReleaseByWorker(ctx context.Context, workerID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET status = 'released' WHERE worker_id = ? AND status = 'active'`, workerID)
	if err != nil {
		return 0, txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, txerr.Database(err)
	}
	return int(n), nil
}

func (s *Storage) ExpireClaim(ctx context.Context, claimID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET status = 'expired' WHERE id = ? AND status = 'active'`, claimID)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return fmt.Errorf("claim %d: %w", claimID, txerr.ClaimNotFound(fmt.Sprint(claimID)))
	}
	return nil
}

func (s *Storage) ListExpired(ctx context.Context, now time.Time) ([]*types.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE status = 'active' AND lease_expires_at < ?`, now)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, c)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) ListActiveWithoutTask(ctx context.Context) ([]*types.Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims c WHERE c.status = 'active' AND NOT EXISTS (SELECT 1 FROM tasks t WHERE t.id = c.task_id)`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, c)
	}
	return out, txerr.Database(rows.Err())
}
