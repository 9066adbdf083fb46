package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func (s *Storage) InsertCandidate(ctx context.Context, c *types.Candidate) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (content, confidence, source_file, source_run_id, source_task_id, status, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Content, string(c.Confidence), c.SourceFile, c.SourceRunID, c.SourceTaskID, string(c.Status), c.ExtractedAt,
	)
	if err != nil {
		return 0, txerr.Database(err)
	}
	return res.LastInsertId()
}

const candidateColumns = `id, content, confidence, source_file, source_run_id, source_task_id, status, extracted_at, reviewed_at, reviewed_by, promoted_learning_id, rejection_reason`

func scanCandidate(row interface{ Scan(...any) error }) (*types.Candidate, error) {
	var c types.Candidate
	var confidence, status string
	if err := row.Scan(&c.ID, &c.Content, &confidence, &c.SourceFile, &c.SourceRunID, &c.SourceTaskID,
		&status, &c.ExtractedAt, &c.ReviewedAt, &c.ReviewedBy, &c.PromotedLearningID, &c.RejectionReason); err != nil {
		return nil, err
	}
	c.Confidence = types.ConfidenceLevel(confidence)
	c.Status = types.CandidateStatus(status)
	return &c, nil
}

func (s *Storage) GetCandidate(ctx context.Context, id int64) (*types.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &txerr.NotFoundError{Kind: "candidate", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return c, nil
}

func (s *Storage) ListCandidates(ctx context.Context, filter types.CandidateFilter) ([]*types.Candidate, error) {
	var clauses []string
	var args []any

	addSet := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := strings.Repeat("?,", len(values))
		placeholders = strings.TrimSuffix(placeholders, ",")
		clauses = append(clauses, col+" IN ("+placeholders+")")
		for _, v := range values {
			args = append(args, v)
		}
	}

	if len(filter.Status) > 0 {
		vals := make([]string, len(filter.Status))
		for i, v := range filter.Status {
			vals[i] = string(v)
		}
		addSet("status", vals)
	}
	if len(filter.Confidence) > 0 {
		vals := make([]string, len(filter.Confidence))
		for i, v := range filter.Confidence {
			vals[i] = string(v)
		}
		addSet("confidence", vals)
	}
	addSet("source_file", filter.SourceFile)
	addSet("source_run_id", filter.SourceRunID)
	addSet("source_task_id", filter.SourceTaskID)

	q := `SELECT ` + candidateColumns + ` FROM candidates`
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY extracted_at DESC"
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
	var out []*types.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, c)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) UpdateCandidate(ctx context.Context, id int64, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+1)
	for k, v := range patch {
		sets = append(sets, k+" = ?")
		args = append(args, v)
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE candidates SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "candidate", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}
