package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/txerr"
	"github.com/jamesaphoenix/tx/internal/types"
)

func isFTS5SyntaxErr(err error) bool {
	return strings.Contains(err.Error(), "fts5: syntax error") || strings.Contains(err.Error(), "malformed MATCH")
}

func (s *Storage) InsertLearning(ctx context.Context, l *types.Learning) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO learnings (content, source_type, source_ref, created_at, keywords, category, usage_count, outcome_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Content, l.SourceType, l.SourceRef, l.CreatedAt, encodeJSON(l.Keywords), l.Category, l.UsageCount, l.OutcomeScore,
	)
	if err != nil {
		return 0, txerr.Database(err)
	}
	return res.LastInsertId()
}

const learningColumns = `id, content, source_type, source_ref, created_at, keywords, category, usage_count, outcome_score`

func scanLearning(row interface{ Scan(...any) error }) (*types.Learning, error) {
	var l types.Learning
	var keywords string
	if err := row.Scan(&l.ID, &l.Content, &l.SourceType, &l.SourceRef, &l.CreatedAt,
		&keywords, &l.Category, &l.UsageCount, &l.OutcomeScore); err != nil {
		return nil, err
	}
	l.Keywords = decodeStringSlice(keywords)
	return &l, nil
}

func (s *Storage) GetLearning(ctx context.Context, id int64) (*types.Learning, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+learningColumns+` FROM learnings WHERE id = ?`, id)
	l, err := scanLearning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &txerr.NotFoundError{Kind: "learning", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, txerr.Database(err)
	}
	return l, nil
}

func (s *Storage) ListLearnings(ctx context.Context) ([]*types.Learning, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+learningColumns+` FROM learnings ORDER BY created_at DESC`)
	if err != nil {
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []*types.Learning
	for rows.Next() {
		l, err := scanLearning(rows)
		if err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, l)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) DeleteLearning(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM learnings WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "learning", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *Storage) UpdateOutcome(ctx context.Context, id int64, score float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE learnings SET outcome_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "learning", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *Storage) RecordUsage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE learnings SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return txerr.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txerr.Database(err)
	}
	if n == 0 {
		return &txerr.NotFoundError{Kind: "learning", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

// SearchTokens runs matchExpr (already phrase/NEAR/OR-formatted by
// internal/learning) against the learnings_fts virtual table and ranks
// by SQLite's bm25() — the concrete BM25 the spec's formula builds on.
// bm25() returns lower-is-better; we negate so the caller's "best first"
// convention (higher score first) holds for every query type.
func (s *Storage) SearchTokens(ctx context.Context, matchExpr string, limit int) ([]storage.TokenHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, -bm25(learnings_fts) AS score
		FROM learnings_fts
		WHERE learnings_fts MATCH ?
		ORDER BY score DESC
		LIMIT ?`, matchExpr, limit)
	if err != nil {
		if isFTS5SyntaxErr(err) {
			// A malformed match expression (e.g. a relaxed query with no
			// terms left) is a normal "no results" case, not a store failure.
			return nil, nil
		}
		return nil, txerr.Database(err)
	}
	defer rows.Close()
	var out []storage.TokenHit
	for rows.Next() {
		var hit storage.TokenHit
		if err := rows.Scan(&hit.LearningID, &hit.BM25); err != nil {
			return nil, txerr.Database(err)
		}
		out = append(out, hit)
	}
	return out, txerr.Database(rows.Err())
}

func (s *Storage) GetConfigFloat(ctx context.Context, key string, def float64) (float64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, txerr.Database(err)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, nil
	}
	return f, nil
}
