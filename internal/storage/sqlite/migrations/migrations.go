// Package migrations applies versioned, idempotent schema changes after
// the baseline schema.go has run. Each migration is numbered and
// recorded in schema_migrations so it runs exactly once per database,
// mirroring the teacher's internal/storage/sqlite/migrations layout
// (one file per migration number).
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one versioned, idempotent schema or data change.
type Migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sql.Tx) error
}

// all lists every migration in version order. New migrations are
// appended here, never edited after release.
var all = []Migration{
	{Version: 1, Name: "label_rewrite_map", Apply: applyLegacyLabelRewrites},
}

// Run applies every migration not yet recorded in schema_migrations, in
// version order, each inside its own transaction.
func Run(ctx context.Context, db *sql.DB) error {
	for _, m := range all {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`, m.Version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
