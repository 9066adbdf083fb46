package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// applyLegacyLabelRewrites renames labels according to a generic
// "label.rewrite.<from> = <to>" config convention instead of hardcoding
// specific renames (spec §9: the source's DevOps->DevOFps rename and
// AISEO removal are treated as ambiguous artifacts, not contract; the
// port exposes the rewrite mechanism and leaves the map empty by
// default — operators populate config rows if they need the source's
// specific fixes).
func applyLegacyLabelRewrites(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT key, value FROM config WHERE key LIKE 'label.rewrite.%' ESCAPE '\'`)
	if err != nil {
		return fmt.Errorf("list label rewrite config: %w", err)
	}
	defer rows.Close()

	rewrites := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan label rewrite config: %w", err)
		}
		from := strings.TrimPrefix(key, "label.rewrite.")
		if from == "" {
			continue
		}
		if value == "" {
			// An empty target means "remove this label" (the AISEO case).
			rewrites[from] = ""
		} else {
			rewrites[from] = value
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for from, to := range rewrites {
		if to == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE lower(name) = lower(?)`, from); err != nil {
				return fmt.Errorf("remove legacy label %q: %w", from, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE labels SET name = ? WHERE lower(name) = lower(?)`, to, from,
		); err != nil {
			return fmt.Errorf("rename legacy label %q -> %q: %w", from, to, err)
		}
	}
	return nil
}
