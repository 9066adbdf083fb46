// Package export implements the best-effort auto-sync background export
// described in spec §5 and §9 ("background fibers for auto-sync"),
// adapted from the teacher's internal/export policy/executor split.
// Each mutation fires an export attempt on a bounded goroutine pool and
// never joins on it; failures are logged and swallowed; toggling the
// config row off stops further dispatch without cancelling in-flight
// attempts.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ErrorPolicy mirrors the teacher's export policy enum, narrowed to the
// two variants the auto-sync dispatcher actually needs: a failed export
// is only logged (at error level under strict, warn level under
// best-effort), so "partial"/"required-core" retry semantics don't apply.
type ErrorPolicy string

const (
	PolicyStrict     ErrorPolicy = "strict"
	PolicyBestEffort ErrorPolicy = "best-effort"
)

// Entity is the kind of record being exported (spec §9: task/learning/attempt mutations).
type Entity string

const (
	EntityTask     Entity = "task"
	EntityLearning Entity = "learning"
	EntityAttempt  Entity = "attempt"
)

// Enabled reports whether the config row currently allows auto-sync.
// Dispatch re-checks this on every call, before handing work to the pool,
// so toggling it off stops new exports without touching ones already in
// flight.
type Enabled func(ctx context.Context) bool

// Dispatcher fires fire-and-forget export attempts on a bounded
// goroutine pool per mutation.
type Dispatcher struct {
	dir     string
	policy  ErrorPolicy
	enabled Enabled
	logger  *slog.Logger

	mu   sync.Mutex
	pool *pool.Pool
}

// New builds a Dispatcher writing line-delimited JSON under dir (the
// concrete stand-in for the external auto-sync journal per SPEC_FULL.md
// §4's export note).
func New(dir string, policy ErrorPolicy, enabled Enabled, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		dir:     dir,
		policy:  policy,
		enabled: enabled,
		logger:  logger,
		pool:    pool.New().WithMaxGoroutines(4),
	}
}

// Dispatch launches a background attempt to append record to
// <dir>/<entity>.jsonl. The caller never waits on the write or its
// result, and returns immediately while fewer than four exports are in
// flight; with four already running, Dispatch blocks until one of them
// finishes and a pool slot frees up.
func (d *Dispatcher) Dispatch(ctx context.Context, entity Entity, record any) {
	if !d.enabled(ctx) {
		return
	}
	d.mu.Lock()
	p := d.pool
	d.mu.Unlock()

	p.Go(func() {
		if err := d.write(entity, record); err != nil {
			if d.policy == PolicyStrict {
				d.logger.Error("auto-sync export failed", "entity", string(entity), "error", err)
			} else {
				d.logger.Warn("auto-sync export failed", "entity", string(entity), "error", err)
			}
		}
	})
}

func (d *Dispatcher) write(entity Entity, record any) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir export dir: %w", err)
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal export record: %w", err)
	}
	path := filepath.Join(d.dir, string(entity)+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open export journal: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write export record: %w", err)
	}
	return nil
}

// Wait blocks until every dispatched export so far has completed. Only
// used by graceful shutdown and tests; the mutation path never calls it.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	old := d.pool
	d.pool = pool.New().WithMaxGoroutines(4)
	d.mu.Unlock()
	old.Wait()
}
