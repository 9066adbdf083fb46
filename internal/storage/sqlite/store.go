// Package sqlite implements storage.Store on top of an embedded,
// pure-Go SQLite (github.com/ncruces/go-sqlite3, wazero-compiled, no
// cgo). One file is the whole database: tasks, dependencies, claims,
// workers, orchestrator state, attempts, learnings (plus their FTS5
// inverted index), candidates and labels.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver" // registers database/sql driver "sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"  // embeds the SQLite binary (no cgo)
	"github.com/tetratelabs/wazero"

	"github.com/jamesaphoenix/tx/internal/storage/sqlite/migrations"
)

// Storage implements storage.Store.
type Storage struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

func init() {
	// Avoid the ~220ms wazero JIT-compile cost on every process start by
	// caching the compiled module under the user cache dir.
	cacheDir := ""
	if uc, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(uc, "tx", "wasm")
	}
	var cache wazero.CompilationCache
	if cacheDir != "" {
		if c, err := wazero.NewCompilationCacheWithDir(cacheDir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

// Open creates or opens the SQLite database at path (use ":memory:" for
// an ephemeral, single-connection database used by tests) with a 30s
// busy timeout, runs the schema and all migrations, and returns a ready
// Storage.
func Open(ctx context.Context, path string) (*Storage, error) {
	return OpenWithTimeout(ctx, path, 30*time.Second)
}

// OpenWithTimeout is Open with a configurable busy timeout.
func OpenWithTimeout(ctx context.Context, path string, busyTimeout time.Duration) (*Storage, error) {
	timeoutMs := int64(busyTimeout / time.Millisecond)
	inMemory := path == ":memory:"

	var connStr string
	if inMemory {
		connStr = fmt.Sprintf("file:txmem?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_txlock=immediate", timeoutMs)
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		connStr = fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_txlock=immediate", path, timeoutMs)
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if inMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxConns := runtime.NumCPU() + 1 // 1 writer + N readers, matches SQLite's WAL model
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0)

		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	absPath := path
	if !inMemory {
		if absPath, err = filepath.Abs(path); err != nil {
			return nil, fmt.Errorf("resolve absolute path: %w", err)
		}
	}

	return &Storage{db: db, path: absPath}, nil
}

// Path returns the absolute path to the database file ("" for :memory:).
func (s *Storage) Path() string { return s.path }

// Close checkpoints the WAL and closes the connection pool.
func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if !strings.Contains(s.path, "txmem") {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

// UnderlyingDB exposes the pool for callers (e.g. internal/export) that
// need scoped, non-transactional access without growing the Store
// interface.
func (s *Storage) UnderlyingDB() *sql.DB { return s.db }

// RunInTransaction runs fn inside a transaction. The connection string's
// _txlock=immediate makes every BEGIN a BEGIN IMMEDIATE, so SQLite
// acquires the write lock up front and serializes concurrent writers per
// spec §4.5/§5 instead of deadlocking on lock upgrade.
func (s *Storage) RunInTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
