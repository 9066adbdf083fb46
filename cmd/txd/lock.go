package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrDaemonLocked is returned when another txd process already holds the
// lock file, adapted from the teacher's daemon.lock contract
// (cmd/bd/daemon_lock.go) onto syscall.Flock directly rather than a
// platform-split helper pair, since txd only targets unix-like hosts.
var ErrDaemonLocked = errors.New("daemon lock already held by another process")

// lockInfo is the JSON metadata written into the lock file.
type lockInfo struct {
	PID       int       `json:"pid"`
	Database  string    `json:"database"`
	StartedAt time.Time `json:"startedAt"`
}

type daemonLock struct {
	file *os.File
}

func acquireDaemonLock(dataDir, dbPath string) (*daemonLock, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	lockPath := filepath.Join(dataDir, "daemon.lock")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrDaemonLocked
		}
		return nil, fmt.Errorf("flock: %w", err)
	}

	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	_ = enc.Encode(lockInfo{PID: os.Getpid(), Database: dbPath, StartedAt: time.Now().UTC()})
	_ = f.Sync()

	return &daemonLock{file: f}, nil
}

func (l *daemonLock) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
