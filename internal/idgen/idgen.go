// Package idgen generates opaque entity identifiers.
//
// IDs are either deterministic (derived from a seed, for reproducible
// tests) or random. Both forms share the same shape so callers never
// need to distinguish them: prefix, hyphen, 8 lowercase hex characters.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const hexLen = 8

// Task generates a task id of the form "tx-<8 hex>".
func Task() string {
	return random("tx")
}

// TaskFromSeed deterministically derives a task id from seeding input,
// used by tests that need reproducible ids.
func TaskFromSeed(title, description string, created time.Time, seed string) string {
	return deterministic("tx", title, description, created, seed)
}

// Worker generates a worker id of the form "worker-<8 hex>".
func Worker() string {
	return random("worker")
}

// WorkerFromSeed deterministically derives a worker id from seeding input.
func WorkerFromSeed(name, hostname string, registered time.Time, seed string) string {
	return deterministic("worker", name, hostname, registered, seed)
}

func random(prefix string) string {
	var buf [hexLen / 2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure is effectively unrecoverable on any real
		// platform; fall back to a time-derived hash rather than panic.
		return deterministic(prefix, fmt.Sprintf("%d", time.Now().UnixNano()), "", time.Now(), "")
	}
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(buf[:]))
}

func deterministic(prefix, a, b string, created time.Time, seed string) string {
	h := sha256.New()
	h.Write([]byte(a))
	h.Write([]byte(b))
	h.Write([]byte(created.Format(time.RFC3339Nano)))
	h.Write([]byte(seed))
	sum := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s-%s", prefix, sum[:hexLen])
}
