package sqlite

import "time"

// sqlNow is the single clock source for "now" writes so tests can see a
// consistent timestamp format (RFC3339Nano, UTC) end to end.
func sqlNow() time.Time { return time.Now().UTC() }
