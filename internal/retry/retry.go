// Package retry implements the worker-runtime retry circuit: a pure
// function over failed-attempt count, kept unit-testable without a
// running worker process (spec §4.8).
package retry

// MaxRetries is the number of failed attempts tolerated before a task is
// parked in status blocked instead of being recycled to backlog.
const MaxRetries = 3

// Decision is what the worker runtime should do after an attempt failed.
type Decision int

const (
	// RetryFromBacklog means: release the claim and reset the task to
	// backlog so another worker (or the same one) can pick it up again.
	RetryFromBacklog Decision = iota
	// GiveUpBlocked means: the circuit has tripped; mark the task
	// blocked instead of returning it to the ready set.
	GiveUpBlocked
)

// Next decides the retry circuit's action given the failed-attempt count
// observed immediately after recording the latest failure.
func Next(failedCount int) Decision {
	if failedCount < MaxRetries {
		return RetryFromBacklog
	}
	return GiveUpBlocked
}
