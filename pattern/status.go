// Package pattern implements the workflow pattern algebra: a small, closed
// set of composable node kinds (Sequence, Parallelization, Alternative,
// Repetition, Command) whose instances track OS-process-backed execution
// state. A Pattern describes the shape of a run; a State is the live,
// mutable instance produced by Instantiate.
package pattern

// Status is the lifecycle of a pattern instance. There are exactly four
// values and no others: a node starts at NEW, moves to RUNNING once
// started, and ends at exactly one of SUCCEEDED or FAILED. Terminal
// statuses are absorbing for every pattern except Repetition, which
// restarts itself in place rather than exposing a terminal status that
// later reverts.
type Status int

const (
	// NEW is the status of a pattern instance that has been created but
	// not yet started.
	NEW Status = iota
	// RUNNING is the status of a pattern instance that has been started
	// and has not yet reached a terminal status.
	RUNNING
	// SUCCEEDED is a terminal status.
	SUCCEEDED
	// FAILED is a terminal status.
	FAILED
)

// String renders a Status the way log lines and event payloads expect.
func (s Status) String() string {
	switch s {
	case NEW:
		return "NEW"
	case RUNNING:
		return "RUNNING"
	case SUCCEEDED:
		return "SUCCEEDED"
	case FAILED:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is SUCCEEDED or FAILED.
func (s Status) Terminal() bool {
	return s == SUCCEEDED || s == FAILED
}
