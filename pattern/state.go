package pattern

import "syscall"

// State is the live, mutable instance of a Pattern. It is produced once,
// by Pattern.Instantiate, and then driven through exactly the three
// operations spec.md describes:
//
//   - Start is called exactly once, never before Instantiate and never
//     twice. It must not block: for a Command it spawns the OS process and
//     returns; for a composite it starts whichever children are eligible to
//     run immediately and returns once they've all been handed to the OS.
//   - ProcessEnded delivers the exit of some OS process, identified by
//     pid, to every State in the tree that might care about it. States
//     that don't recognize the pid do nothing. It must not block.
//   - Status is a pure read: calling it any number of times, in any order,
//     with no intervening Start/ProcessEnded, never changes anything and
//     never blocks.
//
// A Start or ProcessEnded call that returns a non-nil error means an OS
// process failed to spawn; per spec.md §7 this aborts the run. Calling
// Start twice, or ProcessEnded before Start, is a programmer error and
// panics rather than returning an error — see errors.go.
type State interface {
	Start() error
	ProcessEnded(pid int, ws syscall.WaitStatus) error
	Status() Status
}
