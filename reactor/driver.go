// Package reactor drives a pattern.Pattern to completion: instantiate it,
// start it, then repeatedly block for any child OS process to exit and feed
// that back into the state tree until the whole thing reaches a terminal
// status.
package reactor

import (
	"context"
	"syscall"
	"time"

	"github.com/smilemakc/patterex/internal/observer"
	"github.com/smilemakc/patterex/pattern"
)

// Run instantiates p, starts it, and blocks until it reaches a terminal
// Status, reaping every exited child process along the way via
// syscall.Wait4. It grounds on petriish/__init__.py's run_workflow_pattern:
// instantiate -> start -> loop wait() -> process_ended -> re-check status.
//
// executionID identifies this run for observer events; mgr may be nil, in
// which case no events are emitted. A failed OS spawn (from the initial
// Start or from an in-flight restart/advance triggered by ProcessEnded)
// aborts the run and is returned as an error — per spec.md §7 this is fatal
// to the engine, not a workflow failure to be represented as FAILED status.
func Run(ctx context.Context, p pattern.Pattern, executionID string, mgr *observer.Manager) (pattern.Status, error) {
	state := p.Instantiate()

	notify(ctx, mgr, observer.EventTypePatternStarted, executionID, string(p.Kind), state.Status(), nil, nil, nil)

	if err := state.Start(); err != nil {
		notify(ctx, mgr, observer.EventTypePatternFailed, executionID, string(p.Kind), state.Status(), nil, nil, err)
		return state.Status(), err
	}

	for state.Status() == pattern.RUNNING {
		pid, ws, err := waitAnyChild()
		if err != nil {
			notify(ctx, mgr, observer.EventTypePatternFailed, executionID, string(p.Kind), state.Status(), nil, nil, err)
			return state.Status(), err
		}

		exitCode := ws.ExitStatus()
		notify(ctx, mgr, observer.EventTypeProcessExited, executionID, string(p.Kind), state.Status(), &pid, &exitCode, nil)

		if err := state.ProcessEnded(pid, ws); err != nil {
			notify(ctx, mgr, observer.EventTypePatternFailed, executionID, string(p.Kind), state.Status(), nil, nil, err)
			return state.Status(), err
		}
	}

	final := state.Status()
	if final == pattern.SUCCEEDED {
		notify(ctx, mgr, observer.EventTypePatternSucceeded, executionID, string(p.Kind), final, nil, nil, nil)
	} else {
		notify(ctx, mgr, observer.EventTypePatternFailed, executionID, string(p.Kind), final, nil, nil, nil)
	}

	return final, nil
}

// waitAnyChild blocks for any child process of this process to change
// state, the Go equivalent of petriish's os.wait(). A syscall.Wait4 with
// pid -1 waits for any child, exactly as POSIX wait() does.
func waitAnyChild() (int, syscall.WaitStatus, error) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &ws, 0, nil)
	return pid, ws, err
}

func notify(
	ctx context.Context,
	mgr *observer.Manager,
	eventType observer.EventType,
	executionID, kind string,
	status pattern.Status,
	pid, exitCode *int,
	err error,
) {
	if mgr == nil {
		return
	}
	mgr.Notify(ctx, observer.Event{
		Type:        eventType,
		ExecutionID: executionID,
		Kind:        kind,
		Status:      status.String(),
		Timestamp:   time.Now(),
		Pid:         pid,
		ExitCode:    exitCode,
		Error:       err,
	})
}
