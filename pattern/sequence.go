package pattern

import "syscall"

// sequenceState grounds on petriish/__init__.py's Sequence.State: children
// run one at a time, in order; the composite's status is whatever its
// currently-active child reports, and a child is skipped over (without
// ever being observed as RUNNING by the caller) if it happens to complete
// synchronously inside Start.
type sequenceState struct {
	pattern   Pattern
	started   bool
	nextChild int
	child     State // nil once every child has run to SUCCEEDED
}

func newSequenceState(p Pattern) *sequenceState {
	return &sequenceState{pattern: p}
}

func (s *sequenceState) Start() error {
	if s.started {
		panic(ErrAlreadyStarted)
	}
	s.started = true
	return s.advance()
}

func (s *sequenceState) ProcessEnded(pid int, ws syscall.WaitStatus) error {
	if !s.started {
		panic(ErrNotStarted)
	}
	if s.child == nil {
		return nil
	}
	if err := s.child.ProcessEnded(pid, ws); err != nil {
		return err
	}
	if s.child.Status() == SUCCEEDED {
		return s.advance()
	}
	return nil
}

func (s *sequenceState) Status() Status {
	if !s.started {
		return NEW
	}
	if s.child != nil {
		return s.child.Status()
	}
	if s.nextChild >= len(s.pattern.Children) {
		return SUCCEEDED
	}
	panic(ErrInvariant)
}

// advance instantiates and starts the next child, repeating as long as a
// just-started child turns out to already be SUCCEEDED (an empty Sequence
// or Parallelization, never a real Command). It stops at the first child
// that is still RUNNING or has come up FAILED, leaving that child as the
// active one; it also stops, leaving s.child nil, once every child has run.
func (s *sequenceState) advance() error {
	for {
		if s.nextChild >= len(s.pattern.Children) {
			s.child = nil
			return nil
		}
		next := s.pattern.Children[s.nextChild]
		cs := next.Instantiate()
		s.nextChild++
		s.child = cs
		if err := cs.Start(); err != nil {
			return err
		}
		if cs.Status() != SUCCEEDED {
			return nil
		}
	}
}
