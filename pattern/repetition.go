package pattern

import "syscall"

// repetitionState grounds on petriish/__init__.py's Repetition.State. It is
// the one pattern whose Start is legitimately called more than once: each
// time child has succeeded and exit has failed, a completely
// fresh child and exit instance are instantiated and started in place,
// synchronously, from inside ProcessEnded.
type repetitionState struct {
	pattern Pattern
	child   State // nil only before the first Start
	exit    State
}

func newRepetitionState(p Pattern) *repetitionState {
	return &repetitionState{pattern: p}
}

// Start has no "already started" guard, unlike every other pattern's
// State: it is the restart mechanism Repetition uses on itself.
func (s *repetitionState) Start() error {
	cs := s.pattern.Child.Instantiate()
	es := s.pattern.Exit.Instantiate()

	var firstErr error
	if err := cs.Start(); err != nil {
		firstErr = err
	}
	if err := es.Start(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.child = cs
	s.exit = es
	return firstErr
}

func (s *repetitionState) ProcessEnded(pid int, ws syscall.WaitStatus) error {
	if s.child == nil {
		panic(ErrNotStarted)
	}

	var firstErr error
	if err := s.child.ProcessEnded(pid, ws); err != nil {
		firstErr = err
	}
	if err := s.exit.ProcessEnded(pid, ws); err != nil && firstErr == nil {
		firstErr = err
	}

	if s.child.Status() == SUCCEEDED && s.exit.Status() == FAILED {
		if err := s.Start(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *repetitionState) Status() Status {
	if s.child == nil {
		return NEW
	}
	c := s.child.Status()
	e := s.exit.Status()

	switch {
	case c == SUCCEEDED && e == SUCCEEDED:
		return FAILED
	case c == FAILED && e == FAILED:
		return FAILED
	case c == FAILED && e == SUCCEEDED:
		return SUCCEEDED
	case c == RUNNING || e == RUNNING:
		return RUNNING
	default:
		panic(ErrInvariant)
	}
}
