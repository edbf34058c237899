package pattern

import "syscall"

// alternativeState grounds on petriish/__init__.py's Alternative.State:
// every child starts together, every child runs to completion (there is no
// early return on the first SUCCEEDED child — see DESIGN.md's Open
// Question decision), and the composite succeeds only if exactly one
// child succeeded.
type alternativeState struct {
	pattern  Pattern
	children []State
}

func newAlternativeState(p Pattern) *alternativeState {
	return &alternativeState{pattern: p}
}

func (s *alternativeState) Start() error {
	if s.children != nil {
		panic(ErrAlreadyStarted)
	}
	s.children = make([]State, len(s.pattern.Children))
	var firstErr error
	for i, child := range s.pattern.Children {
		cs := child.Instantiate()
		s.children[i] = cs
		if err := cs.Start(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *alternativeState) ProcessEnded(pid int, ws syscall.WaitStatus) error {
	if s.children == nil {
		panic(ErrNotStarted)
	}
	var firstErr error
	for _, c := range s.children {
		if err := c.ProcessEnded(pid, ws); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *alternativeState) Status() Status {
	if s.children == nil {
		return NEW
	}

	allCount := len(s.pattern.Children)
	if allCount == 0 {
		return FAILED
	}

	var newCount, running, succeeded, failed int
	for _, c := range s.children {
		switch c.Status() {
		case NEW:
			newCount++
		case RUNNING:
			running++
		case SUCCEEDED:
			succeeded++
		case FAILED:
			failed++
		}
	}

	if newCount == allCount {
		return NEW
	}
	if newCount != 0 {
		panic(ErrInvariant)
	}
	if running > 0 {
		return RUNNING
	}
	if succeeded+failed != allCount {
		panic(ErrInvariant)
	}
	if succeeded == 1 {
		return SUCCEEDED
	}
	return FAILED
}
