package pattern

import "syscall"

// parallelState grounds on petriish/__init__.py's Parallelization.State:
// every child starts together; the composite succeeds only once every
// child has succeeded, and fails as soon as the children that have
// terminalized include at least one failure and none are still running.
type parallelState struct {
	pattern  Pattern
	children []State // nil until Start
}

func newParallelState(p Pattern) *parallelState {
	return &parallelState{pattern: p}
}

func (s *parallelState) Start() error {
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

func (s *parallelState) ProcessEnded(pid int, ws syscall.WaitStatus) error {
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

func (s *parallelState) Status() Status {
	if s.children == nil {
		return NEW
	}

	allCount := len(s.pattern.Children)
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

	if succeeded == allCount {
		return SUCCEEDED
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
	if failed > 0 {
		return FAILED
	}
	panic(ErrInvariant)
}
