package observer

import (
	"context"
	"fmt"
	"sync"
)

// MockObserver is a test double that records every pattern-execution event
// it is handed, in the order OnEvent is called, so a reactor test can assert
// on which started/exited/succeeded-or-failed events a run produced. Through
// a Manager each event arrives from its own goroutine, so that order is not
// necessarily the order the run emitted them in.
type MockObserver struct {
	name       string
	events     []Event
	callCount  int
	mu         sync.Mutex
	filter     EventFilter
	shouldFail bool
	failError  error
}

// NewMockObserver creates a mock observer registered under name.
func NewMockObserver(name string) *MockObserver {
	return &MockObserver{
		name:   name,
		events: make([]Event, 0),
	}
}

// Name returns the observer's name.
func (m *MockObserver) Name() string {
	return m.name
}

// Filter returns the event filter, if one was set with SetFilter.
func (m *MockObserver) Filter() EventFilter {
	return m.filter
}

// OnEvent records event and, if configured via SetShouldFail, returns the
// configured failure — letting a test exercise the manager's
// failed-delivery bookkeeping without a real observer misbehaving.
func (m *MockObserver) OnEvent(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.events = append(m.events, event)

	if m.shouldFail {
		if m.failError != nil {
			return m.failError
		}
		return fmt.Errorf("mock observer error")
	}

	return nil
}

// GetEvents returns a copy of every event recorded so far, in delivery
// order.
func (m *MockObserver) GetEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	eventsCopy := make([]Event, len(m.events))
	copy(eventsCopy, m.events)
	return eventsCopy
}

// EventsOfType returns the recorded events matching typ, in delivery
// order — useful for asserting a run emitted exactly one pattern.succeeded
// without also asserting on the process.exited lines in between.
func (m *MockObserver) EventsOfType(typ EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Event
	for _, e := range m.events {
		if e.Type == typ {
			matched = append(matched, e)
		}
	}
	return matched
}

// LastStatus returns the Status field of the most recently recorded
// pattern.succeeded or pattern.failed event, and whether one has arrived
// yet — the terminal outcome a test usually cares about.
func (m *MockObserver) LastStatus() (status string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if e.Type == EventTypePatternSucceeded || e.Type == EventTypePatternFailed {
			return e.Status, true
		}
	}
	return "", false
}

// GetCallCount returns the number of times OnEvent was called.
func (m *MockObserver) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// SetFilter sets the event filter consulted before OnEvent is called.
func (m *MockObserver) SetFilter(filter EventFilter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = filter
}

// SetShouldFail makes every future OnEvent call return err (or a generic
// error if err is nil).
func (m *MockObserver) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// Reset clears all recorded events and resets the call count.
func (m *MockObserver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make([]Event, 0)
	m.callCount = 0
}
