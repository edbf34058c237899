package observer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/smilemakc/patterex/internal/infrastructure/logger"
)

// Manager fans out pattern-execution events to every registered observer.
// A reactor run never blocks on, or aborts because of, an observer: Notify
// returns immediately and each delivery happens in its own goroutine.
type Manager struct {
	observers  []Observer
	logger     *logger.Logger
	mu         sync.RWMutex
	bufferSize int

	delivered atomic.Uint64
	dropped   atomic.Uint64
	recovered atomic.Uint64
}

// ManagerOption configures Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager.
func WithLogger(l *logger.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithBufferSize records a notification buffer size on the manager. Notify
// does not consult it: every delivery runs in its own goroutine.
func WithBufferSize(size int) ManagerOption {
	return func(m *Manager) {
		m.bufferSize = size
	}
}

// NewManager creates a new observer manager.
func NewManager(opts ...ManagerOption) *Manager {
	mgr := &Manager{
		observers:  make([]Observer, 0),
		bufferSize: 100,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Register adds an observer to the manager. A name must be unique among the
// currently registered observers (a name freed by Unregister can be
// registered again): Register keeps a run's event stream addressable
// by observer name for Unregister and for the panic/failure log lines.
func (m *Manager) Register(observer Observer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, obs := range m.observers {
		if obs.Name() == observer.Name() {
			return fmt.Errorf("observer with name %q already registered", observer.Name())
		}
	}

	m.observers = append(m.observers, observer)
	return nil
}

// Unregister removes an observer by name.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, obs := range m.observers {
		if obs.Name() == name {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("observer %q not found", name)
}

// Notify delivers a pattern-execution event (a status transition or a
// process.exited reap) to every registered observer whose Filter accepts
// it. Delivery is fire-and-forget: Notify returns before any observer has
// run, matching spec.md §9's "observation is side-channel only."
func (m *Manager) Notify(ctx context.Context, event Event) {
	m.mu.RLock()
	observersCopy := make([]Observer, len(m.observers))
	copy(observersCopy, m.observers)
	m.mu.RUnlock()

	for _, obs := range observersCopy {
		go m.notifyObserver(ctx, obs, event)
	}
}

func (m *Manager) notifyObserver(ctx context.Context, obs Observer, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered.Add(1)
			if m.logger != nil {
				m.logger.ErrorContext(ctx, "observer panic recovered",
					"observer", obs.Name(),
					"event_type", string(event.Type),
					"execution_id", event.ExecutionID,
					"panic", r,
				)
			}
		}
	}()

	filter := obs.Filter()
	if filter != nil && !filter.ShouldNotify(event) {
		return
	}

	if err := obs.OnEvent(ctx, event); err != nil {
		m.dropped.Add(1)
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "observer notification failed",
				"observer", obs.Name(),
				"event_type", string(event.Type),
				"execution_id", event.ExecutionID,
				"error", err,
			)
		}
		return
	}

	m.delivered.Add(1)
}

// Count returns the number of registered observers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}

// Stats reports how many events this manager has fanned out since
// construction, split by outcome. It backs the HTTP API's observer-health
// endpoint so an operator can tell a quiet pattern tree from a manager
// whose observers are silently failing.
type Stats struct {
	Observers int    `json:"observers"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Recovered uint64 `json:"recovered_panics"`
}

// Stats returns a snapshot of the manager's delivery counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Observers: m.Count(),
		Delivered: m.delivered.Load(),
		Dropped:   m.dropped.Load(),
		Recovered: m.recovered.Load(),
	}
}
