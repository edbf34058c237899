package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smilemakc/patterex/internal/infrastructure/logger"
)

// WebSocketObserver broadcasts execution events to connected WebSocket
// clients through a WebSocketHub.
type WebSocketObserver struct {
	name   string
	filter EventFilter
	logger *logger.Logger
	hub    *WebSocketHub
}

// WebSocketMessage is the envelope sent to WebSocket clients.
type WebSocketMessage struct {
	Type      string         `json:"type"` // "event" or "control"
	Event     *EventPayload  `json:"event,omitempty"`
	Control   map[string]any `json:"control,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventPayload is the WebSocket wire representation of an Event.
type EventPayload struct {
	EventType   string    `json:"event_type"`
	ExecutionID string    `json:"execution_id"`
	Path        string    `json:"path"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Pid         *int      `json:"pid,omitempty"`
	ExitCode    *int      `json:"exit_code,omitempty"`
	Error       *string   `json:"error,omitempty"`
}

// WebSocketObserverOption configures WebSocketObserver.
type WebSocketObserverOption func(*WebSocketObserver)

// WithWebSocketFilter sets the event filter.
func WithWebSocketFilter(filter EventFilter) WebSocketObserverOption {
	return func(o *WebSocketObserver) {
		o.filter = filter
	}
}

// WithWebSocketLogger sets the logger instance.
func WithWebSocketLogger(l *logger.Logger) WebSocketObserverOption {
	return func(o *WebSocketObserver) {
		o.logger = l
	}
}

// NewWebSocketObserver creates a new observer broadcasting through hub.
func NewWebSocketObserver(hub *WebSocketHub, opts ...WebSocketObserverOption) *WebSocketObserver {
	obs := &WebSocketObserver{
		name: "websocket",
		hub:  hub,
	}
	for _, opt := range opts {
		opt(obs)
	}
	return obs
}

// Name returns the observer's name.
func (o *WebSocketObserver) Name() string {
	return o.name
}

// Filter returns the event filter.
func (o *WebSocketObserver) Filter() EventFilter {
	return o.filter
}

// OnEvent broadcasts the event to clients watching this execution.
func (o *WebSocketObserver) OnEvent(ctx context.Context, event Event) error {
	message := o.eventToMessage(event)

	data, err := json.Marshal(message)
	if err != nil {
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "failed to marshal websocket message", "error", err, "event_type", string(event.Type))
		}
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	o.hub.BroadcastToExecution(event.ExecutionID, data)
	return nil
}

func (o *WebSocketObserver) eventToMessage(event Event) *WebSocketMessage {
	payload := &EventPayload{
		EventType:   string(event.Type),
		ExecutionID: event.ExecutionID,
		Path:        event.Path,
		Kind:        event.Kind,
		Status:      event.Status,
		Timestamp:   event.Timestamp,
		Pid:         event.Pid,
		ExitCode:    event.ExitCode,
	}

	if event.Error != nil {
		errStr := event.Error.Error()
		payload.Error = &errStr
	}

	return &WebSocketMessage{
		Type:      "event",
		Event:     payload,
		Timestamp: event.Timestamp,
	}
}

// GetHub returns the WebSocket hub, for HTTP handler integration.
func (o *WebSocketObserver) GetHub() *WebSocketHub {
	return o.hub
}
