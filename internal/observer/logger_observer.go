package observer

import (
	"context"

	"github.com/smilemakc/patterex/internal/infrastructure/logger"
)

// LoggerObserver writes a structured log line for every event it receives.
// It is the minimum always-on observer: wherever a run executes, a
// LoggerObserver is typically registered alongside any optional HTTP/
// WebSocket observers.
type LoggerObserver struct {
	logger *logger.Logger
	filter EventFilter
}

// NewLoggerObserver creates a LoggerObserver writing through l.
func NewLoggerObserver(l *logger.Logger) *LoggerObserver {
	return &LoggerObserver{logger: l}
}

// Name returns the observer's name.
func (o *LoggerObserver) Name() string {
	return "logger"
}

// Filter returns the event filter (nil: logs everything).
func (o *LoggerObserver) Filter() EventFilter {
	return o.filter
}

// SetFilter restricts which events this observer logs.
func (o *LoggerObserver) SetFilter(filter EventFilter) {
	o.filter = filter
}

// OnEvent logs the event at Info level, or Error when it carries an error.
func (o *LoggerObserver) OnEvent(ctx context.Context, event Event) error {
	args := []any{
		"execution_id", event.ExecutionID,
		"path", event.Path,
		"kind", event.Kind,
		"status", event.Status,
	}
	if event.Pid != nil {
		args = append(args, "pid", *event.Pid)
	}
	if event.ExitCode != nil {
		args = append(args, "exit_code", *event.ExitCode)
	}
	if event.Error != nil {
		args = append(args, "error", event.Error)
		o.logger.ErrorContext(ctx, string(event.Type), args...)
		return nil
	}
	o.logger.InfoContext(ctx, string(event.Type), args...)
	return nil
}
