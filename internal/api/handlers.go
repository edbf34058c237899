package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smilemakc/patterex/internal/infrastructure/logger"
	"github.com/smilemakc/patterex/internal/observer"
	"github.com/smilemakc/patterex/pattern"
	"github.com/smilemakc/patterex/reactor"
)

// Handlers provides the HTTP handlers for the workflow execution surface:
// submit a pattern document, poll its status, stream its events. There is
// no workflow *storage* here (spec.md Non-goals) — a request body IS a
// pattern document, every time.
type Handlers struct {
	registry *Registry
	mgr      *observer.Manager
	hub      *observer.WebSocketHub
	logger   *logger.Logger
}

func NewHandlers(registry *Registry, mgr *observer.Manager, hub *observer.WebSocketHub, l *logger.Logger) *Handlers {
	return &Handlers{registry: registry, mgr: mgr, hub: hub, logger: l}
}

// HandleSubmit handles POST /workflows. The body is a pattern document
// (§3.1); it is deserialized, assigned an execution ID, and run to
// completion in a background goroutine — the in-process analogue of the
// teacher's ExecutionManager.ExecuteAsync.
func (h *Handlers) HandleSubmit(c *gin.Context) {
	var doc map[string]any
	if err := bindJSON(c, &doc); err != nil {
		return
	}

	p, err := pattern.DeserializeJSON(doc)
	if err != nil {
		h.logger.Error("failed to deserialize pattern document", "error", err)
		respondAPIError(c, TranslateError(err))
		return
	}

	executionID := uuid.New().String()
	h.registry.Put(&Execution{
		ID:        executionID,
		Status:    pattern.RUNNING.String(),
		StartedAt: time.Now(),
	})

	execLogger := h.logger.WithExecution(executionID)

	go func() {
		status, runErr := reactor.Run(context.Background(), p, executionID, h.mgr)
		if runErr != nil {
			execLogger.Error("workflow execution aborted", "error", runErr)
		}
		h.registry.Finish(executionID, status.String(), runErr)
	}()

	execLogger.Info("workflow execution started")
	respondJSON(c, http.StatusAccepted, gin.H{"execution_id": executionID})
}

// HandleGet handles GET /workflows/{id}.
func (h *Handlers) HandleGet(c *gin.Context) {
	id, ok := getParam(c, "id")
	if !ok {
		return
	}

	exec, ok := h.registry.Get(id)
	if !ok {
		respondAPIError(c, ErrExecutionNotFound)
		return
	}

	respondJSON(c, http.StatusOK, exec)
}

// HandleStream handles GET /workflows/{id}/stream, delegating the actual
// WebSocket upgrade and event fan-out to observer.WebSocketHandler; this
// handler only validates that the execution is known before handing off.
func (h *Handlers) HandleStream(c *gin.Context) {
	id, ok := getParam(c, "id")
	if !ok {
		return
	}

	if _, ok := h.registry.Get(id); !ok {
		respondAPIError(c, ErrExecutionNotFound)
		return
	}

	if c.Request.URL.Query().Get("execution_id") == "" {
		q := c.Request.URL.Query()
		q.Set("execution_id", id)
		c.Request.URL.RawQuery = q.Encode()
	}

	observer.NewWebSocketHandler(h.hub, h.logger).ServeHTTP(c.Writer, c.Request)
}

// HandleObserverStats handles GET /observers/stats, surfacing the observer
// manager's delivery counters so an operator can tell a quiet pattern tree
// apart from a manager whose observers are silently failing.
func (h *Handlers) HandleObserverStats(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.mgr.Stats())
}
