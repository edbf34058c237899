// Package api exposes patterex's HTTP surface: submit a pattern document
// for execution, poll an execution's status, and stream its events over a
// WebSocket. It is deliberately thin — there is no workflow storage, no
// auth, no multi-tenancy, matching spec.md's Non-goals — but it follows the
// teacher's gin handler-struct-plus-method idiom throughout.
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smilemakc/patterex/internal/config"
	"github.com/smilemakc/patterex/internal/infrastructure/logger"
	"github.com/smilemakc/patterex/internal/observer"
)

// RequestIDHeader is the header carrying a request's correlation ID, set on
// every response the same way the teacher's logging middleware does.
const RequestIDHeader = "X-Request-ID"

const contextKeyRequestID = "request_id"

// Server bundles the gin engine, the observer manager driving every
// execution's event stream, and the volatile execution registry.
type Server struct {
	engine   *gin.Engine
	handlers *Handlers
	mgr      *observer.Manager
	logger   *logger.Logger
	httpSrv  *http.Server
	cfg      config.ServerConfig
}

// NewServer wires an observer.Manager from cfg (logger, HTTP callback, and
// WebSocket observers, each optional), builds the execution registry and
// handlers, and registers routes on a fresh gin.Engine in release mode with
// the teacher's request-logging and panic-recovery middleware shape.
func NewServer(cfg *config.Config, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	mgr := observer.NewManager(observer.WithLogger(log), observer.WithBufferSize(cfg.Observer.BufferSize))
	hub := observer.NewWebSocketHub(log)

	if cfg.Observer.EnableLogger {
		_ = mgr.Register(observer.NewLoggerObserver(log))
	}
	if cfg.Observer.EnableHTTP && cfg.Observer.HTTPCallbackURL != "" {
		httpObs := observer.NewHTTPCallbackObserver(
			cfg.Observer.HTTPCallbackURL,
			observer.WithHTTPMethod(cfg.Observer.HTTPMethod),
			observer.WithHTTPHeaders(cfg.Observer.HTTPHeaders),
			observer.WithHTTPTimeout(cfg.Observer.HTTPTimeout),
			observer.WithHTTPRetry(cfg.Observer.HTTPMaxRetries, cfg.Observer.HTTPRetryDelay, 2.0),
		)
		_ = mgr.Register(httpObs)
	}
	if cfg.Observer.EnableWebSocket {
		_ = mgr.Register(observer.NewWebSocketObserver(hub, observer.WithWebSocketLogger(log)))
	}

	registry := NewRegistry()
	handlers := NewHandlers(registry, mgr, hub, log)

	engine := gin.New()
	engine.Use(requestLogger(log), recovery(log))
	if cfg.Server.CORS {
		engine.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))
	}

	engine.POST("/workflows", handlers.HandleSubmit)
	engine.GET("/workflows/:id", handlers.HandleGet)
	engine.GET("/workflows/:id/stream", handlers.HandleStream)
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/observers/stats", handlers.HandleObserverStats)

	return &Server{engine: engine, handlers: handlers, mgr: mgr, logger: log, cfg: cfg.Server}
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// at which point it shuts down within cfg.Server.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// Engine exposes the underlying gin.Engine, mostly so tests can drive it
// with httptest.NewServer without going through ListenAndServe.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Manager exposes the observer.Manager wired by NewServer so the cron
// trigger scheduler can share it — a scheduled run's events flow through
// the same observers (logger, HTTP callback, WebSocket) a submitted run's
// events do.
func (s *Server) Manager() *observer.Manager {
	return s.mgr
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		log.Info("request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "error", r, "path", c.Request.URL.Path, "stack", string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrInternalServer)
			}
		}()
		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, allowed := range allowedOrigins {
			if allowed == "*" || allowed == origin {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				break
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
