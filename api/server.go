package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"pixeldesk/models"
	"pixeldesk/service"
)

const shutdownTimeout = 10 * time.Second

// SweepCoordinator runs sweeps on behalf of HTTP callers
type SweepCoordinator interface {
	RunNow(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error)
	TriggerAsync(ctx context.Context)
}

// RequestRecorder observes served requests
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Dependencies are the services behind the HTTP handlers
type Dependencies struct {
	Users       service.UserService
	Bindings    service.BindingService
	Points      service.PointsService
	Sweeper     service.SweepService
	Coordinator SweepCoordinator
	Config      service.WorkstationConfigProvider
	Chat        service.ChatService

	// Health reports backing store reachability; nil means always healthy
	Health func(ctx context.Context) error

	// Recorder may be nil
	Recorder RequestRecorder
}

// Options holds request authentication secrets
type Options struct {
	JWTSecret  string
	CronSecret string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Recorder))

	h := &handlers{deps: deps}
	auth := authenticate([]byte(opts.JWTSecret), deps.Users)
	sweepGuard := cronOrAdmin([]byte(opts.JWTSecret), opts.CronSecret)

	router.GET("/healthz", h.health)

	apiGroup := router.Group("/api")
	if deps.Coordinator != nil {
		apiGroup.Use(lazySweep(deps.Coordinator))
	}

	workstations := apiGroup.Group("/workstations")
	workstations.GET("/stats", h.stats)
	workstations.POST("/bindings", auth, h.bind)
	workstations.DELETE("/bindings", auth, h.unbind)
	workstations.GET("/bindings", auth, h.listBindings)
	workstations.POST("/cleanup-expired", sweepGuard, h.runSweep)
	workstations.GET("/cleanup-expired", sweepGuard, h.previewSweep)

	apiGroup.GET("/points/history", auth, h.pointsHistory)
	apiGroup.POST("/ai/chat", auth, h.chat)

	admin := apiGroup.Group("/admin", auth, requireAdmin)
	admin.GET("/workstation-config", h.getWorkstationConfig)
	admin.PUT("/workstation-config", h.updateWorkstationConfig)

	return router
}

// Server wraps the HTTP listener
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server for handler on addr
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func requestLogger(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)

		if recorder != nil {
			recorder.RecordHTTPRequest(c.Request.Method, route, status, duration)
		}

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": duration,
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Debug("HTTP request served")
	}
}

// lazySweep gives every API request a chance to start an overdue sweep
func lazySweep(coordinator SweepCoordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		coordinator.TriggerAsync(c.Request.Context())
		c.Next()
	}
}
