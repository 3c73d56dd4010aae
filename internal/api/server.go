// Package api exposes the core's HTTP façade (spec.md §6) over gin: metric
// and alarm ingest, correlation, RCA, predictive health, and the healing
// orchestrator's submit/approve/cancel/history operations.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bscore/diagnostic-core/internal/api/handlers"
	"github.com/bscore/diagnostic-core/internal/api/middleware"
	"github.com/bscore/diagnostic-core/internal/api/ws"
	"github.com/bscore/diagnostic-core/internal/config"
	"github.com/bscore/diagnostic-core/internal/core"
	"github.com/bscore/diagnostic-core/internal/monitoring"
	"github.com/bscore/diagnostic-core/pkg/logger"
)

type Server struct {
	config     config.HTTPServerConfig
	authConfig config.AuthConfig
	logger     logger.Logger
	service    *core.Service
	hub        *ws.Hub
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg config.HTTPServerConfig, authConfig config.AuthConfig, service *core.Service, hub *ws.Hub, log logger.Logger) *Server {
	if cfg.ListenAddr == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:     cfg,
		authConfig: authConfig,
		logger:     log,
		service:    service,
		hub:        hub,
		router:     router,
	}

	if hub != nil && service != nil {
		service.OnAnomaly(hub.BroadcastAnomaly)
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.InternalAuthMiddleware(s.authConfig, s.logger))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)

	monitoring.SetupPrometheusMetrics(s.router)

	v1 := s.router.Group("/api/v1")

	metricsHandler := handlers.NewMetricsHandler(s.service, s.logger)
	v1.POST("/metrics/ingest", metricsHandler.Ingest)

	alarmsHandler := handlers.NewAlarmsHandler(s.service, s.logger).WithHub(s.hub)
	v1.POST("/alarms", alarmsHandler.Ingest)
	v1.POST("/alarms/correlate", alarmsHandler.Correlate)

	rcaHandler := handlers.NewRCAHandler(s.service, s.logger)
	v1.POST("/rca/analyze", rcaHandler.Analyze)

	predictHandler := handlers.NewPredictHandler(s.service, s.logger).WithHub(s.hub)
	v1.GET("/predict/:stationId/:component", predictHandler.PredictComponent)
	v1.GET("/stations/:stationId/health", predictHandler.StationHealthReport)

	actionsHandler := handlers.NewActionsHandler(s.service, s.logger)
	v1.POST("/actions", actionsHandler.Submit)
	v1.POST("/actions/:actionId/approve", actionsHandler.Approve)
	v1.POST("/actions/:actionId/cancel", actionsHandler.Cancel)
	v1.GET("/actions/history", actionsHandler.History)

	if s.hub != nil {
		s.router.GET("/ws/events", s.hub.ServeWS)
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP façade starting", "addr", s.config.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP façade")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
