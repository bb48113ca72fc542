// filename: internal/adminapi/server/server.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novasec/engine/internal/adminapi/routes"
	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/router"
)

// Server HTTP сервер Admin API движка // v1.0
type Server struct {
	config *Config
	deps   Dependencies
	logger *logging.Logger
	router *gin.Engine
	server *http.Server
}

// Config конфигурация сервера // v1.0
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	LogLevel     string
	// APIKeyHash bcrypt хеш ключа X-API-Key; пустой отключает проверку
	APIKeyHash string
	RateLimit  RateLimitConfig
	TLS        *tls.Config
}

// Dependencies компоненты движка, доступные через API
type Dependencies struct {
	Router   *router.Router
	Store    catalog.Store
	Registry *registry.Registry
	Gatherer prometheus.Gatherer
	Checks   map[string]routes.Check
}

// NewServer создает HTTP сервер // v1.0
func NewServer(config *Config, deps Dependencies, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if config.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(loggingMiddleware(logger))
	engine.Use(corsMiddleware())

	s := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		router: engine,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
		TLSConfig:    config.TLS,
	}

	return s
}

// setupRoutes настраивает роуты API // v1.0
func (s *Server) setupRoutes() {
	healthHandler := routes.NewHealthHandler(s.deps.Router, s.deps.Checks, s.logger)
	envHandler := routes.NewEnvironmentHandler(s.deps.Router, s.logger)

	if s.deps.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.HealthCheck)
		v1.GET("/health/ready", healthHandler.ReadinessCheck)
		v1.GET("/health/live", healthHandler.LivenessCheck)
	}

	protected := v1.Group("")
	protected.Use(apiKeyMiddleware(s.config.APIKeyHash, s.logger))
	protected.Use(rateLimitMiddleware(s.config.RateLimit))
	{
		env := protected.Group("/environment")
		env.GET("", envHandler.GetEnvironment)
		env.GET("/graph", envHandler.GetGraph)
		env.POST("/reload", envHandler.Reload)
		env.POST("/validate", envHandler.Validate)

		protected.POST("/test", envHandler.Test)

		if s.deps.Store != nil {
			catalogHandler := routes.NewCatalogHandler(s.deps.Store, s.deps.Registry, s.logger)
			cat := protected.Group("/catalog")
			cat.GET("/environments/:name", catalogHandler.GetManifest)
			cat.PUT("/environments/:name", catalogHandler.PutManifest)
			cat.GET("/assets/:type", catalogHandler.List)
			cat.GET("/assets/:type/*name", catalogHandler.Get)
			cat.PUT("/assets/:type/*name", catalogHandler.Put)
			cat.DELETE("/assets/:type/*name", catalogHandler.Delete)
		}
	}

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "NovaSec Engine",
			"environment": s.deps.Router.EnvironmentName(),
			"status":      "running",
			"timestamp":   time.Now().Format(time.RFC3339),
			"endpoints": gin.H{
				"health":      "/api/v1/health",
				"environment": "/api/v1/environment",
				"catalog":     "/api/v1/catalog",
				"metrics":     "/metrics",
			},
		})
	})

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Endpoint not found",
			"message":   fmt.Sprintf("Method %s %s not found", c.Request.Method, c.Request.URL.Path),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}

// Start запускает HTTP сервер; с TLS конфигурацией слушает HTTPS // v1.0
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"host": s.config.Host,
		"port": s.config.Port,
		"tls":  s.config.TLS != nil,
	}).Info("Starting Admin API server")

	var err error
	if s.config.TLS != nil {
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop останавливает HTTP сервер // v1.0
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Admin API server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// GetRouter возвращает роутер для тестирования // v1.0
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
