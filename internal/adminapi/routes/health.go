// filename: internal/adminapi/routes/health.go
package routes

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/router"
)

// Check проверка зависимости для /health/ready
type Check func(ctx context.Context) error

// HealthHandler обработчик проверки здоровья // v1.0
type HealthHandler struct {
	logger    *logging.Logger
	router    *router.Router
	checks    map[string]Check
	startTime time.Time
}

// NewHealthHandler создает обработчик здоровья // v1.0
func NewHealthHandler(r *router.Router, checks map[string]Check, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &HealthHandler{
		logger:    logger,
		router:    r,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthCheck общее состояние: активное окружение и время работы // v1.0
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":     "healthy",
		"service":    "novasec-engine",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"go_version": runtime.Version(),
	}

	if env := h.router.Current(); env != nil {
		health["environment"] = gin.H{
			"name":     env.Name,
			"id":       env.ID,
			"built_at": env.BuiltAt.Format(time.RFC3339),
			"assets":   len(env.Assets),
		}
	} else {
		health["status"] = "degraded"
		health["environment"] = nil
	}

	c.JSON(http.StatusOK, health)
}

// ReadinessCheck готов, если окружение активно и все зависимости отвечают // v1.0
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := h.router.Current() != nil
	dependencies := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			ready = false
			dependencies[name] = gin.H{"status": "unavailable", "error": err.Error()}
			continue
		}
		dependencies[name] = gin.H{"status": "ready"}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":        ready,
		"environment":  h.router.Current() != nil,
		"dependencies": dependencies,
	})
}

// LivenessCheck сервис отвечает // v1.0
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive": true,
		"pid":   os.Getpid(),
	})
}
