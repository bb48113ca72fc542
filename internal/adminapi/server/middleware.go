// filename: internal/adminapi/server/middleware.go
package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novasec/engine/internal/common/logging"
)

// RequestIDHeader заголовок идентификатора запроса
const RequestIDHeader = "X-Request-ID"

// RateLimitConfig ограничение запросов к защищенным роутам; 0 отключает
type RateLimitConfig struct {
	RequestsPerMinute int
	BlockDuration     time.Duration
}

// rateLimitInfo счетчик клиента в текущей минуте
type rateLimitInfo struct {
	count      int
	lastReset  time.Time
	blockUntil time.Time
}

// rateLimitMiddleware ограничивает число запросов с одного IP // v1.0
func rateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if config.BlockDuration <= 0 {
		config.BlockDuration = time.Minute
	}

	clients := make(map[string]*rateLimitInfo)
	var mu sync.Mutex

	return func(c *gin.Context) {
		now := time.Now()
		key := c.ClientIP()

		mu.Lock()
		info, exists := clients[key]
		if !exists {
			info = &rateLimitInfo{lastReset: now}
			clients[key] = info
		}

		if now.Before(info.blockUntil) {
			retry := info.blockUntil.Sub(now)
			mu.Unlock()
			tooManyRequests(c, retry)
			return
		}

		if now.Sub(info.lastReset) >= time.Minute {
			info.count = 0
			info.lastReset = now
		}

		if info.count >= config.RequestsPerMinute {
			info.blockUntil = now.Add(config.BlockDuration)
			mu.Unlock()
			tooManyRequests(c, config.BlockDuration)
			return
		}

		info.count++
		remaining := config.RequestsPerMinute - info.count
		reset := info.lastReset.Add(time.Minute)
		mu.Unlock()

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

		c.Next()
	}
}

func tooManyRequests(c *gin.Context, retry time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%d", int(retry.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "RATE_LIMITED",
		"message":     "rate limit exceeded",
		"retry_after": retry.Seconds(),
	})
}

// requestIDMiddleware назначает запросу идентификатор // v1.0
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// loggingMiddleware логирует запросы // v1.0
func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logger.WithFields(map[string]interface{}{
			"method":     param.Method,
			"path":       param.Path,
			"status":     param.StatusCode,
			"latency":    param.Latency,
			"client_ip":  param.ClientIP,
			"request_id": param.Keys["request_id"],
		}).Debug("HTTP request")

		return ""
	})
}

// corsMiddleware добавляет CORS заголовки // v1.0
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
