// filename: internal/adminapi/server/auth.go
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
)

// APIKeyHeader заголовок ключа доступа
const APIKeyHeader = "X-API-Key"

// HashAPIKey возвращает bcrypt хеш ключа для конфигурации // v1.0
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// apiKeyMiddleware сверяет X-API-Key с bcrypt хешем; пустой хеш пропускает все // v1.0
func apiKeyMiddleware(hash string, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			logger.WithField("client_ip", c.ClientIP()).Warn("Rejected request with invalid API key")
			nsErr := errors.UnauthorizedError("invalid or missing API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   nsErr.Code,
				"message": nsErr.Message,
			})
			return
		}
		c.Next()
	}
}
