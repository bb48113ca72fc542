// filename: internal/adminapi/routes/respond.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
)

// respondError отвечает кодом из NovaSecError; неизвестные ошибки 500 // v1.0
func respondError(c *gin.Context, logger *logging.Logger, err error) {
	nsErr, ok := errors.As(err)
	if !ok {
		nsErr = errors.WrapInternal(err, "internal error")
	}
	if nsErr.StatusCode >= http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	}
	details := make(map[string]interface{}, len(nsErr.Details)+1)
	for key, value := range nsErr.Details {
		details[key] = value
	}
	// причина клиентской ошибки видна вызывающему; внутренние остаются в логе
	if nsErr.Internal != nil && nsErr.StatusCode < http.StatusInternalServerError {
		details["cause"] = nsErr.Internal.Error()
	}

	c.JSON(nsErr.StatusCode, gin.H{
		"error":   nsErr.Code,
		"message": nsErr.Message,
		"details": details,
	})
}
