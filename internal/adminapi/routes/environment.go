// filename: internal/adminapi/routes/environment.go
package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/models"
	"github.com/novasec/engine/internal/router"
)

// EnvironmentHandler инспекция и перезагрузка окружения // v1.0
type EnvironmentHandler struct {
	router *router.Router
	logger *logging.Logger
}

// NewEnvironmentHandler создает обработчик окружения // v1.0
func NewEnvironmentHandler(r *router.Router, logger *logging.Logger) *EnvironmentHandler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &EnvironmentHandler{router: r, logger: logger}
}

func (h *EnvironmentHandler) active(c *gin.Context) bool {
	if h.router.Current() == nil {
		respondError(c, h.logger, errors.New(errors.ErrorCodeUnavailable, "no active environment"))
		return false
	}
	return true
}

// GetEnvironment сводка активного окружения // v1.0
func (h *EnvironmentHandler) GetEnvironment(c *gin.Context) {
	if !h.active(c) {
		return
	}
	c.JSON(http.StatusOK, h.router.Current().Summary())
}

// GetGraph дерево выражений активного окружения // v1.0
func (h *EnvironmentHandler) GetGraph(c *gin.Context) {
	if !h.active(c) {
		return
	}
	env := h.router.Current()
	c.JSON(http.StatusOK, gin.H{
		"name":  env.Name,
		"id":    env.ID,
		"graph": env.Expression.Graph(),
	})
}

// Reload пересобирает окружение из каталога // v1.0
func (h *EnvironmentHandler) Reload(c *gin.Context) {
	start := time.Now()
	env, err := h.router.Reload(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        env.Name,
		"id":          env.ID,
		"assets":      len(env.Assets),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// ValidateRequest снимок для проверочной сборки
type ValidateRequest struct {
	Environment string             `json:"environment"`
	Documents   []DocumentRequest `json:"documents" binding:"required,min=1,dive"`
}

// DocumentRequest описание ассета: строка YAML/JSON или JSON объект
type DocumentRequest struct {
	Type     string          `json:"type" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Document json.RawMessage `json:"document" binding:"required"`
}

// bytes возвращает текст описания
func (d DocumentRequest) bytes() []byte {
	var text string
	if err := json.Unmarshal(d.Document, &text); err == nil {
		return []byte(text)
	}
	return d.Document
}

// Validate собирает присланный снимок без активации // v1.0
func (h *EnvironmentHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "invalid validate request"))
		return
	}

	snapshot := catalog.NewSnapshot(req.Environment)
	for _, doc := range req.Documents {
		typ, err := asset.ParseType(doc.Type)
		if err != nil {
			respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "invalid asset type"))
			return
		}
		snapshot.Add(typ, doc.Name, doc.bytes())
	}

	env, err := h.router.Validate(snapshot)
	if err != nil {
		nsErr, _ := errors.As(err)
		if errors.IsCatalogError(err) {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": nsErr.Code, "message": nsErr.Message, "details": nsErr.Details})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  true,
		"assets": len(env.Assets),
		"graph":  env.Expression.Graph(),
	})
}

// TestRequest событие для пробной оценки
type TestRequest struct {
	Event json.RawMessage `json:"event" binding:"required"`
}

// Test оценивает событие на активном окружении и возвращает трассу // v1.0
func (h *EnvironmentHandler) Test(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "invalid test request"))
		return
	}

	event, err := models.NewEvent(req.Event)
	if err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeEventInvalid, "invalid event"))
		return
	}

	processed, err := h.router.Process(event)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     processed.Result.Success,
		"environment": processed.EnvironmentID,
		"event":       json.RawMessage(processed.Event().Bytes()),
		"traces":      processed.Result.Traces(),
		"result":      processed.Result,
	})
}
