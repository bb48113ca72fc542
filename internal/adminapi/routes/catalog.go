// filename: internal/adminapi/routes/catalog.go
package routes

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/novasec/engine/internal/asset"
	"github.com/novasec/engine/internal/builder/registry"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/errors"
	"github.com/novasec/engine/internal/common/logging"
)

// maxDocumentSize предел тела PUT
const maxDocumentSize = 1 << 20

// CatalogHandler CRUD над описаниями ассетов // v1.0
type CatalogHandler struct {
	store    catalog.Store
	registry *registry.Registry
	logger   *logging.Logger
}

// NewCatalogHandler создает обработчик каталога // v1.0
func NewCatalogHandler(store catalog.Store, reg *registry.Registry, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &CatalogHandler{store: store, registry: reg, logger: logger}
}

// target разбирает :type и *name из пути
func target(c *gin.Context) (asset.Type, string, error) {
	typ, err := asset.ParseType(c.Param("type"))
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrorCodeValidation, "invalid asset type")
	}
	name := strings.TrimPrefix(c.Param("name"), "/")
	if err := catalog.CheckName(name); err != nil {
		return "", "", err
	}
	return typ, name, nil
}

// List имена ассетов типа // v1.0
func (h *CatalogHandler) List(c *gin.Context) {
	typ, err := asset.ParseType(c.Param("type"))
	if err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "invalid asset type"))
		return
	}

	names, err := h.store.List(c.Request.Context(), typ)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"type":  typ,
		"names": names,
		"total": len(names),
	})
}

// Get исходный текст описания // v1.0
func (h *CatalogHandler) Get(c *gin.Context) {
	typ, name, err := target(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := h.store.Get(c.Request.Context(), typ, name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Data(http.StatusOK, contentType(data), data)
}

// Put сохраняет описание после разбора и проверки имени // v1.0
func (h *CatalogHandler) Put(c *gin.Context) {
	typ, name, err := target(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize))
	if err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "failed to read document"))
		return
	}

	parsed, err := asset.Parse(typ, data, h.registry)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if parsed.Name != name {
		respondError(c, h.logger, errors.Newf(errors.ErrorCodeAssetInvalid,
			"document name %q does not match path %q", parsed.Name, name).WithAsset(name))
		return
	}

	if err := h.store.Put(c.Request.Context(), typ, name, data); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithAsset(string(typ), name).Info("Asset stored")
	c.JSON(http.StatusOK, parsed)
}

// Delete удаляет описание // v1.0
func (h *CatalogHandler) Delete(c *gin.Context) {
	typ, name, err := target(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), typ, name); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithAsset(string(typ), name).Info("Asset deleted")
	c.Status(http.StatusNoContent)
}

// GetManifest манифест окружения // v1.0
func (h *CatalogHandler) GetManifest(c *gin.Context) {
	manifest, err := h.store.Manifest(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

// PutManifest сохраняет манифест окружения // v1.0
func (h *CatalogHandler) PutManifest(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize))
	if err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrorCodeValidation, "failed to read manifest"))
		return
	}

	manifest, err := catalog.ParseManifest(data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if manifest.Name != c.Param("name") {
		respondError(c, h.logger, errors.ValidationError("name", "manifest name does not match path"))
		return
	}

	if err := h.store.PutManifest(c.Request.Context(), manifest); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, manifest)
}

func contentType(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return "application/json"
	}
	return "application/yaml"
}
