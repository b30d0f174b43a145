package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"familytree-backend/infrastructure/cache"
	"familytree-backend/pkg/common"
	pkgerrors "familytree-backend/pkg/errors"
)

// CacheHandler exposes cache statistics and manual invalidation
type CacheHandler struct {
	registry *cache.Registry
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewCacheHandler creates a new cache management handler
func NewCacheHandler(registry *cache.Registry, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{
		registry: registry,
		errors:   errorHandler,
		logger:   logger,
	}
}

// GetStats handles GET /api/cache/stats
func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, "Cache statistics retrieved successfully", h.registry.Stats())
}

// GetCacheStats handles GET /api/cache/stats/{name}
func (h *CacheHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	c, ok := h.registry.Cache(name)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError(fmt.Sprintf("cache '%s'", name)))
		return
	}

	common.RespondJSON(w, http.StatusOK, "Cache statistics retrieved successfully", c.Stats())
}

// ClearAll handles DELETE /api/cache/clear
func (h *CacheHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Clearing all caches via management API")
	h.registry.ClearAll(r.Context())

	common.RespondJSON(w, http.StatusOK, "All caches cleared successfully", nil)
}

// ClearCache handles DELETE /api/cache/clear/{name}
func (h *CacheHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if !h.registry.Clear(r.Context(), name) {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError(fmt.Sprintf("cache '%s'", name)))
		return
	}

	h.logger.Info("Cleared cache via management API", zap.String("cache", name))
	common.RespondJSON(w, http.StatusOK, fmt.Sprintf("Cache '%s' cleared successfully", name), nil)
}

// EvictKey handles DELETE /api/cache/evict/{name}/{key}
func (h *CacheHandler) EvictKey(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := chi.URLParam(r, "key")

	if !h.registry.Evict(r.Context(), name, key) {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError(fmt.Sprintf("cache '%s'", name)))
		return
	}

	h.logger.Info("Evicted cache key via management API",
		zap.String("cache", name),
		zap.String("key", key),
	)
	common.RespondJSON(w, http.StatusOK, "Cache entry evicted successfully", nil)
}

// GetNames handles GET /api/cache/names
func (h *CacheHandler) GetNames(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, "Cache names retrieved successfully", h.registry.Names())
}
