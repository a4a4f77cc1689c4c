package handlers

import (
	"net/http"

	"query-server/cache"
	"query-server/services"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	cache      *cache.HistoryCache
	maintainer *services.Maintainer
}

func NewCacheHandler(historyCache *cache.HistoryCache, maintainer *services.Maintainer) *CacheHandler {
	return &CacheHandler{
		cache:      historyCache,
		maintainer: maintainer,
	}
}

// GetCacheStats GET /api/v1/cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  h.cache.GetCacheStats(),
	})
}

// ClearCache POST /api/v1/cache/clear
func (h *CacheHandler) ClearCache(c *gin.Context) {
	h.cache.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// RunMaintenance POST /api/v1/maintenance/run
func (h *CacheHandler) RunMaintenance(c *gin.Context) {
	report, err := h.maintainer.RunOnce()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "maintenance failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "processed",
		"report": report,
	})
}

// GetLastMaintenance GET /api/v1/maintenance/last
func (h *CacheHandler) GetLastMaintenance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"report": h.maintainer.LastReport()})
}
