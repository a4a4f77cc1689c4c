package httpHandler

import (
	"net/http"

	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	useCase *usecases.ConfigUseCase
}

func NewConfigHandler(useCase *usecases.ConfigUseCase) *ConfigHandler {
	return &ConfigHandler{useCase: useCase}
}

// GetAll handles GET /api/v1/config
func (h *ConfigHandler) GetAll(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	all, err := h.useCase.All(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": all})
}

// Get handles GET /api/v1/config/:key
func (h *ConfigHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	key := c.Param("key")
	value, err := h.useCase.Get(p, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "value": value}})
}

type setConfigRequest struct {
	Value string `json:"value"`
}

// Set handles PUT /api/v1/config/:key
func (h *ConfigHandler) Set(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	key := c.Param("key")
	if err := h.useCase.Set(p, key, req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"key": key, "value": req.Value}})
}

// CompleteOnboarding handles POST /api/v1/config/onboarding/complete
func (h *ConfigHandler) CompleteOnboarding(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.CompleteOnboarding(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"has_seen_onboarding": true}})
}

// Reset handles DELETE /api/v1/config
func (h *ConfigHandler) Reset(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.Reset(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.useCase.Defaults()})
}
