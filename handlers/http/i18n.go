package httpHandler

import (
	"net/http"

	"query-server/i18n"
	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

type I18nHandler struct{}

func NewI18nHandler() *I18nHandler {
	return &I18nHandler{}
}

// Languages handles GET /api/v1/i18n/languages
func (h *I18nHandler) Languages(c *gin.Context) {
	langs := i18n.Languages()
	out := make([]gin.H, 0, len(langs))
	for _, lang := range langs {
		out = append(out, gin.H{"code": lang, "name": i18n.DisplayName(lang)})
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    out,
		"count":   len(out),
		"current": Language(c),
	})
}

// Catalog handles GET /api/v1/i18n/:lang
func (h *I18nHandler) Catalog(c *gin.Context) {
	lang := c.Param("lang")
	if !i18n.Supported(lang) {
		abortWithCode(c, http.StatusNotFound, usecases.CodeInvalidValue)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": i18n.Catalog(lang)})
}
