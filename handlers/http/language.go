package httpHandler

import (
	"net/http"

	"query-server/auth"
	"query-server/i18n"
	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

const languageKey = "language"

// LanguageMiddleware picks the language for messages: ?lang= first, then the
// caller's saved preference, then Accept-Language, then fallback.
func LanguageMiddleware(config *usecases.ConfigUseCase, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(languageKey, resolveLanguage(c, config, fallback))
		c.Next()
	}
}

func resolveLanguage(c *gin.Context, config *usecases.ConfigUseCase, fallback string) string {
	if lang := c.Query("lang"); i18n.Supported(lang) {
		return lang
	}
	if p, ok := auth.FromContext(c); ok && config != nil {
		if lang, stored, err := config.Language(p); err == nil && stored {
			return lang
		}
	}
	if lang, ok := i18n.Match(c.GetHeader("Accept-Language")); ok {
		return lang
	}
	if i18n.Supported(fallback) {
		return fallback
	}
	return i18n.Fallback
}

// Language returns the language chosen for this request.
func Language(c *gin.Context) string {
	if lang := c.GetString(languageKey); lang != "" {
		return lang
	}
	return i18n.Fallback
}

func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.FromContext(c)
	if !ok {
		abortWithCode(c, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}
