package httpHandler

import (
	"log/slog"
	"net/http"

	"query-server/i18n"
	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	usecases.CodeFieldRequired:       http.StatusBadRequest,
	usecases.CodeInvalidEmail:        http.StatusBadRequest,
	usecases.CodePasswordTooShort:    http.StatusBadRequest,
	usecases.CodeEmailMismatch:       http.StatusBadRequest,
	usecases.CodeInvalidValue:        http.StatusBadRequest,
	usecases.CodeInvalidImage:        http.StatusBadRequest,
	usecases.CodeLoginError:          http.StatusUnauthorized,
	usecases.CodeUserNotFound:        http.StatusNotFound,
	usecases.CodeHistoryItemNotFound: http.StatusNotFound,
	usecases.CodeUnknownConfigKey:    http.StatusNotFound,
	usecases.CodeUsernameTaken:       http.StatusConflict,
	usecases.CodeEmailTaken:          http.StatusConflict,
	usecases.CodeNoQRDetected:        http.StatusUnprocessableEntity,
	usecases.CodeQRGenerationError:   http.StatusUnprocessableEntity,
	usecases.CodeModeUnavailable:     http.StatusServiceUnavailable,
}

// respondError writes the error envelope with a message in the request
// language.
func respondError(c *gin.Context, err error) {
	code := usecases.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "source", "http", "path", c.FullPath(), "code", code, "error", err)
	}
	abortWithCode(c, status, code)
}

func abortWithCode(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": i18n.Translate(Language(c), code),
		"code":  code,
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   i18n.Translate(Language(c), usecases.CodeInvalidValue),
		"code":    usecases.CodeInvalidValue,
		"details": err.Error(),
	})
}
