package httpHandler

import (
	"net/http"
	"time"
	_ "time/tzdata"

	"query-server/entities"
	"query-server/i18n"
	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	useCase *usecases.HistoryUseCase
	now     func() time.Time
}

func NewHistoryHandler(useCase *usecases.HistoryUseCase) *HistoryHandler {
	return &HistoryHandler{useCase: useCase, now: time.Now}
}

// historyView is a history item with the labels the list screen shows.
type historyView struct {
	entities.QrHistoryItem
	DisplayName  string `json:"display_name"`
	RelativeTime string `json:"relative_time"`
	TypeLabel    string `json:"type_label"`
}

const zoneKey = "clientZone"

// clientZone resolves the IANA zone passed as ?tz=. Dates older than a week
// are printed in it; unknown or missing zones mean UTC.
func clientZone(c *gin.Context) *time.Location {
	if v, ok := c.Get(zoneKey); ok {
		return v.(*time.Location)
	}
	loc := time.UTC
	if name := c.Query("tz"); name != "" && name != "Local" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	c.Set(zoneKey, loc)
	return loc
}

func (h *HistoryHandler) view(c *gin.Context, item entities.QrHistoryItem) historyView {
	lang := Language(c)
	loc := clientZone(c)
	label := "qrScanned"
	if item.Type == entities.HistoryCreated {
		label = "qrCreated"
	}
	return historyView{
		QrHistoryItem: item,
		DisplayName:   item.DisplayName(),
		RelativeTime:  i18n.RelativeTime(item.Timestamp.In(loc), h.now().In(loc), lang),
		TypeLabel:     i18n.Translate(lang, label),
	}
}

func (h *HistoryHandler) views(c *gin.Context, items []entities.QrHistoryItem) []historyView {
	out := make([]historyView, 0, len(items))
	for _, item := range items {
		out = append(out, h.view(c, item))
	}
	return out
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := h.useCase.List(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  h.views(c, items),
		"count": len(items),
	})
}

// Favorites handles GET /api/v1/history/favorites
func (h *HistoryHandler) Favorites(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := h.useCase.Favorites(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  h.views(c, items),
		"count": len(items),
	})
}

// Get handles GET /api/v1/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	item, err := h.useCase.Get(p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(c, *item)})
}

// Delete handles DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.Delete(p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History item deleted successfully"})
}

// Clear handles DELETE /api/v1/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.Clear(p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared successfully"})
}

// ToggleFavorite handles POST /api/v1/history/:id/favorite
func (h *HistoryHandler) ToggleFavorite(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	item, err := h.useCase.ToggleFavorite(p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(c, *item)})
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename handles PUT /api/v1/history/:id/name
func (h *HistoryHandler) Rename(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.useCase.Rename(p, c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.view(c, *item)})
}
