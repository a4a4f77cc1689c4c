package httpHandler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"query-server/services"
	"query-server/usecases"

	"github.com/gin-gonic/gin"
)

// maxScanUpload caps uploaded images.
const maxScanUpload = 10 << 20

type QRHandler struct {
	useCase *usecases.QRUseCase
}

func NewQRHandler(useCase *usecases.QRUseCase) *QRHandler {
	return &QRHandler{useCase: useCase}
}

type qrRequest struct {
	Text     string `json:"text"`
	Size     int    `json:"size"`
	Recovery string `json:"recovery"`
	Border   *bool  `json:"border"`
	Format   string `json:"format"`
}

func (r qrRequest) options() (services.QROptions, error) {
	if r.Recovery != "" && !services.ValidRecoveryLevel(r.Recovery) {
		return services.QROptions{}, errors.New("unknown recovery level")
	}
	if r.Size < 0 || r.Size > services.MaxQRSize {
		return services.QROptions{}, errors.New("size out of range")
	}
	opts := services.QROptions{Size: r.Size, Recovery: r.Recovery}
	if r.Border != nil && !*r.Border {
		opts.NoBorder = true
	}
	return opts, nil
}

func bindQRRequest(c *gin.Context) (qrRequest, services.QROptions, bool) {
	var req qrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return req, services.QROptions{}, false
	}
	if f := c.Query("format"); f != "" {
		req.Format = f
	}
	opts, err := req.options()
	if err != nil {
		badRequest(c, err)
		return req, opts, false
	}
	return req, opts, true
}

// Generate handles POST /api/v1/qr/generate
func (h *QRHandler) Generate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	req, opts, ok := bindQRRequest(c)
	if !ok {
		return
	}

	generated, err := h.useCase.Generate(p, req.Text, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Format == "png" {
		c.Data(http.StatusCreated, "image/png", generated.PNG)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": generated})
}

// Scan handles POST /api/v1/qr/scan with a multipart "image" field
func (h *QRHandler) Scan(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxScanUpload)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, usecases.CodeFieldRequired)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithCode(c, http.StatusBadRequest, usecases.CodeInvalidImage)
		return
	}
	defer file.Close()

	result, err := h.useCase.Scan(p, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Render handles POST /api/v1/qr/render. Nothing is recorded.
func (h *QRHandler) Render(c *gin.Context) {
	req, opts, ok := bindQRRequest(c)
	if !ok {
		return
	}

	png, err := h.useCase.Render(req.Text, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Format == "png" {
		c.Data(http.StatusOK, "image/png", png)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"content":  req.Text,
		"data_url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}})
}
