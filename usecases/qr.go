package usecases

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"query-server/auth"
	"query-server/entities"
	"query-server/services"
)

// GeneratedQR is the outcome of turning text into a QR code.
type GeneratedQR struct {
	Content string                  `json:"content"`
	PNG     []byte                  `json:"-"`
	DataURL string                  `json:"data_url"`
	Item    *entities.QrHistoryItem `json:"item,omitempty"`
	Saved   bool                    `json:"saved"`
}

// ScanResult is the outcome of reading a QR code from an image.
type ScanResult struct {
	Content string                  `json:"content"`
	IsURL   bool                    `json:"is_url"`
	Item    *entities.QrHistoryItem `json:"item,omitempty"`
	Saved   bool                    `json:"saved"`
}

type QRUseCase struct {
	Codec   *services.QRCodec
	History *HistoryUseCase
}

func NewQRUseCase(codec *services.QRCodec, history *HistoryUseCase) *QRUseCase {
	return &QRUseCase{Codec: codec, History: history}
}

// Generate encodes text and records it as a created item.
func (uc *QRUseCase) Generate(p auth.Principal, text string, opts services.QROptions) (*GeneratedQR, error) {
	png, err := uc.Render(text, opts)
	if err != nil {
		return nil, err
	}
	item, saved, err := uc.History.AddCreated(p, text)
	if err != nil {
		return nil, err
	}
	return &GeneratedQR{
		Content: text,
		PNG:     png,
		DataURL: dataURL(png),
		Item:    item,
		Saved:   saved,
	}, nil
}

// Scan decodes the first QR code in image and records it as a scanned item.
func (uc *QRUseCase) Scan(p auth.Principal, image io.Reader) (*ScanResult, error) {
	content, err := uc.Codec.Decode(image)
	switch {
	case errors.Is(err, services.ErrInvalidImage):
		return nil, wrap(CodeInvalidImage, err)
	case errors.Is(err, services.ErrNoQRCode):
		return nil, wrap(CodeNoQRDetected, err)
	case err != nil:
		return nil, internal(err)
	}

	item, saved, err := uc.History.AddScanned(p, content)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Content: content, IsURL: entities.IsURL(content), Item: item, Saved: saved}, nil
}

// Render encodes text as a PNG without touching any history.
func (uc *QRUseCase) Render(text string, opts services.QROptions) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fail(CodeFieldRequired)
	}
	png, err := uc.Codec.Encode(text, opts)
	if errors.Is(err, services.ErrEmptyContent) {
		return nil, wrap(CodeFieldRequired, err)
	}
	if err != nil {
		return nil, wrap(CodeQRGenerationError, err)
	}
	return png, nil
}

func dataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
