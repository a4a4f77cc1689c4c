package services

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	goqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qr content is empty")
	ErrInvalidImage = errors.New("image could not be decoded")
	ErrNoQRCode     = errors.New("no qr code found in image")
)

const (
	DefaultQRSize = 300
	MinQRSize     = 64
	MaxQRSize     = 2048

	// MaxScanPixels caps the raster an uploaded image may declare.
	MaxScanPixels = 4096 * 4096
)

// QROptions tunes generated images. The zero value is completed by Normalize.
type QROptions struct {
	Size       int
	Recovery   string // low | medium | high | highest
	Foreground color.Color
	Background color.Color
	NoBorder   bool
}

// Normalize fills defaults and clamps the size into the supported range.
func (o QROptions) Normalize() QROptions {
	if o.Size == 0 {
		o.Size = DefaultQRSize
	}
	if o.Size < MinQRSize {
		o.Size = MinQRSize
	}
	if o.Size > MaxQRSize {
		o.Size = MaxQRSize
	}
	if o.Recovery == "" {
		o.Recovery = "medium"
	}
	if o.Foreground == nil {
		o.Foreground = color.Black
	}
	if o.Background == nil {
		o.Background = color.White
	}
	return o
}

func recoveryLevel(name string) (goqrcode.RecoveryLevel, error) {
	switch strings.ToLower(name) {
	case "low":
		return goqrcode.Low, nil
	case "", "medium":
		return goqrcode.Medium, nil
	case "high":
		return goqrcode.High, nil
	case "highest":
		return goqrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown recovery level %q", name)
}

// headerPeekSize bounds how far into the file DecodeConfig may look. A jpeg
// whose frame header sits past it is rejected as invalid.
const headerPeekSize = 64 << 10

// ValidRecoveryLevel reports whether name is an accepted recovery level.
func ValidRecoveryLevel(name string) bool {
	_, err := recoveryLevel(name)
	return err == nil
}

// QRCodec turns text into QR images and back.
type QRCodec struct{}

func NewQRCodec() *QRCodec {
	return &QRCodec{}
}

func (c *QRCodec) build(content string, opts QROptions) (*goqrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	level, err := recoveryLevel(opts.Recovery)
	if err != nil {
		return nil, err
	}
	q, err := goqrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	q.ForegroundColor = opts.Foreground
	q.BackgroundColor = opts.Background
	q.DisableBorder = opts.NoBorder
	return q, nil
}

// Encode renders content as a PNG.
func (c *QRCodec) Encode(content string, opts QROptions) ([]byte, error) {
	opts = opts.Normalize()
	q, err := c.build(content, opts)
	if err != nil {
		return nil, err
	}
	png, err := q.PNG(opts.Size)
	if err != nil {
		return nil, fmt.Errorf("rendering qr png: %w", err)
	}
	return png, nil
}

// DataURL renders content as a base64 PNG data URL, ready for an <img> tag.
func (c *QRCodec) DataURL(content string, opts QROptions) (string, error) {
	png, err := c.Encode(content, opts)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ASCII renders content with half-block characters for terminals.
func (c *QRCodec) ASCII(content string) (string, error) {
	q, err := c.build(content, QROptions{}.Normalize())
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}

// Decode reads the first QR code found in a png, jpeg or gif image. Images
// whose header declares more than MaxScanPixels are rejected before decoding.
func (c *QRCodec) Decode(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, headerPeekSize)
	header, err := br.Peek(headerPeekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(header))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxScanPixels {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxScanPixels)
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return c.DecodeImage(img)
}

// DecodeImage reads the first QR code found in img.
func (c *QRCodec) DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoQRCode, err)
	}
	return result.GetText(), nil
}
