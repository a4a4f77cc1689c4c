package usecases

import (
	"bytes"
	"strings"
	"testing"

	"query-server/entities"
	"query-server/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRUseCase_GenerateAndScan(t *testing.T) {
	f := newFixture(t, false)
	uc := NewQRUseCase(services.NewQRCodec(), f.history)
	p := guest("d1")

	generated, err := uc.Generate(p, "https://example.com/menu", services.QROptions{})
	require.NoError(t, err)
	assert.True(t, generated.Saved)
	assert.True(t, strings.HasPrefix(generated.DataURL, "data:image/png;base64,"))
	assert.Equal(t, entities.HistoryCreated, generated.Item.Type)

	scanned, err := uc.Scan(p, bytes.NewReader(generated.PNG))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/menu", scanned.Content)
	assert.True(t, scanned.IsURL)
	assert.Equal(t, entities.HistoryScanned, scanned.Item.Type)

	items, err := f.history.List(p)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestQRUseCase_Errors(t *testing.T) {
	f := newFixture(t, false)
	uc := NewQRUseCase(services.NewQRCodec(), f.history)
	p := guest("d1")

	_, err := uc.Generate(p, "  ", services.QROptions{})
	assert.Equal(t, CodeFieldRequired, CodeOf(err))

	_, err = uc.Scan(p, strings.NewReader("not an image"))
	assert.Equal(t, CodeInvalidImage, CodeOf(err))

	items, err := f.history.List(p)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQRUseCase_RenderWritesNoHistory(t *testing.T) {
	f := newFixture(t, false)
	uc := NewQRUseCase(services.NewQRCodec(), f.history)

	png, err := uc.Render("hello", services.QROptions{Size: 128})
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	assert.Empty(t, f.notifier.Events())
}
