package renderer

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/models"
)

func TestRenderPagesRejectsGarbage(t *testing.T) {
	cfg := &config.Config{}
	cfg.Renderer.DPI = 150

	_, err := NewRenderer(cfg).RenderPages(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
}

func TestPDFBuilderAssemble(t *testing.T) {
	builder := newPDFBuilder()

	page := models.Page{
		Number:    1,
		Image:     image.NewRGBA(image.Rect(0, 0, 100, 130)),
		WidthPts:  612,
		HeightPts: 792,
	}
	canvas := builder.BeginPage(page)
	canvas.FillRect(100, 200, 150, 20, models.Color{R: 255, G: 255, B: 255})
	canvas.DrawTextInRect("Jane Roe", 100, 200, 150, 20, models.Color{})

	var buf bytes.Buffer
	require.NoError(t, builder.Assemble(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output is not a PDF")
}

func TestPDFBuilderMultiplePages(t *testing.T) {
	builder := newPDFBuilder()
	for i := 1; i <= 3; i++ {
		builder.BeginPage(models.Page{Number: i, WidthPts: 612, HeightPts: 792})
	}

	var buf bytes.Buffer
	require.NoError(t, builder.Assemble(&buf))
	assert.NotZero(t, buf.Len())
}

func TestPDFBuilderEmptyFails(t *testing.T) {
	var buf bytes.Buffer
	err := newPDFBuilder().Assemble(&buf)
	require.Error(t, err)
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}
