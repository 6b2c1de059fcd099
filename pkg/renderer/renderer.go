// Package renderer implements the page-renderer collaborator: rasterizing PDF
// pages to images for OCR and extraction, and rebuilding a masked PDF from
// the Spatial Masker's drawing instructions.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
)

var log = internal.GetLogger()

var _ models.DocumentRenderer = &Renderer{}

type Renderer struct {
	dpi int
}

func NewRenderer(cfg *config.Config) *Renderer {
	return &Renderer{dpi: cfg.Renderer.DPI}
}

// RenderPages rasterizes every page of the PDF at the configured DPI. Page
// dimensions in points are derived from the raster size and DPI so that the
// same scale factor is used on the way back out.
func (r *Renderer) RenderPages(ctx context.Context, pdf []byte) ([]models.Page, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("no pages found in PDF")
	}

	pages := make([]models.Page, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(i, float64(r.dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", i+1, err)
		}

		bounds := img.Bounds()
		scale := 72.0 / float64(r.dpi)
		pages = append(pages, models.Page{
			Number:    i + 1,
			Image:     img,
			WidthPts:  float64(bounds.Dx()) * scale,
			HeightPts: float64(bounds.Dy()) * scale,
		})
	}

	log.Debugf("rasterized %d pages at %d DPI", len(pages), r.dpi)
	return pages, nil
}

// NewMaskedDocument returns a builder that reassembles masked pages into one
// output PDF in original page order.
func (r *Renderer) NewMaskedDocument() models.MaskedDocumentBuilder {
	return newPDFBuilder()
}

// EncodePNG encodes a page raster for collaborators that consume PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
