package models

import (
	"context"
	"image"
	"io"
)

// Page is one rasterized document page. WidthPts/HeightPts are the page size
// in PDF points; Image is the raster at the configured DPI.
type Page struct {
	Number    int
	Image     image.Image
	WidthPts  float64
	HeightPts float64
}

// PageCanvas receives drawing instructions for one output page. Coordinates
// are page points with origin top-left, matching the scaled bounding boxes
// the Spatial Masker produces. Implementations accumulate errors; they are
// surfaced by MaskedDocumentBuilder.Assemble.
type PageCanvas interface {
	FillRect(x, y, width, height float64, fill Color)
	// DrawTextInRect renders text sized to approximately fit the rectangle.
	DrawTextInRect(text string, x, y, width, height float64, color Color)
}

// MaskedDocumentBuilder reassembles masked pages into one output document in
// original page order.
type MaskedDocumentBuilder interface {
	BeginPage(page Page) PageCanvas
	Assemble(w io.Writer) error
}

// DocumentRenderer is the external page-renderer collaborator: rasterizes PDF
// pages to images and rebuilds a masked PDF from drawing instructions.
type DocumentRenderer interface {
	RenderPages(ctx context.Context, pdf []byte) ([]Page, error)
	NewMaskedDocument() MaskedDocumentBuilder
}
