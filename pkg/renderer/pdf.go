package renderer

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/docveil/docveil/pkg/models"
)

const (
	maskFont        = "Helvetica"
	minFontSize     = 4.0
	textHeightRatio = 0.7
)

var _ models.MaskedDocumentBuilder = &pdfBuilder{}

// pdfBuilder accumulates masked pages into a gofpdf document. gofpdf uses
// point units with a top-left origin, matching the masker's coordinates, and
// collects drawing errors internally; Assemble surfaces them.
type pdfBuilder struct {
	pdf       *gofpdf.Fpdf
	pageCount int
}

func newPDFBuilder() *pdfBuilder {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	return &pdfBuilder{pdf: pdf}
}

func (b *pdfBuilder) BeginPage(page models.Page) models.PageCanvas {
	b.pageCount++
	b.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: page.WidthPts, Ht: page.HeightPts})

	if page.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page.Image); err != nil {
			b.pdf.SetError(fmt.Errorf("failed to encode page %d image: %w", page.Number, err))
			return &pdfCanvas{pdf: b.pdf}
		}

		name := fmt.Sprintf("page-%d", page.Number)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		b.pdf.RegisterImageOptionsReader(name, opts, &buf)
		b.pdf.ImageOptions(name, 0, 0, page.WidthPts, page.HeightPts, false, opts, 0, "")
	}

	return &pdfCanvas{pdf: b.pdf}
}

func (b *pdfBuilder) Assemble(w io.Writer) error {
	if b.pageCount == 0 {
		return fmt.Errorf("no pages to assemble")
	}
	return b.pdf.Output(w)
}

var _ models.PageCanvas = &pdfCanvas{}

type pdfCanvas struct {
	pdf *gofpdf.Fpdf
}

func (c *pdfCanvas) FillRect(x, y, width, height float64, fill models.Color) {
	c.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	c.pdf.Rect(x, y, width, height, "F")
}

// DrawTextInRect centers text in the rectangle, shrinking the font until it
// fits the width. Sizing is approximate; the mask rectangle underneath
// guarantees the original text is covered regardless.
func (c *pdfCanvas) DrawTextInRect(text string, x, y, width, height float64, color models.Color) {
	size := height * textHeightRatio
	if size < minFontSize {
		size = minFontSize
	}

	c.pdf.SetFont(maskFont, "", size)
	for c.pdf.GetStringWidth(text) > width*0.95 && size > minFontSize {
		size *= 0.9
		c.pdf.SetFont(maskFont, "", size)
	}

	c.pdf.SetTextColor(int(color.R), int(color.G), int(color.B))
	textWidth := c.pdf.GetStringWidth(text)
	tx := x + (width-textWidth)/2
	if tx < x {
		tx = x
	}
	// Approximate vertical centering of the baseline
	ty := y + height/2 + size*0.35
	c.pdf.Text(tx, ty, text)
}
