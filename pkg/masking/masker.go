package masking

import (
	"sort"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
)

var log = internal.GetLogger()

// Masker projects approved entities onto document pages as opaque mask
// rectangles with optional replacement text. It is stateless and safe for
// concurrent use across documents.
type Masker struct {
	maskColor  models.Color
	textColor  models.Color
	paddingPts float64
}

func NewMasker(cfg *config.Config) *Masker {
	return &Masker{
		maskColor:  models.Color{R: cfg.Masking.MaskColor.R, G: cfg.Masking.MaskColor.G, B: cfg.Masking.MaskColor.B},
		textColor:  models.Color{R: cfg.Masking.TextColor.R, G: cfg.Masking.TextColor.G, B: cfg.Masking.TextColor.B},
		paddingPts: cfg.Masking.BoxPaddingPts,
	}
}

// MaskPage draws the approved entities belonging to one page. Entities are
// processed top-to-bottom then left-to-right so overlapping boxes mask in a
// reproducible order. Normalized boxes are scaled to page points exactly once
// here. Returns the number of entities actually drawn; geometry failures are
// skipped and reported, never fatal.
func (m *Masker) MaskPage(
	canvas models.PageCanvas,
	page models.Page,
	entities []models.ResolvedEntity,
) (drawn int, skipped []error) {
	onPage := make([]models.ResolvedEntity, 0, len(entities))
	for _, e := range entities {
		if e.Approved && e.PageNumber == page.Number {
			onPage = append(onPage, e)
		}
	}

	sort.SliceStable(onPage, func(i, j int) bool {
		if onPage[i].Box.Y != onPage[j].Box.Y {
			return onPage[i].Box.Y < onPage[j].Box.Y
		}
		return onPage[i].Box.X < onPage[j].Box.X
	})

	for _, e := range onPage {
		if err := validateBox(e.Box); err != nil {
			log.Warnf("page %d: skipping entity %s: %v", page.Number, e.ID, err)
			skipped = append(skipped, err)
			continue
		}

		box := e.Box.Scale(page.WidthPts, page.HeightPts)
		x := box.X - m.paddingPts
		y := box.Y - m.paddingPts
		w := box.Width + 2*m.paddingPts
		h := box.Height + 2*m.paddingPts
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x+w > page.WidthPts {
			w = page.WidthPts - x
		}
		if y+h > page.HeightPts {
			h = page.HeightPts - y
		}

		canvas.FillRect(x, y, w, h, m.maskColor)
		if e.Strategy != models.StrategyBlackOut && e.ReplacementText != "" {
			canvas.DrawTextInRect(e.ReplacementText, x, y, w, h, m.textColor)
		}
		drawn++
	}

	return drawn, skipped
}

// MaskDocument masks every page in original order and reassembles the output.
// Returns the total number of entities drawn across pages.
func (m *Masker) MaskDocument(
	builder models.MaskedDocumentBuilder,
	pages []models.Page,
	entities []models.ResolvedEntity,
) (drawn int, skipped int) {
	ordered := make([]models.Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	for _, page := range ordered {
		canvas := builder.BeginPage(page)
		d, s := m.MaskPage(canvas, page, entities)
		drawn += d
		skipped += len(s)
	}

	return drawn, skipped
}

func validateBox(box models.BoundingBox) error {
	if box.IsDegenerate() {
		return models.NewGeometryError("zero or negative width/height", box)
	}
	if !box.InPageBounds() {
		return models.NewGeometryError("outside page bounds", box)
	}
	return nil
}
