package extractors

import (
	"bytes"
	"context"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/models"
)

var _ models.OCRClient = &TesseractOCR{}

// TesseractOCR is the offline OCR option. It trades the document-intelligence
// endpoint's accuracy for zero network dependencies, which matters for
// documents that must never leave the host.
type TesseractOCR struct {
	languages []string
}

func NewTesseractOCR(cfg *config.Config) *TesseractOCR {
	return &TesseractOCR{languages: cfg.OCR.Languages}
}

func (t *TesseractOCR) AnalyzeImage(
	ctx context.Context,
	imagePNG []byte,
	pageNumber int,
) (*models.OCRPage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	imgCfg, err := png.DecodeConfig(bytes.NewReader(imagePNG))
	if err != nil {
		return nil, models.NewExtractionError("failed to decode page image", err)
	}
	pageW := float64(imgCfg.Width)
	pageH := float64(imgCfg.Height)

	// gosseract clients are not safe for concurrent use; one per call.
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return nil, models.NewExtractionError("failed to set ocr languages", err)
		}
	}
	if err := client.SetImageFromBytes(imagePNG); err != nil {
		return nil, models.NewExtractionError("failed to load page image", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, models.NewExtractionError("ocr text extraction failed", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, models.NewExtractionError("ocr word boxes failed", err)
	}

	words := make([]models.OCRWord, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		words = append(words, models.OCRWord{
			Text: word,
			Box: models.BoundingBox{
				X:      float64(b.Box.Min.X) / pageW,
				Y:      float64(b.Box.Min.Y) / pageH,
				Width:  float64(b.Box.Dx()) / pageW,
				Height: float64(b.Box.Dy()) / pageH,
			},
			// tesseract reports confidence 0-100
			Confidence: b.Confidence / 100,
			PageNumber: pageNumber,
		})
	}

	return &models.OCRPage{
		PageNumber: pageNumber,
		Width:      pageW,
		Height:     pageH,
		Unit:       "pixel",
		Text:       strings.TrimSpace(text),
		Words:      words,
	}, nil
}
