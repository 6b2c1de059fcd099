package models

import "context"

// OCRWord is one recognized word with its normalized bounding box.
type OCRWord struct {
	Text       string      `json:"text"`
	Box        BoundingBox `json:"bounding_box"`
	Confidence float64     `json:"confidence"`
	PageNumber int         `json:"page_number"`
}

// OCRPage is the OCR result for one page image.
type OCRPage struct {
	PageNumber int       `json:"page_number"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Unit       string    `json:"unit"`
	Text       string    `json:"text"`
	Words      []OCRWord `json:"words"`
}

// OCRClient is the OCR collaborator. Implementations may fail transiently;
// retry policy belongs to the implementation, not to callers.
type OCRClient interface {
	AnalyzeImage(ctx context.Context, imagePNG []byte, pageNumber int) (*OCRPage, error)
}

// EntityExtractor is the AI-based visual extraction collaborator. It returns
// raw entity candidates for the given page; deduplication and replacement
// assignment happen downstream.
type EntityExtractor interface {
	ExtractEntities(
		ctx context.Context,
		imagePNG []byte,
		ocr *OCRPage,
		fields []FieldDefinition,
		pageNumber int,
	) ([]EntityCandidate, error)
}
