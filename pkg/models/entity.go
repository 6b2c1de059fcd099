package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Strategy is the configured replacement policy for a field. The set is closed:
// anything else is a configuration error caught before document work begins.
type Strategy string

const (
	StrategyFakeData    Strategy = "fake_data"
	StrategyBlackOut    Strategy = "black_out"
	StrategyEntityLabel Strategy = "entity_label"
)

// ParseStrategy accepts both the wire form ("fake_data") and the display form
// ("Fake Data") used by older field templates.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "fake_data", "Fake Data":
		return StrategyFakeData, nil
	case "black_out", "Black Out":
		return StrategyBlackOut, nil
	case "entity_label", "Entity Label":
		return StrategyEntityLabel, nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("unknown replacement strategy %q", s), nil)
	}
}

func (s Strategy) Validate() error {
	_, err := ParseStrategy(string(s))
	return err
}

// FieldDefinition is one configured field to identify and replace. Description
// is guidance text passed verbatim to the extraction collaborator.
type FieldDefinition struct {
	Name        string   `json:"name"        validate:"required,min=1"`
	Description string   `json:"description" validate:"required,min=1"`
	Strategy    Strategy `json:"strategy"    validate:"required"`
	Source      string   `json:"source,omitempty"`
}

// BoundingBox is a page-relative rectangle. Coordinates are normalized to the
// 0-1 range against page dimensions, origin top-left, as produced by the OCR
// collaborator.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsDegenerate reports whether the box has no drawable area.
func (b BoundingBox) IsDegenerate() bool {
	return b.Width <= 0 || b.Height <= 0
}

// InPageBounds reports whether the box lies within the normalized page square.
// A small epsilon absorbs OCR rounding at the page edge.
func (b BoundingBox) InPageBounds() bool {
	const eps = 0.005
	return b.X >= -eps && b.Y >= -eps &&
		b.X+b.Width <= 1+eps && b.Y+b.Height <= 1+eps
}

// Scale converts the normalized box to the target page unit. The scale factor
// is applied exactly once; callers must not pass already-scaled boxes.
func (b BoundingBox) Scale(pageWidth, pageHeight float64) BoundingBox {
	return BoundingBox{
		X:      b.X * pageWidth,
		Y:      b.Y * pageHeight,
		Width:  b.Width * pageWidth,
		Height: b.Height * pageHeight,
	}
}

// EntityCandidate is one raw detected mention, produced by the extraction
// collaborator. Immutable once created.
type EntityCandidate struct {
	Type       string      `json:"entity_type"`
	Text       string      `json:"original_text"`
	Box        BoundingBox `json:"bounding_box"`
	PageNumber int         `json:"page_number"`
	Confidence float64     `json:"confidence"`
}

// ResolvedEntity is an EntityCandidate that has been resolved to a canonical
// identity and assigned a replacement. Approved is the only field mutable
// after creation.
type ResolvedEntity struct {
	ID              uuid.UUID   `json:"id"`
	Type            string      `json:"entity_type"`
	Text            string      `json:"original_text"`
	CanonicalKey    string      `json:"-"`
	ReplacementText string      `json:"replacement_text"`
	Box             BoundingBox `json:"bounding_box"`
	PageNumber      int         `json:"page_number"`
	Confidence      float64     `json:"confidence"`
	Approved        bool        `json:"approved"`
	Strategy        Strategy    `json:"strategy"`
}

// Color is an 8-bit RGB triple used for mask rectangles and replacement text.
type Color struct {
	R, G, B uint8
}
