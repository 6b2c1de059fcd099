package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var ErrBadRequest = errors.New("bad request")

// ErrConsistencyViolation indicates the same canonical key was observed with
// two different stored replacements. This is an internal bug class and is
// fatal to the affected document, never silently tolerated.
var ErrConsistencyViolation = errors.New("entity consistency invariant violated")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ConfigurationError is fatal and reported before any document work begins.
type ConfigurationError struct {
	Message       string
	OriginalError error
}

func (e *ConfigurationError) Error() string {
	if e.OriginalError != nil {
		return fmt.Sprintf("configuration error: %s (original error: %v)", e.Message, e.OriginalError)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.OriginalError
}

func NewConfigurationError(message string, originalError error) error {
	return &ConfigurationError{Message: message, OriginalError: originalError}
}

// GeometryError marks a bounding box that cannot be drawn. The affected entity
// is skipped and counted as not masked; it never fails the document.
type GeometryError struct {
	Reason string
	Box    BoundingBox
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf(
		"invalid bounding box [%.4f %.4f %.4f %.4f]: %s",
		e.Box.X, e.Box.Y, e.Box.Width, e.Box.Height, e.Reason,
	)
}

func NewGeometryError(reason string, box BoundingBox) error {
	return &GeometryError{Reason: reason, Box: box}
}

// ExtractionError wraps a failure from the OCR or extraction collaborator.
// Fatal to the affected document only.
type ExtractionError struct {
	Message       string
	OriginalError error
}

func (e *ExtractionError) Error() string {
	if e.OriginalError != nil {
		return fmt.Sprintf("extraction error: %s (original error: %v)", e.Message, e.OriginalError)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.OriginalError
}

func NewExtractionError(message string, originalError error) error {
	return &ExtractionError{Message: message, OriginalError: originalError}
}
