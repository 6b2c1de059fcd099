package models

import "github.com/docveil/docveil/config"

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	OCR       OCRClient
	Extractor EntityExtractor
	Renderer  DocumentRenderer
	Config    *config.Config
}
