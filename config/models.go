package config

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	OCR       OCRConfig       `mapstructure:"ocr"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Masking   MaskingConfig   `mapstructure:"masking"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Renderer  RendererConfig  `mapstructure:"renderer"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// OCRConfig selects and configures the OCR collaborator.
// Service is one of "http" (document intelligence endpoint) or "tesseract".
type OCRConfig struct {
	Service   string `mapstructure:"service"`
	ServerURL string `mapstructure:"server_url"`
	// APIKey is loaded from ENV not config file.
	APIKey      string   `mapstructure:"api_key"`
	Languages   []string `mapstructure:"languages"`
	RetryMax    int      `mapstructure:"retry_max"`
	TimeoutSecs int      `mapstructure:"timeout_seconds"`
}

// ExtractorConfig configures the vision entity-extraction collaborator.
type ExtractorConfig struct {
	ServerURL string `mapstructure:"server_url"`
	// APIKey is loaded from ENV not config file.
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	MaxTokens   int    `mapstructure:"max_tokens"`
	RetryMax    int    `mapstructure:"retry_max"`
	TimeoutSecs int    `mapstructure:"timeout_seconds"`
}

// MaskingConfig configures replacement generation and mask drawing.
type MaskingConfig struct {
	// Seed makes fake-data generation reproducible across runs. 0 seeds from entropy.
	Seed          uint64  `mapstructure:"seed"`
	MaskColor     RGB     `mapstructure:"mask_color"`
	TextColor     RGB     `mapstructure:"text_color"`
	BoxPaddingPts float64 `mapstructure:"box_padding_pts"`
}

// RGB is an 8-bit color triple used for mask rectangles and replacement text.
type RGB struct {
	R uint8 `mapstructure:"r"`
	G uint8 `mapstructure:"g"`
	B uint8 `mapstructure:"b"`
}

// BatchConfig configures the unattended folder runner.
type BatchConfig struct {
	Concurrency        int    `mapstructure:"concurrency"`
	DocumentTimeoutSec int    `mapstructure:"document_timeout_seconds"`
	OutputPrefix       string `mapstructure:"output_prefix"`
	// Verify re-OCRs masked pages and reports residual original text.
	Verify bool `mapstructure:"verify"`
}

// RendererConfig configures page rasterization.
type RendererConfig struct {
	DPI int `mapstructure:"dpi"`
}

type ServerConfig struct {
	Port           int   `mapstructure:"port"`
	MaxRequestSize int64 `mapstructure:"max_request_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}
