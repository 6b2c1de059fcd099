package config

import (
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/docveil/docveil/internal"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var defaultConfig = Config{
	OCR: OCRConfig{
		Service:     "http",
		Languages:   []string{"eng"},
		RetryMax:    3,
		TimeoutSecs: 60,
	},
	Extractor: ExtractorConfig{
		MaxTokens:   4096,
		RetryMax:    3,
		TimeoutSecs: 120,
	},
	Masking: MaskingConfig{
		MaskColor:     RGB{R: 255, G: 255, B: 255},
		TextColor:     RGB{R: 0, G: 0, B: 0},
		BoxPaddingPts: 1.5,
	},
	Batch: BatchConfig{
		Concurrency:        2,
		DocumentTimeoutSec: 600,
		OutputPrefix:       "masked_",
	},
	Renderer: RendererConfig{
		DPI: 300,
	},
	Server: ServerConfig{
		Port:           8000,
		MaxRequestSize: 50 << 20,
	},
	Log: LogConfig{
		Level: "info",
	},
}

// LoadConfig loads the config file and ENV variables into a Config struct
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("DOCVEIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	// Secrets are only ever read from the environment
	for k, env := range map[string]string{
		"ocr.api_key":       "DOCVEIL_OCR_API_KEY",
		"extractor.api_key": "DOCVEIL_EXTRACTOR_API_KEY",
		"auth.secret":       "DOCVEIL_AUTH_SECRET",
	} {
		if err := viper.BindEnv(k, env); err != nil {
			log.Fatalf("Error binding environment variable: %s", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Fill anything the file and environment left unset
	if err := mergo.Merge(&cfg, defaultConfig); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Warn(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Info("Log level set to: ", level)
}
