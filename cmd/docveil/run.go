package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/auth"
	"github.com/docveil/docveil/pkg/batch"
	"github.com/docveil/docveil/pkg/extractors"
	"github.com/docveil/docveil/pkg/models"
	"github.com/docveil/docveil/pkg/renderer"
	"github.com/docveil/docveil/pkg/server"
)

const (
	OCRServiceHTTP      = "http"
	OCRServiceTesseract = "tesseract"
)

// run is the entrypoint for the docveil server
func run() {
	cfg := loadConfig()

	log.Infof("Starting docveil server version %s", config.VersionString)

	appState := NewAppState(cfg)
	srv := server.Create(appState)

	setupSignalHandler(srv.Shutdown)

	log.Infof("Listening on: %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

// runBatch processes a folder of PDFs without starting the server.
func runBatch(folderPath string) {
	cfg := loadConfig()
	appState := NewAppState(cfg)

	fields, err := loadFields(fieldsFile)
	if err != nil {
		log.Fatalf("Error loading field definitions: %s", err)
	}

	result, err := batch.NewRunner(appState).Run(context.Background(), folderPath, fields)
	if err != nil {
		log.Fatalf("Batch run failed: %s", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))

	if result.SuccessfulDocuments < result.TotalDocuments {
		os.Exit(1)
	}
}

// NewAppState creates an AppState struct from the config file / ENV and wires
// the OCR, extraction, and renderer collaborators.
func NewAppState(cfg *config.Config) *models.AppState {
	return &models.AppState{
		OCR:       newOCRClient(cfg),
		Extractor: extractors.NewVisionExtractor(cfg),
		Renderer:  renderer.NewRenderer(cfg),
		Config:    cfg,
	}
}

func newOCRClient(cfg *config.Config) models.OCRClient {
	switch cfg.OCR.Service {
	case OCRServiceHTTP:
		if cfg.OCR.ServerURL == "" {
			log.Fatal("ocr.server_url must be set when ocr.service is http")
		}
		return extractors.NewDocumentIntelligenceOCR(cfg)
	case OCRServiceTesseract:
		return extractors.NewTesseractOCR(cfg)
	default:
		log.Fatalf("ocr.service (%s) is not supported", cfg.OCR.Service)
		return nil
	}
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring docveil: %s", err)
	}

	handleCLIOptions(cfg)
	config.SetLogLevel(cfg)
	return cfg
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
}

func loadFields(path string) ([]models.FieldDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fields []models.FieldDefinition
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid field definitions in %s: %w", path, err)
	}
	return fields, nil
}

// setupSignalHandler shuts the HTTP server down cleanly on termination
func setupSignalHandler(shutdown func(ctx context.Context) error) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Errorf("Error shutting down server: %v", err)
		}
		os.Exit(0)
	}()
}
