package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/models"
)

const (
	analyzePath       = "/documentintelligence/documentModels/prebuilt-read:analyze"
	analyzeAPIVersion = "2024-02-29-preview"
	apiKeyHeader      = "Ocp-Apim-Subscription-Key"
)

var _ models.OCRClient = &DocumentIntelligenceOCR{}

// DocumentIntelligenceOCR reads pages through a document-intelligence read
// endpoint. The analyze operation is asynchronous: we submit the image, then
// poll the returned operation URL until it resolves.
type DocumentIntelligenceOCR struct {
	client       *http.Client
	endpoint     string
	apiKey       string
	pollInterval time.Duration
}

func NewDocumentIntelligenceOCR(cfg *config.Config) *DocumentIntelligenceOCR {
	return &DocumentIntelligenceOCR{
		client: NewRetryableHTTPClient(
			cfg.OCR.RetryMax,
			time.Duration(cfg.OCR.TimeoutSecs)*time.Second,
		),
		endpoint:     strings.TrimSuffix(cfg.OCR.ServerURL, "/"),
		apiKey:       cfg.OCR.APIKey,
		pollInterval: 500 * time.Millisecond,
	}
}

// AnalyzeImage runs OCR on a single page image. Word boxes come back
// normalized to the 0-1 range so downstream code never sees the service's
// native unit. pageNumber stamps the result; the service always sees one page.
func (c *DocumentIntelligenceOCR) AnalyzeImage(
	ctx context.Context,
	imagePNG []byte,
	pageNumber int,
) (*models.OCRPage, error) {
	opURL, err := c.submit(ctx, imagePNG)
	if err != nil {
		return nil, err
	}

	result, err := c.poll(ctx, opURL)
	if err != nil {
		return nil, err
	}

	if len(result.Pages) == 0 {
		return nil, models.NewExtractionError("ocr returned no pages", nil)
	}

	page := result.Pages[0]
	words := make([]models.OCRWord, 0, len(page.Words))
	for _, w := range page.Words {
		words = append(words, models.OCRWord{
			Text:       w.Content,
			Box:        polygonToBox(w.Polygon, page.Width, page.Height),
			Confidence: w.Confidence,
			PageNumber: pageNumber,
		})
	}

	return &models.OCRPage{
		PageNumber: pageNumber,
		Width:      page.Width,
		Height:     page.Height,
		Unit:       page.Unit,
		Text:       result.Content,
		Words:      words,
	}, nil
}

func (c *DocumentIntelligenceOCR) submit(ctx context.Context, imagePNG []byte) (string, error) {
	url := fmt.Sprintf("%s%s?api-version=%s", c.endpoint, analyzePath, analyzeAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(imagePNG))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", models.NewExtractionError("ocr analyze request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", models.NewExtractionError(
			fmt.Sprintf("ocr analyze returned %d: %s", resp.StatusCode, body), nil,
		)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", models.NewExtractionError("ocr analyze response missing Operation-Location", nil)
	}
	return opURL, nil
}

func (c *DocumentIntelligenceOCR) poll(ctx context.Context, opURL string) (*analyzeResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(apiKeyHeader, c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, models.NewExtractionError("ocr result request failed", err)
		}

		var envelope analyzeEnvelope
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			return nil, models.NewExtractionError("failed to decode ocr result", err)
		}

		switch envelope.Status {
		case "succeeded":
			if envelope.AnalyzeResult == nil {
				return nil, models.NewExtractionError("ocr result missing analyzeResult", nil)
			}
			return envelope.AnalyzeResult, nil
		case "failed":
			reason := "unknown"
			if envelope.Error != nil {
				reason = envelope.Error.Message
			}
			return nil, models.NewExtractionError(fmt.Sprintf("ocr analysis failed: %s", reason), nil)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

type analyzeEnvelope struct {
	Status        string         `json:"status"`
	Error         *analyzeError  `json:"error,omitempty"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
}

type analyzeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Content string         `json:"content"`
	Pages   []analyzedPage `json:"pages"`
}

type analyzedPage struct {
	PageNumber int            `json:"pageNumber"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Unit       string         `json:"unit"`
	Words      []analyzedWord `json:"words"`
}

type analyzedWord struct {
	Content    string    `json:"content"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
}

// polygonToBox converts a flat quadrilateral [x1 y1 x2 y2 ...] in page units
// to a normalized bounding box. Normalizing here removes the inch/pixel
// ambiguity the service exhibits depending on input type. Unusable geometry
// maps to the zero box, which the masker later rejects per entity.
func polygonToBox(polygon []float64, pageWidth, pageHeight float64) models.BoundingBox {
	if len(polygon) < 8 || len(polygon)%2 != 0 || pageWidth <= 0 || pageHeight <= 0 {
		return models.BoundingBox{}
	}

	minX, minY := polygon[0], polygon[1]
	maxX, maxY := polygon[0], polygon[1]
	for i := 2; i < len(polygon); i += 2 {
		x, y := polygon[i], polygon[i+1]
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	return models.BoundingBox{
		X:      minX / pageWidth,
		Y:      minY / pageHeight,
		Width:  (maxX - minX) / pageWidth,
		Height: (maxY - minY) / pageHeight,
	}
}
