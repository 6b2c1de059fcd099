package extractors

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/internal"
	"github.com/docveil/docveil/pkg/models"
)

const (
	messagesPath        = "/v1/messages"
	visionAPIVersion    = "2023-06-01"
	ocrContextTextLimit = 3000
	defaultConfidence   = 0.9
)

var _ models.EntityExtractor = &VisionExtractor{}

// VisionExtractor locates entity mentions by sending the page image plus OCR
// context to a vision model endpoint. The model returns candidates with
// normalized bounding boxes; resolution and replacement happen downstream.
type VisionExtractor struct {
	client    *http.Client
	serverURL string
	apiKey    string
	model     string
	maxTokens int
}

func NewVisionExtractor(cfg *config.Config) *VisionExtractor {
	return &VisionExtractor{
		client: NewRetryableHTTPClient(
			cfg.Extractor.RetryMax,
			time.Duration(cfg.Extractor.TimeoutSecs)*time.Second,
		),
		serverURL: strings.TrimSuffix(cfg.Extractor.ServerURL, "/"),
		apiKey:    cfg.Extractor.APIKey,
		model:     cfg.Extractor.Model,
		maxTokens: cfg.Extractor.MaxTokens,
	}
}

func (v *VisionExtractor) ExtractEntities(
	ctx context.Context,
	imagePNG []byte,
	ocr *models.OCRPage,
	fields []models.FieldDefinition,
	pageNumber int,
) ([]models.EntityCandidate, error) {
	prompt, err := buildExtractionPrompt(fields, ocr)
	if err != nil {
		return nil, err
	}

	reqBody := visionRequest{
		Model:     v.model,
		MaxTokens: v.maxTokens,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionContent{
					{
						Type: "image",
						Source: &visionImageSource{
							Type:      "base64",
							MediaType: "image/png",
							Data:      base64.StdEncoding.EncodeToString(imagePNG),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, models.NewExtractionError("failed to marshal extraction request", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, v.serverURL+messagesPath, bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", v.apiKey)
	req.Header.Set("anthropic-version", visionAPIVersion)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, models.NewExtractionError("extraction request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, models.NewExtractionError(
			fmt.Sprintf("extraction endpoint returned %d: %s", resp.StatusCode, body), nil,
		)
	}

	var vr visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, models.NewExtractionError("failed to decode extraction response", err)
	}

	var text string
	for _, c := range vr.Content {
		if c.Type == "text" {
			text = c.Text
			break
		}
	}
	if text == "" {
		return nil, models.NewExtractionError("extraction response contained no text", nil)
	}

	candidates := parseCandidates(text, pageNumber)
	log.Debugf("page %d: extracted %d entity candidates", pageNumber, len(candidates))
	return candidates, nil
}

func buildExtractionPrompt(fields []models.FieldDefinition, ocr *models.OCRPage) (string, error) {
	var fieldLines []string
	for _, f := range fields {
		fieldLines = append(fieldLines, fmt.Sprintf("- **%s**: %s", f.Name, f.Description))
	}

	text := ocr.Text
	if len(text) > ocrContextTextLimit {
		text = text[:ocrContextTextLimit]
	}
	ocrContext, err := json.MarshalIndent(map[string]interface{}{
		"text":       text,
		"word_count": len(ocr.Words),
		"words":      ocr.Words,
	}, "", "  ")
	if err != nil {
		return "", models.NewExtractionError("failed to marshal ocr context", err)
	}

	return internal.ParsePrompt(extractionPromptTemplate, extractionPromptData{
		OCRContext: string(ocrContext),
		Fields:     strings.Join(fieldLines, "\n"),
	})
}

// parseCandidates extracts the JSON array from the model's reply, tolerating
// markdown code fences, and drops malformed entries rather than failing the
// page. A reply we cannot parse at all yields zero candidates.
func parseCandidates(text string, pageNumber int) []models.EntityCandidate {
	var wire []candidateWire
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &wire); err != nil {
		log.Errorf("failed to parse extraction response as JSON: %v", err)
		return nil
	}

	candidates := make([]models.EntityCandidate, 0, len(wire))
	for _, w := range wire {
		if w.EntityType == "" || w.OriginalText == "" || len(w.BoundingBox) != 4 {
			log.Warnf("dropping malformed entity candidate: %+v", w)
			continue
		}
		confidence := w.Confidence
		if confidence == 0 {
			confidence = defaultConfidence
		}
		candidates = append(candidates, models.EntityCandidate{
			Type: w.EntityType,
			Text: w.OriginalText,
			Box: models.BoundingBox{
				X:      w.BoundingBox[0],
				Y:      w.BoundingBox[1],
				Width:  w.BoundingBox[2],
				Height: w.BoundingBox[3],
			},
			PageNumber: pageNumber,
			Confidence: confidence,
		})
	}
	return candidates
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if start := strings.Index(s, "```json"); start != -1 {
		s = s[start+len("```json"):]
	} else if start := strings.Index(s, "```"); start != -1 {
		s = s[start+3:]
	} else {
		return s
	}
	if end := strings.Index(s, "```"); end != -1 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

type visionRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []visionMessage `json:"messages"`
}

type visionMessage struct {
	Role    string          `json:"role"`
	Content []visionContent `json:"content"`
}

type visionContent struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *visionImageSource `json:"source,omitempty"`
}

type visionImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type visionResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type candidateWire struct {
	EntityType   string    `json:"entity_type"`
	OriginalText string    `json:"original_text"`
	BoundingBox  []float64 `json:"bounding_box"`
	Confidence   float64   `json:"confidence"`
}
