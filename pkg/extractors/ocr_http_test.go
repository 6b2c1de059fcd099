package extractors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/models"
)

func ocrClientForServer(serverURL string) *DocumentIntelligenceOCR {
	cfg := &config.Config{}
	cfg.OCR.ServerURL = serverURL
	cfg.OCR.APIKey = "ocr-key"
	cfg.OCR.TimeoutSecs = 5
	c := NewDocumentIntelligenceOCR(cfg)
	c.pollInterval = time.Millisecond
	return c
}

func succeededResult() analyzeEnvelope {
	return analyzeEnvelope{
		Status: "succeeded",
		AnalyzeResult: &analyzeResult{
			Content: "Patient: John Doe",
			Pages: []analyzedPage{
				{
					PageNumber: 1,
					Width:      8.5,
					Height:     11,
					Unit:       "inch",
					Words: []analyzedWord{
						{
							Content:    "John",
							Polygon:    []float64{1.7, 1.1, 2.55, 1.1, 2.55, 1.32, 1.7, 1.32},
							Confidence: 0.98,
						},
					},
				},
			},
		},
	}
}

func TestDocumentIntelligenceOCRAnalyzeImage(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc(analyzePath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "ocr-key", r.Header.Get(apiKeyHeader))
		assert.Equal(t, analyzeAPIVersion, r.URL.Query().Get("api-version"))
		w.Header().Set("Operation-Location", server.URL+"/result/abc")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/result/abc", func(w http.ResponseWriter, _ *http.Request) {
		envelope := succeededResult()
		if polls.Add(1) == 1 {
			envelope = analyzeEnvelope{Status: "running"}
		}
		_ = json.NewEncoder(w).Encode(envelope)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	page, err := ocrClientForServer(server.URL).AnalyzeImage(context.Background(), []byte("png"), 4)
	require.NoError(t, err)

	assert.Equal(t, 4, page.PageNumber)
	assert.Equal(t, "Patient: John Doe", page.Text)
	assert.Equal(t, "inch", page.Unit)
	require.Len(t, page.Words, 1)

	word := page.Words[0]
	assert.Equal(t, "John", word.Text)
	assert.Equal(t, 4, word.PageNumber)
	assert.InDelta(t, 1.7/8.5, word.Box.X, 1e-9)
	assert.InDelta(t, 1.1/11, word.Box.Y, 1e-9)
	assert.InDelta(t, 0.85/8.5, word.Box.Width, 1e-9)
	assert.InDelta(t, 0.22/11, word.Box.Height, 1e-9)
	assert.True(t, polls.Load() >= 2, "expected at least one running poll before success")
}

func TestDocumentIntelligenceOCRAnalysisFailed(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc(analyzePath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Operation-Location", server.URL+"/result/abc")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/result/abc", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(analyzeEnvelope{
			Status: "failed",
			Error:  &analyzeError{Code: "InvalidImage", Message: "image could not be decoded"},
		})
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	_, err := ocrClientForServer(server.URL).AnalyzeImage(context.Background(), []byte("png"), 1)
	require.Error(t, err)
	var extErr *models.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, err.Error(), "image could not be decoded")
}

func TestDocumentIntelligenceOCRMissingOperationLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	_, err := ocrClientForServer(server.URL).AnalyzeImage(context.Background(), []byte("png"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operation-Location")
}

func TestPolygonToBox(t *testing.T) {
	testCases := []struct {
		name     string
		polygon  []float64
		expected models.BoundingBox
	}{
		{
			"axis aligned quad",
			[]float64{1, 2, 3, 2, 3, 4, 1, 4},
			models.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
		},
		{
			"skewed quad uses extremes",
			[]float64{1, 2.2, 3, 2, 3, 4, 1, 3.8},
			models.BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
		},
		{"too few points", []float64{1, 2, 3, 4}, models.BoundingBox{}},
		{"odd length", []float64{1, 2, 3, 4, 5, 6, 7}, models.BoundingBox{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			box := polygonToBox(tc.polygon, 10, 20)
			assert.InDelta(t, tc.expected.X, box.X, 1e-9)
			assert.InDelta(t, tc.expected.Y, box.Y, 1e-9)
			assert.InDelta(t, tc.expected.Width, box.Width, 1e-9)
			assert.InDelta(t, tc.expected.Height, box.Height, 1e-9)
		})
	}
}
