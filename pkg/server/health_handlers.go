package server

import (
	"net/http"

	"github.com/docveil/docveil/config"
	"github.com/docveil/docveil/pkg/models"
	"github.com/docveil/docveil/pkg/server/handlertools"
)

type healthResponse struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Services map[string]bool `json:"services"`
}

// HealthCheckHandler godoc
//
//	@Summary	Reports whether each processing collaborator is configured
//	@Tags		health
//	@Produce	json
//	@Router		/healthz [get]
func HealthCheckHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]bool{
			"ocr":       appState.OCR != nil,
			"extractor": appState.Extractor != nil,
			"renderer":  appState.Renderer != nil,
		}

		status := "healthy"
		for _, configured := range services {
			if !configured {
				status = "degraded"
			}
		}

		resp := healthResponse{
			Status:   status,
			Version:  config.VersionString,
			Services: services,
		}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}
