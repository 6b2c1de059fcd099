package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/docveil/docveil/pkg/auth"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/docveil/docveil/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const ReadHeaderTimeout = 5 * time.Second

const defaultMaxRequestSize = 50 << 20 // scanned PDFs get large

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	maxRequestSize := appState.Config.Server.MaxRequestSize
	if maxRequestSize <= 0 {
		maxRequestSize = defaultMaxRequestSize
	}

	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.RequestSize(maxRequestSize))

	// Health stays outside the auth scope
	router.Get("/healthz", HealthCheckHandler(appState))

	router.Route("/api/v1", func(r chi.Router) {
		if appState.Config.Auth.Required {
			log.Info("JWT authentication required")
			r.Use(auth.JWTVerifier(appState.Config))
			r.Use(jwtauth.Authenticator)
		}
		// Single-document routes
		r.Route("/documents", func(r chi.Router) {
			r.Post("/process", ProcessDocumentHandler(appState))
			r.Post("/mask", MaskDocumentHandler(appState))
		})
		// Batch folder routes
		r.Route("/batch", func(r chi.Router) {
			r.Post("/scan", ScanFolderHandler(appState))
			r.Post("/", RunBatchHandler(appState))
		})
	})

	return router
}
