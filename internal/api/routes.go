package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voxsplit/voxsplit/internal/config"
	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Transcription runs
		router.Post("/transcriptions", r.handler.SubmitTranscription)
		router.Get("/transcriptions", r.handler.ListRuns)
		router.Get("/transcriptions/{id}", r.handler.GetRun)
		router.Get("/transcriptions/{id}/text", r.handler.GetRunText)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
