// Package rest wires the chi router for the family tree API.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"familytree-backend/application/services"
	"familytree-backend/infrastructure/cache"
	"familytree-backend/infrastructure/config"
	"familytree-backend/interfaces/http/rest/handlers"
	"familytree-backend/interfaces/http/rest/middleware"
	pkgerrors "familytree-backend/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	service  *services.FamilyTreeService
	registry *cache.Registry
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	service *services.FamilyTreeService,
	registry *cache.Registry,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		service:  service,
		registry: registry,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.ResponseTime)

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Response-Time"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	adminGuard := middleware.AdminGuard(rt.cfg, rt.logger)

	// Family tree endpoints
	router.Route("/api/family-tree", func(r chi.Router) {
		treeHandler := handlers.NewTreeHandler(rt.service, errorHandler, rt.logger)
		detailsHandler := handlers.NewDetailsHandler(rt.service, errorHandler, rt.logger)

		r.Get("/", treeHandler.GetFullTree)
		r.Get("/search", treeHandler.Search)
		r.Get("/level/{level}", treeHandler.GetByLevel)
		r.Get("/count", treeHandler.Count)
		r.Post("/", treeHandler.CreatePerson)

		r.Group(func(r chi.Router) {
			r.Use(adminGuard)
			r.Post("/reload-data", treeHandler.ReloadData)
			r.Patch("/reset-positions", treeHandler.ResetPositions)
		})

		r.Get("/{id}", treeHandler.GetPerson)
		r.Get("/{id}/descendants", treeHandler.GetDescendants)
		r.Patch("/{id}", treeHandler.UpdatePerson)
		r.Delete("/{id}", treeHandler.DeletePerson)

		r.Post("/{id}/details", detailsHandler.SaveDetails)
		r.Get("/{id}/details", detailsHandler.GetDetails)
		r.Delete("/{id}/details", detailsHandler.DeleteDetails)
	})

	// Cache management endpoints
	router.Route("/api/cache", func(r chi.Router) {
		cacheHandler := handlers.NewCacheHandler(rt.registry, errorHandler, rt.logger)

		r.Get("/stats", cacheHandler.GetStats)
		r.Get("/stats/{name}", cacheHandler.GetCacheStats)
		r.Get("/names", cacheHandler.GetNames)

		r.Group(func(r chi.Router) {
			r.Use(adminGuard)
			r.Delete("/clear", cacheHandler.ClearAll)
			r.Delete("/clear/{name}", cacheHandler.ClearCache)
			r.Delete("/evict/{name}/{key}", cacheHandler.EvictKey)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
