package api

import (
	"net/http"

	"github.com/dom/tcg-collection/internal/api/handlers"
	"github.com/dom/tcg-collection/internal/api/middleware"
	"github.com/dom/tcg-collection/internal/config"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	catalogHandler := handlers.NewCatalogHandler(services.Catalog, logger)
	userCardHandler := handlers.NewUserCardHandler(services.Collection, logger)
	importHandler := handlers.NewImportHandler(services.Import, logger)
	requireAuth := middleware.Auth(services.Auth, logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/token", authHandler.Token)
			r.Post("/token/refresh", authHandler.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Card detail is public
		r.Get("/cards/{externalID}", catalogHandler.GetCard)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/expansions", func(r chi.Router) {
				r.Get("/", catalogHandler.ListExpansions)
				r.Get("/{externalID}/cards", catalogHandler.ListCards)
			})

			r.Route("/user-cards", func(r chi.Router) {
				r.Get("/", userCardHandler.List)
				r.Post("/", userCardHandler.Create)
				r.Post("/add", userCardHandler.Add)
				r.Get("/grouped", userCardHandler.Grouped)
				r.Get("/{id}", userCardHandler.Get)
				r.Patch("/{id}", userCardHandler.Update)
				r.Delete("/{id}", userCardHandler.Delete)
			})

			r.Get("/user-expansions", userCardHandler.OwnedExpansions)

			// Operator-triggered imports; not mounted unless enabled
			if cfg.ImportAPIEnabled {
				r.Route("/import", func(r chi.Router) {
					r.Post("/expansions", importHandler.Expansions)
					r.Post("/expansions/{externalID}/cards", importHandler.ExpansionCards)
					r.Post("/cards", importHandler.AllCards)
				})
			}
		})
	})

	return r
}
