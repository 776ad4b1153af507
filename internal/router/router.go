package router

import (
	"net/http"

	"notes-portal/internal/handler"
	"notes-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	offerHandler *handler.OfferHandler,
	authHandler *handler.AuthHandler,
	tokens middleware.TokenValidator,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> Logging -> CORS, then auth per group
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api/offers", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKey, logger))
		r.Get("/active", offerHandler.ListActive)
		r.Post("/evaluate", offerHandler.Evaluate)
		r.Post("/redeem", offerHandler.Redeem)
		r.Post("/checkout", offerHandler.Checkout)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminJWT(tokens, logger))
			r.Post("/offers", offerHandler.Create)
			r.Get("/offers/{id}", offerHandler.GetByID)
			r.Patch("/offers/{id}", offerHandler.Update)
			r.Delete("/offers/{id}", offerHandler.Delete)
		})
	})

	return r
}
