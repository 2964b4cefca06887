package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-srs/internal/api"
	authmiddleware "github.com/phrazzld/scry-srs/internal/api/middleware"
	"github.com/rs/cors"
)

// setupRouter builds the HTTP routes and their middleware chain.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(authmiddleware.NewTraceMiddleware(app.logger))

	// An empty origin list disables CORS; rs/cors would otherwise allow any origin
	if origins := app.config.Server.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Trace-ID", "Retry-After"},
			MaxAge:         300,
		}).Handler)
	}

	authMiddleware := authmiddleware.NewAuthMiddleware(app.jwtService)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)

	submitReview := http.Handler(http.HandlerFunc(reviewHandler.SubmitReview))
	if rl := app.config.RateLimit; rl.Enabled {
		limiter := authmiddleware.NewUserRateLimiter(rl.RequestsPerSecond, rl.Burst)
		app.logger.Info("review rate limiting enabled", slog.Any("limiter", limiter))
		submitReview = limiter.Limit(submitReview)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/items", reviewHandler.IntroduceItem)
		r.Get("/items/{id}", reviewHandler.GetItem)
		r.Method(http.MethodPost, "/items/{id}/reviews", submitReview)

		r.Get("/queue", reviewHandler.GetQueue)
		r.Get("/recommendations", reviewHandler.GetRecommendations)
		r.Get("/summary", reviewHandler.GetSummary)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
