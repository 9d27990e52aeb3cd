package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns the API routes
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(Logger)
	router.Use(middleware.Recoverer)
	router.Use(CORS(allowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", h.GetHealth)

		router.Post("/takeoff", h.CalculateTakeoff)

		router.Route("/atmosphere", func(router chi.Router) {
			router.Get("/temperature", h.GetStandardTemperature)
			router.Get("/pressure-altitude", h.GetPressureAltitude)
			router.Get("/deviation", h.GetTemperatureDeviation)
		})

		router.Get("/navigation/wind", h.GetWindTriangle)

		router.Get("/history", h.GetHistory)
	})

	return router
}
