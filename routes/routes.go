package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/userauth-api/app"
	"github.com/upb/userauth-api/middleware"
	"github.com/upb/userauth-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Mount("/api/users", deps.UserHandler.Routes(deps.AuthMiddleware.RequireAuth))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteEmpty(w, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteEmpty(w, http.StatusMethodNotAllowed)
	})

	return r
}
