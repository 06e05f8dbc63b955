// Package router sets up all HTTP routes and middleware chains for the
// SygaCMS API. Read routes are public; every write route requires a
// bearer token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sygacms/internal/auth"
	"sygacms/internal/handlers"
	"sygacms/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(tokens *auth.TokenStore, posts *handlers.Posts, terms *handlers.Terms, authHandlers *handlers.Auth) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Authenticate(tokens))

	// Health check, no auth.
	r.Get("/health", healthHandler)

	// Authentication.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandlers.Login)
		r.Post("/logout", authHandlers.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/2fa/setup", authHandlers.TwoFASetup)
			r.Post("/2fa/verify", authHandlers.TwoFAVerify)
		})
	})

	// Posts.
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", posts.Index)
		r.Get("/{id:[0-9]+}", posts.Show)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", posts.Create)
			r.Put("/{id:[0-9]+}", posts.Update)
			// The fixed purge path must not be captured by the id route.
			r.Delete("/purge", posts.Purge)
			r.Delete("/{id:[0-9]+}", posts.Delete)
		})
	})

	// Terms.
	r.Route("/terms", func(r chi.Router) {
		r.Get("/", terms.Index)
		r.Get("/{id:[0-9]+}", terms.Show)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", terms.Create)
			r.Put("/{id:[0-9]+}", terms.Update)
			r.Delete("/{id:[0-9]+}", terms.Delete)
		})
	})

	return r
}

// healthHandler responds with a simple OK status for load balancer checks.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
