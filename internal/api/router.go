/**
 * @description
 * This file sets up the HTTP router for the card-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the necessary middleware, such as for authentication and admin checks.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CardRoutes creates and returns a new router for the card service.
func CardRoutes(h *CardHandlers, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public endpoints.
	r.Post("/auth/login", h.LoginHandler)
	r.Post("/auth/signup", h.SignupHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		// Cardholder endpoints.
		r.Get("/me", h.GetMyProfileHandler)
		r.Get("/cards", h.ListMyCardsHandler)
		r.Get("/cards/{cardID}", h.GetMyCardHandler)
		r.Get("/cards/{cardID}/balance", h.GetMyCardBalanceHandler)
		r.Post("/cards/{cardID}/block-request", h.RequestBlockHandler)
		r.Post("/transfers", h.TransferHandler)

		// Administrative endpoints.
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/admin/cards", h.ListCardsHandler)
			r.Get("/admin/cards/{cardID}", h.GetCardHandler)
			r.Post("/admin/cards/{cardID}/operations", h.PerformOperationHandler)
			r.Get("/admin/users", h.ListUsersHandler)
			r.Get("/admin/users/{userID}", h.GetUserHandler)
			r.Delete("/admin/users/{userID}", h.DeleteUserHandler)
			r.Post("/admin/users/{userID}/cards", h.IssueCardHandler)
			r.Get("/admin/block-requests", h.ListBlockRequestsHandler)
		})
	})

	return r
}
