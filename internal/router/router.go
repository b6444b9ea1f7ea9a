// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chain of the
// postcraft API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"postcraft/internal/handlers"
	"postcraft/internal/middleware"
	"postcraft/internal/session"
)

// Options configure the middleware chain.
type Options struct {
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string

	// Secure marks cookies Secure; set it behind TLS.
	Secure bool

	// RateLimiter, when set, limits API calls per client IP.
	RateLimiter *middleware.RateLimiter
}

// New creates the router with all middleware and routes wired up.
func New(api *handlers.API, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check: no session, no CSRF.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		r.Use(session.NewManager(opts.Secure).Middleware)
		r.Use(middleware.NewCSRF(opts.Secure))
		api.Routes(r)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.CSRFHeaderName},
		ExposedHeaders:   []string{middleware.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler(r)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
