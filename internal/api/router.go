package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Read-only views.
	r.Get("/triage", h.Triage)
	r.Get("/recommendations", h.Recommendations)
	r.Get("/orphans", h.Orphans)
	r.Get("/history", h.History)

	// Mutations.
	r.Post("/promote", h.Promote)
	r.Post("/repair", h.Repair)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
