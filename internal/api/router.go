package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dendra/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(v *vault.Vault, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(v)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tree.
	r.Get("/tree", h.Tree)

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{name}", h.GetNote)
	r.Put("/notes/{name}", h.UpdateNote)
	r.Delete("/notes/{name}", h.DeleteNote)
	r.Post("/notes/{name}/move", h.MoveNote)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
