// internal/app/features/collections/routes.go
package collectionsfeature

import (
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for /api/collections. Every signed-in user
// manages collections.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeDetail)
	r.Patch("/{id}", h.HandleRename)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/movies", h.HandleAddMovies)
	r.Delete("/{id}/movies/{movieId}", h.HandleRemoveMovie)

	return r
}
