// internal/app/features/movies/routes.go
package moviesfeature

import (
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for /api/movies. Reads need a signed-in user;
// create and delete are admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/featured", h.ServeFeatured)
	r.Get("/{id}", h.ServeDetail)
	r.Get("/{id}/collections", h.ServeCollections)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin))
		r.Post("/", h.HandleCreate)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}
