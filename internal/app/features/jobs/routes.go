// internal/app/features/jobs/routes.go
package jobsfeature

import (
	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"github.com/dalemusser/stratareel/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the admin maintenance router, mounted at /api/admin.
// Access is restricted to the admin role.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/jobs", h.ServeList)
	r.Post("/jobs/{name}/run", h.HandleRun)
	r.Post("/integrity/sweep", h.HandleSweep)

	return r
}

// APIRoutes returns the API-key router, mounted at /api/maintenance.
func APIRoutes(h *Handler, apiKey string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Post("/sweep", h.HandleAPISweep)

	return r
}
