// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all report routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{reportID}", h.Get)
	r.Post("/{reportID}/status", h.ChangeStatus)
	r.Post("/{reportID}/vote", h.Vote)
}
