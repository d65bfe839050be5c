// internal/app/features/assignments/routes.go
package assignments

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the assignment routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Assign)
	r.Post("/respond", h.Respond)
}
