// internal/app/features/responders/routes.go
package responders

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the registration routes under /api/responders. The
// roster read routes live in the employees feature.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/{responderID}/employees", h.CreateEmployee)
}
