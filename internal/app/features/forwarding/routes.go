// internal/app/features/forwarding/routes.go
package forwarding

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the forwarding route. It shares the /api/reports
// subtree with the reports feature.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{reportID}/forward", h.Forward)
}
