// internal/app/features/employees/routes.go
package employees

import "github.com/go-chi/chi/v5"

// MountResponderRoutes mounts the roster route under /api/responders.
func (h *Handler) MountResponderRoutes(r chi.Router) {
	r.Get("/{responderID}/employees", h.Roster)
}

// MountEmployeeRoutes mounts the task route under /api/employees.
func (h *Handler) MountEmployeeRoutes(r chi.Router) {
	r.Get("/{employeeID}/tasks", h.Tasks)
}
