// internal/app/features/responders/handler.go
package responders

import (
	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	"go.uber.org/zap"
)

// Handler owns responder and employee registration.
type Handler struct {
	Responders *responderstore.Store
	Employees  *employeestore.Store
	Log        *zap.Logger
}

// NewHandler constructs a responders Handler.
func NewHandler(responders *responderstore.Store, employees *employeestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Responders: responders, Employees: employees, Log: logger}
}
