// internal/app/features/employees/handler.go
package employees

import (
	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	"go.uber.org/zap"
)

// Handler owns the employee roster and task handlers.
type Handler struct {
	Employees *employeestore.Store
	Reports   *reportstore.Store
	Log       *zap.Logger
}

// NewHandler constructs an employees Handler.
func NewHandler(employees *employeestore.Store, reports *reportstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Employees: employees, Reports: reports, Log: logger}
}
