// internal/app/features/employees/employees.go
package employees

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Roster handles GET /api/responders/{responderID}/employees. The optional
// status filter (?status=idle) narrows the roster to assignable employees.
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "responderID")
	responderID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid responderID %q", raw))
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != models.EmployeeIdle && status != models.EmployeeBusy {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid status filter %q", status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	roster, err := h.Employees.ListByResponder(ctx, responderID, status)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}
	httpapi.OK(w, "Employees fetched", roster)
}

// taskView pairs an employee with their currently assigned report.
type taskView struct {
	Employee *models.Employee `json:"employee"`
	Report   *models.Report   `json:"report,omitempty"`
}

// Tasks handles GET /api/employees/{employeeID}/tasks. An assignment pointer
// to a report that no longer exists is cleared on read so the employee does
// not stay stuck busy on a vanished report.
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "employeeID")
	employeeID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid employeeID %q", raw))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	employee, err := h.Employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.Error(w, h.Log, apperr.NotFound("employee not found"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	if employee.ReportIDAssigned == nil {
		httpapi.OK(w, "No active task", taskView{Employee: employee})
		return
	}

	report, err := h.Reports.GetByID(ctx, *employee.ReportIDAssigned)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Warn("clearing dangling assignment",
				zap.String("employee_id", employeeID.Hex()),
				zap.String("report_id", employee.ReportIDAssigned.Hex()))
			if cerr := h.Employees.ClearDangling(ctx, employeeID); cerr != nil {
				httpapi.Error(w, h.Log, apperr.Internal(cerr))
				return
			}
			employee.Status = models.EmployeeIdle
			employee.ReportIDAssigned = nil
			httpapi.OK(w, "No active task", taskView{Employee: employee})
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpapi.OK(w, "Task fetched", taskView{Employee: employee, Report: report})
}
