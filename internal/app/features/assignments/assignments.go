// internal/app/features/assignments/assignments.go
package assignments

import (
	"context"
	"net/http"

	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// assignCommand hands a report to one of the responder's employees.
type assignCommand struct {
	ResponderID string `json:"responder_id"`
	EmployeeID  string `json:"employee_id"`
	ReportID    string `json:"report_id"`
}

// Assign handles POST /api/assignments.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var cmd assignCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	responderID, err := objectID("responder_id", cmd.ResponderID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	employeeID, err := objectID("employee_id", cmd.EmployeeID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	reportID, err := objectID("report_id", cmd.ReportID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Dispatch.Assign(ctx, responderID, employeeID, reportID); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Report assigned to employee", nil)
}

// respondCommand is an employee's answer to a pending assignment.
type respondCommand struct {
	Action     string `json:"action"` // accept | reject | pass
	EmployeeID string `json:"employee_id"`
	ReportID   string `json:"report_id"`
}

// Respond handles POST /api/assignments/respond. Accept locks the
// assignment in; reject and pass hand the report to the responder's next
// idle employee, or fall the report back to verified when none remain.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	var cmd respondCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	employeeID, err := objectID("employee_id", cmd.EmployeeID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	reportID, err := objectID("report_id", cmd.ReportID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	next, err := h.Dispatch.RespondToAssignment(ctx, cmd.Action, employeeID, reportID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	switch cmd.Action {
	case models.ActionAccept:
		httpapi.OK(w, "Assignment accepted", nil)
	default:
		httpapi.OK(w, "Report reassigned", next)
	}
}

// objectID parses a hex ObjectID from a command field.
func objectID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid %s %q", field, raw)
	}
	return id, nil
}
