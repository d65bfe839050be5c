// Package dispatch implements the assignment and forwarding protocols: the
// responder→employee task handoff with accept/reject/pass, automatic
// reassignment among idle employees, and cross-responder escalation.
//
// All state transitions go through conditional updates in the stores, so
// concurrent calls for the same report are linearizable per report: two
// racing accepts cannot both succeed, and reassignment claims an employee
// atomically. Notifications are fire-and-forget and never affect the
// outcome of an operation.
package dispatch

import (
	"context"
	"errors"

	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/app/system/notify"
	"github.com/rashikacodes/pulstrix/internal/app/system/travel"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNoIdleEmployee is returned by RespondToAssignment when a reject/pass
// exhausts the current responder's idle employees and the report falls back
// to verified. It satisfies errors.Is(err, apperr.ErrNotFound) but is a
// distinguishable signal, not a hard failure: the report now needs
// forwarding or re-matching.
var ErrNoIdleEmployee = apperr.NotFound("no idle employee available; report needs forwarding or re-matching")

// forwardCandidateLimit caps how many nearby responders the forwarding
// protocol considers.
const forwardCandidateLimit = 5

// Engine runs the assignment and forwarding protocols over the stores.
type Engine struct {
	reports    *reportstore.Store
	responders *responderstore.Store
	employees  *employeestore.Store
	travel     *travel.Client
	notifier   *notify.Notifier
	log        *zap.Logger
}

// NewEngine wires a dispatch engine.
func NewEngine(
	reports *reportstore.Store,
	responders *responderstore.Store,
	employees *employeestore.Store,
	travelClient *travel.Client,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		reports:    reports,
		responders: responders,
		employees:  employees,
		travel:     travelClient,
		notifier:   notifier,
		log:        logger,
	}
}

// Assign hands a report to a specific employee of the owning responder.
//
// The employee must be idle and unassigned; the claim is atomic, so two
// concurrent assigns of the same employee cannot both succeed. On success
// the employee is busy holding the report, the report is assigning with the
// employee appended to its trail, and the responder is recorded as current
// owner unless it already is.
func (e *Engine) Assign(ctx context.Context, responderID, employeeID, reportID primitive.ObjectID) error {
	if _, err := e.reports.GetByID(ctx, reportID); err != nil {
		return e.notFoundOr(err, "report not found")
	}

	if _, err := e.employees.Claim(ctx, employeeID, reportID); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.Internal(err)
		}
		// Claim matched nothing: absent employee, or one that is not idle.
		if _, gerr := e.employees.GetByID(ctx, employeeID); gerr != nil {
			return e.notFoundOr(gerr, "employee not found")
		}
		return apperr.Conflict("employee is not idle")
	}

	ok, err := e.reports.AppendAssignment(ctx, reportID, employeeID, responderID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		// Report vanished, left the dispatchable states, or the employee is
		// already trail-last; undo the claim so the employee is not stranded
		// busy.
		if _, rerr := e.employees.Release(ctx, employeeID, reportID); rerr != nil {
			e.log.Error("claim rollback failed",
				zap.String("employee_id", employeeID.Hex()), zap.Error(rerr))
		}
		if _, gerr := e.reports.GetByID(ctx, reportID); gerr != nil {
			return e.notFoundOr(gerr, "report not found")
		}
		return apperr.Conflict("report cannot take this assignment in its current state")
	}

	e.notifier.Send(notify.Target{UserID: employeeID.Hex()}, notify.Payload{
		Title: "New task assigned",
		Body:  "You have been assigned an incident. Accept, reject, or pass.",
		URL:   "/employee",
	})

	e.log.Info("employee assigned",
		zap.String("report_id", reportID.Hex()),
		zap.String("responder_id", responderID.Hex()),
		zap.String("employee_id", employeeID.Hex()))
	return nil
}

// RespondToAssignment applies an employee's accept, reject, or pass.
//
// accept moves the report to assigned; only the employee currently
// responsible can do it, and exactly one of two racing accepts wins
// (the loser gets Conflict).
//
// reject and pass are treated identically: the employee is freed and the
// engine claims another idle employee of the same responder and department
// who has not yet been on the report. When nobody is left the report falls
// back to verified and ErrNoIdleEmployee is returned. On reassignment the
// newly responsible employee is returned.
func (e *Engine) RespondToAssignment(ctx context.Context, action string, employeeID, reportID primitive.ObjectID) (*models.Employee, error) {
	switch action {
	case models.ActionAccept:
		return nil, e.accept(ctx, employeeID, reportID)
	case models.ActionReject, models.ActionPass:
		return e.reassign(ctx, employeeID, reportID)
	default:
		return nil, apperr.InvalidArgument("action must be %q, %q or %q",
			models.ActionAccept, models.ActionReject, models.ActionPass)
	}
}

func (e *Engine) accept(ctx context.Context, employeeID, reportID primitive.ObjectID) error {
	ok, err := e.reports.AcceptAssignment(ctx, reportID, employeeID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		report, gerr := e.reports.GetByID(ctx, reportID)
		if gerr != nil {
			return e.notFoundOr(gerr, "report not found")
		}
		if report.Status == models.StatusAssigned {
			return apperr.Conflict("report was already accepted")
		}
		return apperr.Conflict("employee is not currently responsible for this report")
	}

	report, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		// Acceptance succeeded; reporting is best-effort from here.
		e.log.Warn("reload after accept failed", zap.Error(err))
		return nil
	}

	// Tell the reporter and every responder that ever owned the report
	// that an employee is now engaged.
	e.notifier.Send(notify.Target{UserID: report.SessionID}, notify.Payload{
		Title: "Help is on the way",
		Body:  "A responder employee accepted your report.",
	})
	for _, rid := range report.ResponderIDs {
		e.notifier.Send(notify.Target{UserID: rid.Hex()}, notify.Payload{
			Title: "Assignment accepted",
			Body:  "An employee accepted the incident assignment.",
		})
	}

	e.log.Info("assignment accepted",
		zap.String("report_id", reportID.Hex()),
		zap.String("employee_id", employeeID.Hex()))
	return nil
}

func (e *Engine) reassign(ctx context.Context, employeeID, reportID primitive.ObjectID) (*models.Employee, error) {
	report, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, e.notFoundOr(err, "report not found")
	}
	if report.Status != models.StatusAssigning {
		// A reject that arrives after the report was accepted, resolved, or
		// fell back to verified is stale and must not move the report.
		return nil, apperr.Conflict("report is not awaiting an assignment response")
	}

	released, err := e.employees.Release(ctx, employeeID, reportID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !released {
		e.log.Info("rejecting employee was not holding the report",
			zap.String("report_id", reportID.Hex()),
			zap.String("employee_id", employeeID.Hex()))
	}

	owner, hasOwner := report.CurrentResponder()
	if !hasOwner {
		return nil, apperr.InvalidArgument("report has no owning responder")
	}

	// Employees already on the trail are never revisited, so cycling over
	// N idle employees touches each at most once.
	next, err := e.employees.ClaimNext(ctx, owner, match.DepartmentFor(report.Category), reportID, report.EmployeeIDs)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Internal(err)
		}
		if _, cerr := e.reports.CASStatus(ctx, reportID, models.StatusAssigning, models.StatusVerified); cerr != nil {
			return nil, apperr.Internal(cerr)
		}
		e.log.Info("no idle employee left, report falls back to verified",
			zap.String("report_id", reportID.Hex()))
		return nil, ErrNoIdleEmployee
	}

	ok, err := e.reports.AppendAssignment(ctx, reportID, next.ID, owner)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		if _, rerr := e.employees.Release(ctx, next.ID, reportID); rerr != nil {
			e.log.Error("reassignment rollback failed", zap.Error(rerr))
		}
		return nil, apperr.Conflict("report changed state during reassignment; retry")
	}

	e.notifier.Send(notify.Target{UserID: next.ID.Hex()}, notify.Payload{
		Title: "New task assigned",
		Body:  "An incident was reassigned to you. Accept, reject, or pass.",
		URL:   "/employee",
	})

	e.log.Info("report reassigned",
		zap.String("report_id", reportID.Hex()),
		zap.String("from_employee", employeeID.Hex()),
		zap.String("to_employee", next.ID.Hex()))
	return next, nil
}

// Forward escalates a report to a different responder of the same
// department, excluding the forwarder. When the travel-time collaborator is
// configured the candidate with the shortest driving duration wins;
// otherwise, or on any collaborator failure, the straight-line nearest
// candidate is used. With zero candidates the report is left untouched.
func (e *Engine) Forward(ctx context.Context, reportID, fromResponderID primitive.ObjectID) (*models.Responder, error) {
	report, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, e.notFoundOr(err, "report not found")
	}
	if report.Status == models.StatusResolved {
		return nil, apperr.Conflict("report is already resolved")
	}

	department := match.DepartmentFor(report.Category)
	candidates, err := e.responders.NearbyExcluding(ctx, department, report.Location, fromResponderID, forwardCandidateLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no other responders found nearby")
	}

	best := candidates[0]
	if e.travel != nil && e.travel.Configured() {
		dests := make([]models.GeoPoint, len(candidates))
		for i, c := range candidates {
			dests[i] = c.Location
		}
		durations, terr := e.travel.Durations(ctx, report.Location, dests)
		if terr != nil {
			e.log.Warn("travel-time lookup failed, using straight-line nearest", zap.Error(terr))
		} else if len(durations) == len(candidates) {
			best = candidates[travel.MinIndex(durations)]
		}
	}

	ok, err := e.reports.ForwardTo(ctx, reportID, best.ID, report.Status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict("report changed state during forwarding; retry")
	}

	e.notifier.Send(notify.Target{UserID: best.ID.Hex()}, notify.Payload{
		Title: "Incident forwarded to you",
		Body:  "Another responder forwarded an incident to your unit.",
		URL:   "/responder/dashboard",
	})

	e.log.Info("report forwarded",
		zap.String("report_id", reportID.Hex()),
		zap.String("from_responder", fromResponderID.Hex()),
		zap.String("to_responder", best.ID.Hex()))
	return &best, nil
}

// ChangeStatus applies an operator/ML override of status and/or severity.
// Both literals are validated before any write. A transition to resolved
// releases every employee ever listed on the report back to idle.
func (e *Engine) ChangeStatus(ctx context.Context, reportID primitive.ObjectID, status, severity string) (*models.Report, error) {
	if status == "" && severity == "" {
		return nil, apperr.InvalidArgument("at least one of status or severity is required")
	}
	if status != "" && !models.IsValidStatus(status) {
		return nil, apperr.InvalidArgument("invalid status %q", status)
	}
	if severity != "" && !models.IsValidSeverity(severity) {
		return nil, apperr.InvalidArgument("invalid severity %q", severity)
	}

	report, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, e.notFoundOr(err, "report not found")
	}

	if severity != "" {
		matched, err := e.reports.SetSeverity(ctx, reportID, severity)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if matched == 0 && status != models.StatusResolved {
			return nil, apperr.Conflict("report is already resolved")
		}
	}

	if status != "" {
		matched, err := e.reports.SetStatus(ctx, reportID, status)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if matched == 0 {
			return nil, apperr.NotFound("report not found")
		}
		if status == models.StatusResolved {
			if _, err := e.employees.ReleaseMany(ctx, report.EmployeeIDs); err != nil {
				return nil, apperr.Internal(err)
			}
		}
	}

	updated, err := e.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return updated, nil
}

// notFoundOr maps mongo.ErrNoDocuments to a NotFound with the given
// message, anything else to Internal.
func (e *Engine) notFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Internal(err)
}
