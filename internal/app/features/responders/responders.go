// internal/app/features/responders/responders.go
package responders

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/htmlsanitize"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// createResponderCommand registers a responder unit at a fixed location.
type createResponderCommand struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone,omitempty"`
	Department string  `json:"department"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

func (c *createResponderCommand) validate() error {
	if c.Name == "" || c.Email == "" {
		return apperr.InvalidArgument("name and email are required")
	}
	if !match.IsValidDepartment(c.Department) {
		return apperr.InvalidArgument("invalid department %q", c.Department)
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return apperr.InvalidArgument("coordinates out of range")
	}
	return nil
}

// Create handles POST /api/responders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd createResponderCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	if err := cmd.validate(); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Responders.Create(ctx, models.Responder{
		Name:       htmlsanitize.Sanitize(cmd.Name),
		Email:      cmd.Email,
		Phone:      cmd.Phone,
		Department: cmd.Department,
		Location:   models.NewGeoPoint(cmd.Latitude, cmd.Longitude),
	})
	if err != nil {
		if errors.Is(err, responderstore.ErrDuplicateEmail) {
			httpapi.Error(w, h.Log, apperr.Conflict("a responder with that email already exists"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Log.Info("responder registered",
		zap.String("responder_id", created.ID.Hex()),
		zap.String("department", created.Department))
	httpapi.Created(w, "Responder registered", created)
}

// createEmployeeCommand adds a field employee to a responder's roster. The
// department is inherited from the responder.
type createEmployeeCommand struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// CreateEmployee handles POST /api/responders/{responderID}/employees.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "responderID")
	responderID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid responderID %q", raw))
		return
	}

	var cmd createEmployeeCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	if cmd.Name == "" || cmd.Email == "" {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("name and email are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	responder, err := h.Responders.GetByID(ctx, responderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.Error(w, h.Log, apperr.NotFound("responder not found"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	created, err := h.Employees.Create(ctx, models.Employee{
		Name:        htmlsanitize.Sanitize(cmd.Name),
		Email:       cmd.Email,
		Phone:       cmd.Phone,
		ResponderID: responder.ID,
		Department:  responder.Department,
		Status:      models.EmployeeIdle,
	})
	if err != nil {
		if errors.Is(err, employeestore.ErrDuplicateEmail) {
			httpapi.Error(w, h.Log, apperr.Conflict("an employee with that email already exists"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	if err := h.Responders.AddEmployee(ctx, responder.ID, created.ID); err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpapi.Created(w, "Employee registered", created)
}
