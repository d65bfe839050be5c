// internal/app/features/forwarding/handler.go
package forwarding

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/dispatch"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler owns the cross-responder forwarding handler.
type Handler struct {
	Dispatch *dispatch.Engine
	Log      *zap.Logger
}

// NewHandler constructs a forwarding Handler.
func NewHandler(engine *dispatch.Engine, logger *zap.Logger) *Handler {
	return &Handler{Dispatch: engine, Log: logger}
}

// forwardCommand names the responder giving the report up.
type forwardCommand struct {
	ResponderID string `json:"responder_id"`
}

// Forward handles POST /api/reports/{reportID}/forward: the current owner
// hands the report to the nearest other responder of the same department,
// ranked by travel time when the matrix service is configured.
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "reportID")
	reportID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid reportID %q", raw))
		return
	}

	var cmd forwardCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	responderID, err := primitive.ObjectIDFromHex(cmd.ResponderID)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid responder_id %q", cmd.ResponderID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, err := h.Dispatch.Forward(ctx, reportID, responderID)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Report forwarded", target)
}
