// internal/app/features/reports/reports.go
package reports

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/htmlsanitize"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultFeedLimit bounds GET /api/reports when no limit is given.
const defaultFeedLimit = 50

// maxFeedLimit caps a caller-supplied limit.
const maxFeedLimit = 200

// createCommand is the submission payload. Coordinates arrive as plain
// lat/lng and are stored as GeoJSON.
type createCommand struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Phone       string  `json:"phone,omitempty"`
	Image       string  `json:"image,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (c *createCommand) validate() error {
	if !models.IsValidCategory(c.Category) {
		return apperr.InvalidArgument("invalid category %q", c.Category)
	}
	if c.Description == "" {
		return apperr.InvalidArgument("description is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return apperr.InvalidArgument("latitude out of range")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return apperr.InvalidArgument("longitude out of range")
	}
	return nil
}

// Create handles POST /api/reports. The report is persisted immediately and
// verification (dedup, severity, matching) runs detached, so the submitter
// gets a 201 without waiting on collaborator services.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd createCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	if err := cmd.validate(); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	sessionID := h.Sessions.SessionID(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Store.Create(ctx, models.Report{
		SessionID:   sessionID,
		UserID:      cmd.UserID,
		Category:    cmd.Category,
		Description: htmlsanitize.Sanitize(cmd.Description),
		Phone:       htmlsanitize.Sanitize(cmd.Phone),
		Image:       cmd.Image,
		Location:    models.NewGeoPoint(cmd.Latitude, cmd.Longitude),
	})
	if err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	h.Log.Info("report created",
		zap.String("report_id", created.ID.Hex()),
		zap.String("category", created.Category))

	h.Verifier.Run(created)

	httpapi.Created(w, "Report submitted", created)
}

// List handles GET /api/reports: the recent-first public feed.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultFeedLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid limit %q", v))
			return
		}
		if n > maxFeedLimit {
			n = maxFeedLimit
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reports, err := h.Store.ListRecent(ctx, limit)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}
	httpapi.OK(w, "Reports fetched", reports)
}

// Get handles GET /api/reports/{reportID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reportID")
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	report, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.Error(w, h.Log, apperr.NotFound("report not found"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}
	httpapi.OK(w, "Report fetched", report)
}

// statusCommand carries an operator override of status and/or severity.
type statusCommand struct {
	Status   string `json:"status,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// ChangeStatus handles POST /api/reports/{reportID}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reportID")
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	var cmd statusCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	updated, err := h.Dispatch.ChangeStatus(ctx, id, cmd.Status, cmd.Severity)
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	httpapi.OK(w, "Report updated", updated)
}

// voteCommand carries one community vote.
type voteCommand struct {
	Action string `json:"action"` // upvote | downvote
}

// Vote handles POST /api/reports/{reportID}/vote. A session votes at most
// once per report; repeat votes are acknowledged without changing counts.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reportID")
	if err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}

	var cmd voteCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	if cmd.Action != models.VoteUp && cmd.Action != models.VoteDown {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("invalid vote action %q", cmd.Action))
		return
	}

	sessionID := h.Sessions.SessionID(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cast, err := h.Store.CastVote(ctx, id, sessionID, cmd.Action)
	if err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	report, err := h.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpapi.Error(w, h.Log, apperr.NotFound("report not found"))
			return
		}
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	msg := "Vote recorded"
	if !cast {
		msg = "Vote already recorded for this session"
	}
	httpapi.OK(w, msg, report)
}

// pathID parses a chi URL parameter as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid %s %q", name, raw)
	}
	return id, nil
}
