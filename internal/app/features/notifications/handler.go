// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	subscriptionstore "github.com/rashikacodes/pulstrix/internal/app/store/subscriptions"
	"github.com/rashikacodes/pulstrix/internal/app/system/apperr"
	"github.com/rashikacodes/pulstrix/internal/app/system/httpapi"
	"github.com/rashikacodes/pulstrix/internal/app/system/timeouts"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.uber.org/zap"
)

// Handler owns push-subscription registration.
type Handler struct {
	Subs *subscriptionstore.Store
	Log  *zap.Logger
}

// NewHandler constructs a notifications Handler.
func NewHandler(subs *subscriptionstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Subs: subs, Log: logger}
}

// subscribeCommand mirrors the browser PushSubscription JSON plus the
// identity the subscription should be addressed by.
type subscribeCommand struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role,omitempty"`
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe handles POST /api/notifications/subscriptions. Subscriptions are
// keyed on the push endpoint, so re-subscribing the same browser replaces
// rather than duplicates.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var cmd subscribeCommand
	if err := httpapi.Decode(r, &cmd); err != nil {
		httpapi.Error(w, h.Log, err)
		return
	}
	if cmd.UserID == "" {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("user_id is required"))
		return
	}
	if cmd.Endpoint == "" || cmd.Keys.P256dh == "" || cmd.Keys.Auth == "" {
		httpapi.Error(w, h.Log, apperr.InvalidArgument("endpoint and keys are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Subs.Upsert(ctx, models.Subscription{
		UserID:   cmd.UserID,
		Role:     cmd.Role,
		Endpoint: cmd.Endpoint,
		Keys: models.SubscriptionKeys{
			P256dh: cmd.Keys.P256dh,
			Auth:   cmd.Keys.Auth,
		},
	})
	if err != nil {
		httpapi.Error(w, h.Log, apperr.Internal(err))
		return
	}

	httpapi.Created(w, "Subscription registered", nil)
}
