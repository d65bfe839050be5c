// Package notify delivers Web Push notifications to registered
// subscriptions.
//
// Every send is best-effort and fire-and-forget: Send spawns a detached
// delivery task and returns immediately, so a slow or failing push provider
// can never block or fail the dispatch operation that triggered it. A
// delivery response indicating the subscription is gone (404/410) is
// recovered locally by deleting the stale subscription.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	subscriptionstore "github.com/rashikacodes/pulstrix/internal/app/store/subscriptions"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.uber.org/zap"
)

// deliveryTimeout bounds one whole fan-out, lookup included.
const deliveryTimeout = 30 * time.Second

// Target selects who receives a notification: a specific user id, or every
// subscription registered under a role.
type Target struct {
	UserID string
	Role   string
}

// Payload is the JSON message pushed to the browser.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Notifier sends push notifications through the Web Push protocol.
type Notifier struct {
	subs       *subscriptionstore.Store
	vapidPub   string
	vapidPriv  string
	subscriber string // contact mailto for the push service
	log        *zap.Logger
}

// New builds a Notifier. Empty VAPID keys disable delivery; sends become
// logged no-ops so the rest of the system behaves identically in
// environments without push configured.
func New(subs *subscriptionstore.Store, vapidPublic, vapidPrivate, subscriber string, logger *zap.Logger) *Notifier {
	return &Notifier{
		subs:       subs,
		vapidPub:   vapidPublic,
		vapidPriv:  vapidPrivate,
		subscriber: subscriber,
		log:        logger,
	}
}

// Send dispatches the payload to the target's subscriptions in the
// background and returns immediately.
func (n *Notifier) Send(target Target, payload Payload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		n.Deliver(ctx, target, payload)
	}()
}

// Deliver performs one synchronous fan-out. Exposed separately so tests and
// shutdown paths can wait for completion; production callers use Send.
func (n *Notifier) Deliver(ctx context.Context, target Target, payload Payload) {
	subs, err := n.lookup(ctx, target)
	if err != nil {
		n.log.Warn("notification target lookup failed", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn("notification payload marshal failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		n.push(ctx, sub, body)
	}
}

func (n *Notifier) lookup(ctx context.Context, target Target) ([]models.Subscription, error) {
	switch {
	case target.UserID != "":
		return n.subs.FindByUser(ctx, target.UserID)
	case target.Role != "":
		return n.subs.FindByRole(ctx, target.Role)
	default:
		return nil, nil
	}
}

func (n *Notifier) push(ctx context.Context, sub models.Subscription, body []byte) {
	if n.vapidPub == "" || n.vapidPriv == "" {
		n.log.Debug("push disabled, skipping notification",
			zap.String("endpoint", sub.Endpoint))
		return
	}

	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      n.subscriber,
		VAPIDPublicKey:  n.vapidPub,
		VAPIDPrivateKey: n.vapidPriv,
		TTL:             60,
	})
	if err != nil {
		n.log.Warn("push delivery failed",
			zap.String("subscription_id", sub.ID.Hex()), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// The push service tells us the subscription no longer exists; drop it.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		n.log.Info("deleting stale push subscription",
			zap.String("subscription_id", sub.ID.Hex()),
			zap.Int("status", resp.StatusCode))
		if err := n.subs.Delete(ctx, sub.ID); err != nil {
			n.log.Warn("stale subscription cleanup failed", zap.Error(err))
		}
	}
}
