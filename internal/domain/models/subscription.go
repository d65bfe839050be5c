// internal/domain/models/subscription.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscription is a Web Push subscription registered by a browser.
//
// A subscription targets either a specific user id or a role (e.g. every
// responder dashboard). Endpoint is unique; a push delivery failure that
// indicates the subscription is gone causes the record to be deleted.
type Subscription struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Role     string             `bson:"role,omitempty" json:"role,omitempty"`
	Endpoint string             `bson:"endpoint" json:"endpoint"`
	Keys     SubscriptionKeys   `bson:"keys" json:"keys"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SubscriptionKeys holds the client keys needed to encrypt push payloads.
type SubscriptionKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}
