// Package subscriptionstore persists Web Push subscriptions.
package subscriptionstore

import (
	"context"
	"time"

	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("subscriptions")}
}

// Upsert registers a subscription, keyed by its unique endpoint. Re-registering
// an existing endpoint refreshes the target and keys instead of failing.
func (s *Store) Upsert(ctx context.Context, sub models.Subscription) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set": bson.M{
				"user_id":    sub.UserID,
				"role":       sub.Role,
				"keys":       sub.Keys,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true))
	return err
}

// FindByUser returns the subscriptions registered for a specific user id.
func (s *Store) FindByUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// FindByRole returns the subscriptions registered for a role.
func (s *Store) FindByRole(ctx context.Context, role string) ([]models.Subscription, error) {
	return s.find(ctx, bson.M{"role": role})
}

// Delete removes a subscription, typically after a push delivery reported it
// gone (HTTP 404/410).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Subscription, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Subscription
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
