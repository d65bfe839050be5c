// Package responderstore persists responder organizations and serves the
// geospatial proximity queries behind matching and forwarding.
//
// The responders collection carries a 2dsphere index on location (see
// system/indexes), so $near returns candidates nearest-first.
package responderstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("responders")}
}

// ErrDuplicateEmail is returned when creating a responder whose email is taken.
var ErrDuplicateEmail = errors.New("a responder with this email already exists")

// GetByID loads a responder by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Responder, error) {
	var r models.Responder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new responder.
func (s *Store) Create(ctx context.Context, r models.Responder) (models.Responder, error) {
	r.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Responder{}, ErrDuplicateEmail
		}
		return models.Responder{}, err
	}
	return r, nil
}

// AddEmployee appends an employee to the responder's roster.
func (s *Store) AddEmployee(ctx context.Context, responderID, employeeID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": responderID},
		bson.M{
			"$addToSet": bson.M{"employee_ids": employeeID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// NearestByDepartment returns up to limit responders of the given department
// ordered by proximity to loc, nearest first.
func (s *Store) NearestByDepartment(ctx context.Context, department string, loc models.GeoPoint, limit int64) ([]models.Responder, error) {
	filter := bson.M{
		"department": department,
		"location": bson.M{"$near": bson.M{
			"$geometry": bson.M{"type": "Point", "coordinates": loc.Coordinates},
		}},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Responder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NearbyExcluding returns up to limit responders of the given department
// ordered by proximity to loc, skipping the excluded responder. This is the
// candidate query of the forwarding protocol.
func (s *Store) NearbyExcluding(ctx context.Context, department string, loc models.GeoPoint, exclude primitive.ObjectID, limit int64) ([]models.Responder, error) {
	filter := bson.M{
		"department": department,
		"_id":        bson.M{"$ne": exclude},
		"location": bson.M{"$near": bson.M{
			"$geometry": bson.M{"type": "Point", "coordinates": loc.Coordinates},
		}},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Responder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
