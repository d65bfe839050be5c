// Package employeestore persists employees and owns the atomic claim/release
// operations the assignment protocol depends on.
//
// An employee's status and report_id_assigned always change together in a
// single conditional update, so the pair can never disagree: busy iff
// mid-task.
package employeestore

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

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("employee email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("employees")}
}

// GetByID loads an employee by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	var e models.Employee
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new idle employee.
func (s *Store) Create(ctx context.Context, e models.Employee) (models.Employee, error) {
	e.ID = primitive.NewObjectID()
	if e.Status == "" {
		e.Status = models.EmployeeIdle
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Employee{}, ErrDuplicateEmail
		}
		return models.Employee{}, err
	}
	return e, nil
}

// ListByResponder returns the employees on a responder's roster, optionally
// filtered by status ("" means all), in stable _id order.
func (s *Store) ListByResponder(ctx context.Context, responderID primitive.ObjectID, status string) ([]models.Employee, error) {
	filter := bson.M{"responder_id": responderID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Employee
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Claim atomically moves a specific idle, unassigned employee to busy with
// the given report. Returns the claimed employee, or mongo.ErrNoDocuments
// when the employee is absent, already busy, or already carrying a report.
func (s *Store) Claim(ctx context.Context, employeeID, reportID primitive.ObjectID) (*models.Employee, error) {
	filter := bson.M{
		"_id":                employeeID,
		"status":             models.EmployeeIdle,
		"report_id_assigned": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"status":             models.EmployeeBusy,
		"report_id_assigned": reportID,
		"updated_at":         time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Employee
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ClaimNext atomically claims the next idle, unassigned employee of the
// given responder and department, skipping the excluded ids (employees that
// already appear on the report's trail). Candidates are taken in _id order
// so reject/pass cycling visits each employee at most once and selection is
// deterministic. Returns mongo.ErrNoDocuments when nobody is available.
func (s *Store) ClaimNext(ctx context.Context, responderID primitive.ObjectID, department string, reportID primitive.ObjectID, exclude []primitive.ObjectID) (*models.Employee, error) {
	filter := bson.M{
		"responder_id":       responderID,
		"department":         department,
		"status":             models.EmployeeIdle,
		"report_id_assigned": bson.M{"$exists": false},
	}
	if len(exclude) > 0 {
		filter["_id"] = bson.M{"$nin": exclude}
	}
	update := bson.M{"$set": bson.M{
		"status":             models.EmployeeBusy,
		"report_id_assigned": reportID,
		"updated_at":         time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetReturnDocument(options.After)

	var e models.Employee
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Release returns an employee to idle, but only if it is still holding the
// given report. A release that lost a race with another transition is a
// no-op, reported via the bool.
func (s *Store) Release(ctx context.Context, employeeID, reportID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": employeeID, "report_id_assigned": reportID},
		bson.M{
			"$set":   bson.M{"status": models.EmployeeIdle, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"report_id_assigned": ""},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ReleaseMany returns every listed employee to idle and clears their
// assignments. Used when a report resolves: everyone who ever touched it is
// freed.
func (s *Store) ReleaseMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{
			"$set":   bson.M{"status": models.EmployeeIdle, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"report_id_assigned": ""},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ClearDangling drops an assignment whose report no longer exists, returning
// the employee to idle. Recovery path for external retention deleting
// reports out from under an assignment.
func (s *Store) ClearDangling(ctx context.Context, employeeID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": employeeID},
		bson.M{
			"$set":   bson.M{"status": models.EmployeeIdle, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"report_id_assigned": ""},
		})
	return err
}
