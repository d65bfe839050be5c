// Package reportstore persists incident reports.
//
// All state-machine transitions are expressed as conditional updates so that
// concurrent callers race safely at the document level: a transition whose
// precondition no longer holds simply matches zero documents, and the caller
// decides whether that is a Conflict or a benign no-op.
package reportstore

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
	return &Store{c: db.Collection("reports")}
}

// Create inserts a new report with defaults applied. The report starts
// unverified; the verification pipeline owns every later transition.
func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	r.ID = primitive.NewObjectID()
	if r.Severity == "" {
		r.Severity = models.DefaultSeverity
	}
	r.Status = models.StatusUnverified

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// GetByID loads a report by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecent returns up to limit reports, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus unconditionally sets the report status (operator override path).
// Returns the matched count so callers can signal NotFound on 0.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// CASStatus transitions status from→to only if the report is currently in
// from. Returns true when the transition happened.
func (s *Store) CASStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetSeverity overwrites severity on any non-terminal report.
// Returns the matched count (0 means absent or already resolved).
func (s *Store) SetSeverity(ctx context.Context, id primitive.ObjectID, severity string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.StatusResolved}},
		bson.M{"$set": bson.M{"severity": severity, "updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// AttachResponder appends a responder to the ownership trail and moves the
// report to assigning, but only while the report still has the expected
// status. Used by the matching engine (expect unverified) so a concurrent
// operator override cannot be clobbered.
func (s *Store) AttachResponder(ctx context.Context, id, responderID primitive.ObjectID, expectStatus string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": expectStatus},
		bson.M{
			"$push": bson.M{"responder_ids": responderID},
			"$set":  bson.M{"status": models.StatusAssigning, "updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// AppendAssignment records that an employee is now working the report:
// the employee joins the historical trail and the report (re-)enters
// assigning. Only reports in assigning or verified can take an assignment;
// in particular a resolved report stays resolved, so a straggling reject or
// forward cannot reopen it. The employee must not already be the last trail
// element, and the owning responder is appended as current owner only when
// it is not already the last element of its trail, keeping both trails
// append-only without consecutive duplicates.
func (s *Store) AppendAssignment(ctx context.Context, id, employeeID, responderID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": bson.M{"$in": bson.A{models.StatusAssigning, models.StatusVerified}},
			"$expr":  bson.M{"$ne": bson.A{bson.M{"$arrayElemAt": bson.A{"$employee_ids", -1}}, employeeID}},
		},
		bson.M{
			"$push": bson.M{"employee_ids": employeeID},
			"$set":  bson.M{"status": models.StatusAssigning, "updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, nil
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{
			"_id":   id,
			"$expr": bson.M{"$ne": bson.A{bson.M{"$arrayElemAt": bson.A{"$responder_ids", -1}}, responderID}},
		},
		bson.M{"$push": bson.M{"responder_ids": responderID}})
	return true, err
}

// AcceptAssignment moves an assigning report to assigned, but only for the
// employee currently responsible (the last element of the employee trail).
// Exactly one of two racing accepts can succeed; the loser sees false.
func (s *Store) AcceptAssignment(ctx context.Context, id, employeeID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":    id,
			"status": models.StatusAssigning,
			"$expr":  bson.M{"$eq": bson.A{bson.M{"$arrayElemAt": bson.A{"$employee_ids", -1}}, employeeID}},
		},
		bson.M{"$set": bson.M{"status": models.StatusAssigned, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ForwardTo appends a new owning responder and (re-)enters assigning, but
// only while the report still has the status the forwarder observed. A
// concurrent transition makes the forward lose cleanly (false, nil).
func (s *Store) ForwardTo(ctx context.Context, id, responderID primitive.ObjectID, observedStatus string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": observedStatus},
		bson.M{
			"$push": bson.M{"responder_ids": responderID},
			"$set":  bson.M{"status": models.StatusAssigning, "updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ResolveAsDuplicate force-closes a report detected as a duplicate, leaving
// an explanatory note. The report never enters dispatch.
func (s *Store) ResolveAsDuplicate(ctx context.Context, id primitive.ObjectID, note string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":          models.StatusResolved,
			"responder_notes": note,
			"updated_at":      time.Now().UTC(),
		}})
	return err
}

// IncrementDuplicates bumps the duplicate counter on the original report.
func (s *Store) IncrementDuplicates(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"duplicates": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	return err
}

// CastVote records one vote for the given session. The voted_by filter makes
// the operation idempotent per (session, report) even under concurrent
// retries: only the first update matches.
//
// Returns false when the session has already voted. The caller is expected
// to have checked the report exists.
func (s *Store) CastVote(ctx context.Context, id primitive.ObjectID, sessionID, action string) (bool, error) {
	field := "upvotes"
	if action == models.VoteDown {
		field = "downvotes"
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "voted_by": bson.M{"$ne": sessionID}},
		bson.M{
			"$inc":      bson.M{field: 1},
			"$addToSet": bson.M{"voted_by": sessionID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MostRecentNear finds the newest non-resolved report other than excludeID
// created at or after since within radiusMeters of loc. Used by the
// verification pipeline to locate the original of a text duplicate.
// Returns nil without error when no candidate exists.
func (s *Store) MostRecentNear(ctx context.Context, loc models.GeoPoint, radiusMeters float64, since time.Time, excludeID primitive.ObjectID) (*models.Report, error) {
	const earthRadiusMeters = 6378137.0

	filter := bson.M{
		"_id":        bson.M{"$ne": excludeID},
		"status":     bson.M{"$ne": models.StatusResolved},
		"created_at": bson.M{"$gte": since},
		"location": bson.M{"$geoWithin": bson.M{
			"$centerSphere": bson.A{loc.Coordinates, radiusMeters / earthRadiusMeters},
		}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var r models.Report
	err := s.c.FindOne(ctx, filter, opts).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecentWithImages returns reports created at or after since that carry an
// image, excluding excludeID. These are the candidate set for image
// deduplication.
func (s *Store) RecentWithImages(ctx context.Context, since time.Time, excludeID primitive.ObjectID) ([]models.Report, error) {
	filter := bson.M{
		"_id":        bson.M{"$ne": excludeID},
		"image":      bson.M{"$exists": true, "$ne": ""},
		"created_at": bson.M{"$gte": since},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
