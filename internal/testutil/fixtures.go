package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rashikacodes/pulstrix/internal/app/system/indexes"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// EnsureIndexes creates the production index set. Tests that exercise $near
// or $geoWithin queries need the 2dsphere indexes in place.
func (f *Fixtures) EnsureIndexes(ctx context.Context) {
	f.t.Helper()
	if err := indexes.EnsureAll(ctx, f.db); err != nil {
		f.t.Fatalf("EnsureAll indexes failed: %v", err)
	}
}

// CreateReport inserts an unverified low-severity report at the given
// coordinates. Returns the report with its generated ID.
func (f *Fixtures) CreateReport(ctx context.Context, category, description string, lat, lng float64) models.Report {
	f.t.Helper()
	return f.insertReport(ctx, models.Report{
		SessionID:   primitive.NewObjectID().Hex(),
		Category:    category,
		Description: description,
		Location:    models.NewGeoPoint(lat, lng),
		Severity:    models.SeverityLow,
		Status:      models.StatusUnverified,
	})
}

// CreateReportWithStatus is CreateReport with an explicit status.
func (f *Fixtures) CreateReportWithStatus(ctx context.Context, category, description string, lat, lng float64, status string) models.Report {
	f.t.Helper()
	return f.insertReport(ctx, models.Report{
		SessionID:   primitive.NewObjectID().Hex(),
		Category:    category,
		Description: description,
		Location:    models.NewGeoPoint(lat, lng),
		Severity:    models.SeverityLow,
		Status:      status,
	})
}

func (f *Fixtures) insertReport(ctx context.Context, r models.Report) models.Report {
	f.t.Helper()
	r.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := f.db.Collection("reports").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("insert report fixture: %v", err)
	}
	return r
}

// CreateResponder inserts a responder of the given department at the given
// coordinates.
func (f *Fixtures) CreateResponder(ctx context.Context, name, department string, lat, lng float64) models.Responder {
	f.t.Helper()
	now := time.Now().UTC()
	r := models.Responder{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Email:      name + "@responders.test",
		Department: department,
		Location:   models.NewGeoPoint(lat, lng),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("responders").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("insert responder fixture: %v", err)
	}
	return r
}

// CreateEmployee inserts an employee on the responder's roster with the
// given status (idle when empty).
func (f *Fixtures) CreateEmployee(ctx context.Context, name string, responderID primitive.ObjectID, department, status string) models.Employee {
	f.t.Helper()
	if status == "" {
		status = models.EmployeeIdle
	}
	now := time.Now().UTC()
	e := models.Employee{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Email:       name + "@employees.test",
		ResponderID: responderID,
		Department:  department,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("employees").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("insert employee fixture: %v", err)
	}
	return e
}

// CreateSubscription inserts a push subscription for the given user.
func (f *Fixtures) CreateSubscription(ctx context.Context, userID, role, endpoint string) models.Subscription {
	f.t.Helper()
	s := models.Subscription{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Role:     role,
		Endpoint: endpoint,
		Keys: models.SubscriptionKeys{
			P256dh: "test-p256dh",
			Auth:   "test-auth",
		},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("subscriptions").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("insert subscription fixture: %v", err)
	}
	return s
}
