package match_test

import (
	"math"
	"testing"

	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"github.com/rashikacodes/pulstrix/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestDepartmentFor(t *testing.T) {
	cases := []struct {
		category string
		want     string
	}{
		{models.CategoryFire, match.DeptFire},
		{models.CategoryRoadAccident, match.DeptTraffic},
		{models.CategoryMedical, match.DeptHealth},
		{models.CategoryCrime, match.DeptPolice},
		{models.CategoryDisaster, match.DeptDisaster},
		{models.CategoryInfraCollapse, match.DeptWorks},
		{models.CategoryOther, match.DeptGeneral},
		{"unknown-category", match.DeptGeneral},
		{"", match.DeptGeneral},
	}
	for _, tc := range cases {
		if got := match.DepartmentFor(tc.category); got != tc.want {
			t.Errorf("DepartmentFor(%q) = %q; want %q", tc.category, got, tc.want)
		}
	}
}

func TestIsValidDepartment(t *testing.T) {
	for _, d := range match.Departments {
		if !match.IsValidDepartment(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}
	if match.IsValidDepartment("Space Force") {
		t.Error("expected unknown department to be invalid")
	}
}

func TestDistanceMeters(t *testing.T) {
	a := models.NewGeoPoint(26.8467, 80.9462) // Lucknow
	b := models.NewGeoPoint(28.6139, 77.2090) // Delhi

	d := match.DistanceMeters(a, b)
	// roughly 414 km apart
	if d < 400_000 || d > 430_000 {
		t.Errorf("DistanceMeters = %v; want ~414km", d)
	}

	if z := match.DistanceMeters(a, a); z != 0 {
		t.Errorf("distance to self = %v; want 0", z)
	}
}

func TestNearest_PicksClosest(t *testing.T) {
	loc := models.NewGeoPoint(10, 10)
	near := models.Responder{Location: models.NewGeoPoint(10.01, 10.01)}
	far := models.Responder{Location: models.NewGeoPoint(11, 11)}

	got := match.Nearest([]models.Responder{far, near}, loc)
	if math.Abs(got.Location.Lat()-10.01) > 1e-9 {
		t.Errorf("Nearest picked %v; want the closer responder", got.Location)
	}
}

func TestNearest_TieBreaksByID(t *testing.T) {
	loc := models.NewGeoPoint(0, 0)
	a := models.Responder{Location: models.NewGeoPoint(0, 1)}
	b := models.Responder{Location: models.NewGeoPoint(0, 1)}
	// Same distance; lower hex ObjectID must win regardless of input order.
	a.ID = primitive.NewObjectID()
	b.ID = primitive.NewObjectID()

	got1 := match.Nearest([]models.Responder{a, b}, loc)
	got2 := match.Nearest([]models.Responder{b, a}, loc)
	if got1.ID != got2.ID {
		t.Fatalf("tie-break not deterministic: %v vs %v", got1.ID, got2.ID)
	}
	want := a.ID
	if b.ID.Hex() < a.ID.Hex() {
		want = b.ID
	}
	if got1.ID != want {
		t.Errorf("Nearest tie-break = %v; want lower hex %v", got1.ID, want)
	}
}

func TestEngineMatch_AttachesNearestOfDepartment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()

	fx := testutil.NewFixtures(t, db)
	fx.EnsureIndexes(ctx)

	nearFire := fx.CreateResponder(ctx, "near-fire", match.DeptFire, 26.85, 80.95)
	fx.CreateResponder(ctx, "far-fire", match.DeptFire, 28.61, 77.20)
	fx.CreateResponder(ctx, "near-police", match.DeptPolice, 26.85, 80.95)

	report := fx.CreateReport(ctx, models.CategoryFire, "warehouse fire", 26.846, 80.946)

	engine := match.NewEngine(responderstore.New(db), reportstore.New(db), zap.NewNop())
	chosen, err := engine.Match(ctx, &report)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if chosen == nil || chosen.ID != nearFire.ID {
		t.Fatalf("Match chose %v; want nearest fire responder %v", chosen, nearFire.ID)
	}

	stored, err := reportstore.New(db).GetByID(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != models.StatusAssigning {
		t.Errorf("status = %q; want assigning", stored.Status)
	}
	owner, ok := stored.CurrentResponder()
	if !ok || owner != nearFire.ID {
		t.Errorf("owner = %v,%v; want %v", owner, ok, nearFire.ID)
	}
}

func TestEngineMatch_NoResponderLeavesUnverified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()

	fx := testutil.NewFixtures(t, db)
	fx.EnsureIndexes(ctx)

	report := fx.CreateReport(ctx, models.CategoryMedical, "injured cyclist", 26.85, 80.95)

	engine := match.NewEngine(responderstore.New(db), reportstore.New(db), zap.NewNop())
	chosen, err := engine.Match(ctx, &report)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if chosen != nil {
		t.Fatalf("Match = %v; want nil when no responder exists", chosen)
	}

	stored, err := reportstore.New(db).GetByID(ctx, report.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != models.StatusUnverified {
		t.Errorf("status = %q; want unverified", stored.Status)
	}
}
