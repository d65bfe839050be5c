package forwarding

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	employeestore "github.com/rashikacodes/pulstrix/internal/app/store/employees"
	reportstore "github.com/rashikacodes/pulstrix/internal/app/store/reports"
	responderstore "github.com/rashikacodes/pulstrix/internal/app/store/responders"
	subscriptionstore "github.com/rashikacodes/pulstrix/internal/app/store/subscriptions"
	"github.com/rashikacodes/pulstrix/internal/app/system/dispatch"
	"github.com/rashikacodes/pulstrix/internal/app/system/match"
	"github.com/rashikacodes/pulstrix/internal/app/system/notify"
	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"github.com/rashikacodes/pulstrix/internal/testutil"
)

func newHandler(t *testing.T) (*Handler, *testutil.Fixtures, *reportstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	fx.EnsureIndexes(testutil.TestContext())

	log := zap.NewNop()
	reports := reportstore.New(db)
	engine := dispatch.NewEngine(
		reports,
		responderstore.New(db),
		employeestore.New(db),
		nil,
		notify.New(subscriptionstore.New(db), "", "", "", log),
		log)
	return NewHandler(engine, log), fx, reports
}

func TestForward(t *testing.T) {
	h, fx, reports := newHandler(t)
	ctx := testutil.TestContext()

	from := fx.CreateResponder(ctx, "origin", match.DeptFire, 26.85, 80.95)
	target := fx.CreateResponder(ctx, "target", match.DeptFire, 26.86, 80.96)
	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	if ok, err := reports.AttachResponder(ctx, rep.ID, from.ID, models.StatusUnverified); err != nil || !ok {
		t.Fatalf("attach responder = (%v, %v)", ok, err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, "POST", "/api/reports/"+rep.ID.Hex()+"/forward",
			map[string]any{"responder_id": from.ID.Hex()}),
		"reportID", rep.ID.Hex())
	rec := testutil.NewRecorder()
	h.Forward(rec.ResponseRecorder, req)

	rec.AssertStatus(t, 200)
	var got models.Responder
	if err := json.Unmarshal(rec.DecodeEnvelope(t).Data, &got); err != nil {
		t.Fatalf("decode target responder: %v", err)
	}
	if got.ID != target.ID {
		t.Fatalf("forwarded to %v, want %v", got.ID, target.ID)
	}

	reloaded, _ := reports.GetByID(ctx, rep.ID)
	owner, ok := reloaded.CurrentResponder()
	if !ok || owner != target.ID {
		t.Fatalf("owner = %v, want %v", owner, target.ID)
	}
}

func TestForwardNoOtherResponder(t *testing.T) {
	h, fx, reports := newHandler(t)
	ctx := testutil.TestContext()

	from := fx.CreateResponder(ctx, "alone", match.DeptFire, 26.85, 80.95)
	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	if ok, err := reports.AttachResponder(ctx, rep.ID, from.ID, models.StatusUnverified); err != nil || !ok {
		t.Fatalf("attach responder = (%v, %v)", ok, err)
	}

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, "POST", "/api/reports/"+rep.ID.Hex()+"/forward",
			map[string]any{"responder_id": from.ID.Hex()}),
		"reportID", rep.ID.Hex())
	rec := testutil.NewRecorder()
	h.Forward(rec.ResponseRecorder, req)
	rec.AssertStatus(t, 404)
}

func TestForwardBadIDs(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, "POST", "/api/reports/xyz/forward",
			map[string]any{"responder_id": primitive.NewObjectID().Hex()}),
		"reportID", "xyz")
	rec := testutil.NewRecorder()
	h.Forward(rec.ResponseRecorder, req)
	rec.AssertStatus(t, 400)

	id := primitive.NewObjectID().Hex()
	req = testutil.WithChiURLParam(
		testutil.NewJSONRequest(t, "POST", "/api/reports/"+id+"/forward",
			map[string]any{"responder_id": "not-hex"}),
		"reportID", id)
	rec = testutil.NewRecorder()
	h.Forward(rec.ResponseRecorder, req)
	rec.AssertStatus(t, 400)
}
