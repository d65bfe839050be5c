package reportstore

import (
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rashikacodes/pulstrix/internal/domain/models"
	"github.com/rashikacodes/pulstrix/internal/testutil"
)

func TestCreateAppliesDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()
	store := New(db)

	created, err := store.Create(ctx, models.Report{
		SessionID:   "sess-1",
		Category:    models.CategoryFire,
		Description: "smoke from rooftop",
		Location:    models.NewGeoPoint(26.85, 80.95),
		Status:      models.StatusAssigned, // must be overridden
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("Create did not assign an id")
	}
	if created.Status != models.StatusUnverified {
		t.Fatalf("status = %q, want unverified", created.Status)
	}
	if created.Severity != models.DefaultSeverity {
		t.Fatalf("severity = %q, want default %q", created.Severity, models.DefaultSeverity)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != "smoke from rooftop" {
		t.Fatalf("round trip description = %q", got.Description)
	}
}

func TestCASStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)

	ok, err := store.CASStatus(ctx, rep.ID, models.StatusUnverified, models.StatusVerified)
	if err != nil || !ok {
		t.Fatalf("CAS unverified->verified = (%v, %v), want (true, nil)", ok, err)
	}

	// Second attempt from the stale precondition must lose.
	ok, err = store.CASStatus(ctx, rep.ID, models.StatusUnverified, models.StatusAssigning)
	if err != nil {
		t.Fatalf("CAS: %v", err)
	}
	if ok {
		t.Fatal("CAS with stale precondition reported success")
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if got.Status != models.StatusVerified {
		t.Fatalf("status = %q, want verified", got.Status)
	}
}

func TestSetSeveritySkipsResolved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	open := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	closed := fx.CreateReportWithStatus(ctx, models.CategoryFire, "fire", 26.85, 80.95, models.StatusResolved)

	if n, err := store.SetSeverity(ctx, open.ID, models.SeverityHigh); err != nil || n != 1 {
		t.Fatalf("SetSeverity open = (%d, %v), want (1, nil)", n, err)
	}
	if n, err := store.SetSeverity(ctx, closed.ID, models.SeverityHigh); err != nil || n != 0 {
		t.Fatalf("SetSeverity resolved = (%d, %v), want (0, nil)", n, err)
	}
}

func TestAttachResponderRequiresExpectedStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	responderID := primitive.NewObjectID()

	ok, err := store.AttachResponder(ctx, rep.ID, responderID, models.StatusUnverified)
	if err != nil || !ok {
		t.Fatalf("AttachResponder = (%v, %v), want (true, nil)", ok, err)
	}

	// The first attach moved the report to assigning; a second attach
	// expecting unverified must be a no-op.
	ok, err = store.AttachResponder(ctx, rep.ID, primitive.NewObjectID(), models.StatusUnverified)
	if err != nil {
		t.Fatalf("AttachResponder: %v", err)
	}
	if ok {
		t.Fatal("second attach with stale status expectation succeeded")
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if got.Status != models.StatusAssigning {
		t.Fatalf("status = %q, want assigning", got.Status)
	}
	owner, okOwner := got.CurrentResponder()
	if !okOwner || owner != responderID {
		t.Fatalf("owner = %v, want %v", owner, responderID)
	}
}

func TestAppendAssignmentTrailSemantics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	responderID := primitive.NewObjectID()
	empA := primitive.NewObjectID()
	empB := primitive.NewObjectID()

	if _, err := store.AttachResponder(ctx, rep.ID, responderID, models.StatusUnverified); err != nil {
		t.Fatalf("AttachResponder: %v", err)
	}

	if ok, err := store.AppendAssignment(ctx, rep.ID, empA, responderID); err != nil || !ok {
		t.Fatalf("AppendAssignment A = (%v, %v)", ok, err)
	}
	if ok, err := store.AppendAssignment(ctx, rep.ID, empB, responderID); err != nil || !ok {
		t.Fatalf("AppendAssignment B = (%v, %v)", ok, err)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if len(got.EmployeeIDs) != 2 || got.EmployeeIDs[0] != empA || got.EmployeeIDs[1] != empB {
		t.Fatalf("employee trail = %v, want [A B]", got.EmployeeIDs)
	}
	// The responder owns both assignments; the trail must not grow a
	// consecutive duplicate.
	if len(got.ResponderIDs) != 1 {
		t.Fatalf("responder trail = %v, want single entry", got.ResponderIDs)
	}

	if ok, err := store.AppendAssignment(ctx, primitive.NewObjectID(), empA, responderID); err != nil || ok {
		t.Fatalf("AppendAssignment on missing report = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestAppendAssignmentStatusGate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	responderID := primitive.NewObjectID()
	emp := primitive.NewObjectID()

	// A resolved report stays resolved: a straggling reject or forward must
	// not pull it back into dispatch.
	resolved := fx.CreateReportWithStatus(ctx, models.CategoryFire, "fire", 26.85, 80.95, models.StatusResolved)
	if ok, err := store.AppendAssignment(ctx, resolved.ID, emp, responderID); err != nil || ok {
		t.Fatalf("AppendAssignment on resolved = (%v, %v), want (false, nil)", ok, err)
	}
	got, _ := store.GetByID(ctx, resolved.ID)
	if got.Status != models.StatusResolved || len(got.EmployeeIDs) != 0 {
		t.Fatalf("resolved report mutated: %+v", got)
	}

	// Not yet verified means not dispatchable either.
	unverified := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	if ok, err := store.AppendAssignment(ctx, unverified.ID, emp, responderID); err != nil || ok {
		t.Fatalf("AppendAssignment on unverified = (%v, %v), want (false, nil)", ok, err)
	}

	// A verified report re-enters assigning; this is the path after a
	// reject/pass exhausted the roster.
	verified := fx.CreateReportWithStatus(ctx, models.CategoryFire, "fire", 26.85, 80.95, models.StatusVerified)
	if ok, err := store.AppendAssignment(ctx, verified.ID, emp, responderID); err != nil || !ok {
		t.Fatalf("AppendAssignment on verified = (%v, %v), want (true, nil)", ok, err)
	}
	got, _ = store.GetByID(ctx, verified.ID)
	if got.Status != models.StatusAssigning {
		t.Fatalf("status = %q, want assigning", got.Status)
	}
}

func TestAppendAssignmentRejectsConsecutiveEmployee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReportWithStatus(ctx, models.CategoryFire, "fire", 26.85, 80.95, models.StatusAssigning)
	responderID := primitive.NewObjectID()
	empA := primitive.NewObjectID()
	empB := primitive.NewObjectID()

	if ok, err := store.AppendAssignment(ctx, rep.ID, empA, responderID); err != nil || !ok {
		t.Fatalf("AppendAssignment A = (%v, %v)", ok, err)
	}
	// The same employee cannot be appended while already trail-last.
	if ok, err := store.AppendAssignment(ctx, rep.ID, empA, responderID); err != nil || ok {
		t.Fatalf("consecutive AppendAssignment A = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := store.AppendAssignment(ctx, rep.ID, empB, responderID); err != nil || !ok {
		t.Fatalf("AppendAssignment B = (%v, %v)", ok, err)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if len(got.EmployeeIDs) != 2 || got.EmployeeIDs[0] != empA || got.EmployeeIDs[1] != empB {
		t.Fatalf("employee trail = %v, want [A B]", got.EmployeeIDs)
	}
}

func TestAcceptAssignmentOnlyCurrentEmployee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	responderID := primitive.NewObjectID()
	empA := primitive.NewObjectID()
	empB := primitive.NewObjectID()

	store.AttachResponder(ctx, rep.ID, responderID, models.StatusUnverified)
	store.AppendAssignment(ctx, rep.ID, empA, responderID)
	store.AppendAssignment(ctx, rep.ID, empB, responderID)

	// empA was superseded by empB; its accept must lose.
	if ok, err := store.AcceptAssignment(ctx, rep.ID, empA); err != nil || ok {
		t.Fatalf("stale accept = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := store.AcceptAssignment(ctx, rep.ID, empB); err != nil || !ok {
		t.Fatalf("current accept = (%v, %v), want (true, nil)", ok, err)
	}
	// The report left assigning, so a replayed accept is a no-op.
	if ok, err := store.AcceptAssignment(ctx, rep.ID, empB); err != nil || ok {
		t.Fatalf("replayed accept = (%v, %v), want (false, nil)", ok, err)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if got.Status != models.StatusAssigned {
		t.Fatalf("status = %q, want assigned", got.Status)
	}
}

func TestForwardToLosesOnConcurrentTransition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReportWithStatus(ctx, models.CategoryFire, "fire", 26.85, 80.95, models.StatusAssigning)
	target := primitive.NewObjectID()

	if ok, err := store.ForwardTo(ctx, rep.ID, target, models.StatusAssigning); err != nil || !ok {
		t.Fatalf("ForwardTo = (%v, %v), want (true, nil)", ok, err)
	}

	// A forwarder that observed verified while the report is assigning
	// must lose cleanly.
	if ok, err := store.ForwardTo(ctx, rep.ID, primitive.NewObjectID(), models.StatusVerified); err != nil || ok {
		t.Fatalf("stale ForwardTo = (%v, %v), want (false, nil)", ok, err)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	owner, ok := got.CurrentResponder()
	if !ok || owner != target {
		t.Fatalf("owner = %v, want %v", owner, target)
	}
}

func TestCastVoteIdempotentPerSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)

	if ok, err := store.CastVote(ctx, rep.ID, "sess-a", models.VoteUp); err != nil || !ok {
		t.Fatalf("first vote = (%v, %v), want (true, nil)", ok, err)
	}
	// Replays from the same session never double-count, even with the
	// opposite action.
	if ok, err := store.CastVote(ctx, rep.ID, "sess-a", models.VoteUp); err != nil || ok {
		t.Fatalf("replayed vote = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := store.CastVote(ctx, rep.ID, "sess-a", models.VoteDown); err != nil || ok {
		t.Fatalf("opposite vote same session = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := store.CastVote(ctx, rep.ID, "sess-b", models.VoteDown); err != nil || !ok {
		t.Fatalf("second session vote = (%v, %v), want (true, nil)", ok, err)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if got.Upvotes != 1 || got.Downvotes != 1 {
		t.Fatalf("votes = %d/%d, want 1/1", got.Upvotes, got.Downvotes)
	}
	if !got.HasVoted("sess-a") || !got.HasVoted("sess-b") || got.HasVoted("sess-c") {
		t.Fatalf("voted_by = %v", got.VotedBy)
	}
}

func TestCastVoteConcurrentRetriesCountOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	rep := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)

	const retries = 8
	var wg sync.WaitGroup
	results := make([]bool, retries)
	errs := make([]error, retries)
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.CastVote(ctx, rep.ID, "sess-racer", models.VoteUp)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < retries; i++ {
		if errs[i] != nil {
			t.Fatalf("CastVote: %v", errs[i])
		}
		if results[i] {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("concurrent vote wins = %d, want exactly 1", wins)
	}

	got, _ := store.GetByID(ctx, rep.ID)
	if got.Upvotes != 1 {
		t.Fatalf("upvotes = %d, want 1", got.Upvotes)
	}
	if !got.HasVoted("sess-racer") {
		t.Fatalf("voted_by = %v", got.VotedBy)
	}
}

func TestResolveAsDuplicateAndIncrement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	original := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)
	dup := fx.CreateReport(ctx, models.CategoryFire, "fire again", 26.85, 80.95)

	if err := store.ResolveAsDuplicate(ctx, dup.ID, "Duplicate of report "+original.ID.Hex()); err != nil {
		t.Fatalf("ResolveAsDuplicate: %v", err)
	}
	if err := store.IncrementDuplicates(ctx, original.ID); err != nil {
		t.Fatalf("IncrementDuplicates: %v", err)
	}

	gotDup, _ := store.GetByID(ctx, dup.ID)
	if gotDup.Status != models.StatusResolved || gotDup.ResponderNotes == "" {
		t.Fatalf("duplicate not closed with note: %+v", gotDup)
	}
	gotOrig, _ := store.GetByID(ctx, original.ID)
	if gotOrig.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", gotOrig.Duplicates)
	}
}

func TestMostRecentNear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	fx.EnsureIndexes(ctx)
	store := New(db)

	probe := fx.CreateReport(ctx, models.CategoryFire, "probe", 26.85, 80.95)
	inRange := fx.CreateReport(ctx, models.CategoryFire, "nearby", 26.851, 80.951)
	fx.CreateReport(ctx, models.CategoryFire, "far away", 28.61, 77.21)
	fx.CreateReportWithStatus(ctx, models.CategoryFire, "closed nearby", 26.85, 80.95, models.StatusResolved)

	since := time.Now().UTC().Add(-time.Hour)
	got, err := store.MostRecentNear(ctx, probe.Location, 2000, since, probe.ID)
	if err != nil {
		t.Fatalf("MostRecentNear: %v", err)
	}
	if got == nil || got.ID != inRange.ID {
		t.Fatalf("MostRecentNear = %+v, want report %v", got, inRange.ID)
	}

	// A window entirely in the future matches nothing.
	got, err = store.MostRecentNear(ctx, probe.Location, 2000, time.Now().UTC().Add(time.Hour), probe.ID)
	if err != nil {
		t.Fatalf("MostRecentNear future window: %v", err)
	}
	if got != nil {
		t.Fatalf("future window returned %+v", got)
	}
}

func TestRecentWithImages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx := testutil.TestContext()
	store := New(db)

	withImage, err := store.Create(ctx, models.Report{
		SessionID:   "s1",
		Category:    models.CategoryFire,
		Description: "fire",
		Image:       "https://img.test/a.jpg",
		Location:    models.NewGeoPoint(26.85, 80.95),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	noImage := fx.CreateReport(ctx, models.CategoryFire, "fire", 26.85, 80.95)

	since := time.Now().UTC().Add(-time.Hour)
	got, err := store.RecentWithImages(ctx, since, noImage.ID)
	if err != nil {
		t.Fatalf("RecentWithImages: %v", err)
	}
	if len(got) != 1 || got[0].ID != withImage.ID {
		t.Fatalf("RecentWithImages = %v, want only the image-bearing report", got)
	}

	// The probe report itself is always excluded.
	got, err = store.RecentWithImages(ctx, since, withImage.ID)
	if err != nil {
		t.Fatalf("RecentWithImages: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("exclusion failed: %v", got)
	}
}
