package indexes_test

import (
	"testing"

	"github.com/rashikacodes/pulstrix/internal/app/system/indexes"
	"github.com/rashikacodes/pulstrix/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}

	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesGeoIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for coll, expected := range map[string][]string{
		"reports": {
			"idx_reports_location_2dsphere",
			"idx_reports_created_at_desc",
			"idx_reports_image_created_at",
			"idx_reports_status_created_at",
		},
		"responders": {
			"uniq_responders_email",
			"idx_responders_location_2dsphere",
			"idx_responders_department",
		},
		"employees": {
			"uniq_employees_email",
			"idx_employees_responder_status_id",
		},
		"subscriptions": {
			"uniq_subscriptions_endpoint",
			"idx_subscriptions_user",
			"idx_subscriptions_role",
		},
	} {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("list indexes for %s failed: %v", coll, err)
		}

		names := make(map[string]bool)
		for cur.Next(ctx) {
			var idx bson.M
			if err := cur.Decode(&idx); err != nil {
				continue
			}
			if name, ok := idx["name"].(string); ok {
				names[name] = true
			}
		}
		cur.Close(ctx)

		for _, want := range expected {
			if !names[want] {
				t.Errorf("%s: missing index %s", coll, want)
			}
		}
	}
}
