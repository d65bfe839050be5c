// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The 2dsphere indexes are load-bearing: nearest-responder matching and the
duplicate window query both run $near/$geoWithin and fail without them.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureReports(ctx, db); err != nil {
		problems = append(problems, "reports: "+err.Error())
	}
	if err := ensureResponders(ctx, db); err != nil {
		problems = append(problems, "responders: "+err.Error())
	}
	if err := ensureEmployees(ctx, db); err != nil {
		problems = append(problems, "employees: "+err.Error())
	}
	if err := ensureSubscriptions(ctx, db); err != nil {
		problems = append(problems, "subscriptions: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	out := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, specs []mongo.IndexModel) error {
	var errs []string

	for _, m := range specs {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		existing, err := listExisting(ctx, coll)
		if err != nil {
			zap.L().Warn("listing indexes failed, creating blind",
				zap.String("collection", coll.Name()),
				zap.Error(err))
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				continue
			}
			// Name or options mismatch: drop and recreate under the desired
			// definition so the running set converges to the code.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureReports(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("reports")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Duplicate-window queries and any future map view.
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("idx_reports_location_2dsphere"),
		},
		// Recent-first listing.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_reports_created_at_desc"),
		},
		// Image dedup candidate scan: recent reports that carry an image.
		{
			Keys:    bson.D{{Key: "image", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_reports_image_created_at"),
		},
		// Status filters in dashboards and the status gate in verification.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_reports_status_created_at"),
		},
	})
}

func ensureResponders(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("responders")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_responders_email"),
		},
		// $near matching filters by department first.
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("idx_responders_location_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "department", Value: 1}},
			Options: options.Index().SetName("idx_responders_department"),
		},
	})
}

func ensureEmployees(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("employees")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_employees_email"),
		},
		// Roster listings and the atomic idle-employee claim both filter on
		// {responder_id, status}.
		{
			Keys:    bson.D{{Key: "responder_id", Value: 1}, {Key: "status", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_employees_responder_status_id"),
		},
	})
}

func ensureSubscriptions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("subscriptions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One document per browser push endpoint; re-subscribing upserts.
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_subscriptions_endpoint"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_subscriptions_user"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_subscriptions_role"),
		},
	})
}
