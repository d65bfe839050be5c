package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// testMongoURI returns the MongoDB URI for tests. Override with TEST_MONGO_URI.
func testMongoURI() string {
	if uri := os.Getenv("TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// SetupTestDB connects to the test MongoDB instance and returns a database
// unique to the calling test. The test is skipped when no MongoDB is
// reachable, so the suite still passes on machines without one. The database
// is dropped and the client disconnected during test cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI()))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("skipping: test MongoDB not reachable: %v", err)
	}

	dbName := fmt.Sprintf("pulstrix_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context that is canceled after a generous deadline,
// so a wedged test database operation cannot hang the suite.
func TestContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Second, cancel)
	return ctx
}
