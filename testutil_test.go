package mango

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// --- test models ---

type testUser struct {
	TimeStamped `bson:",inline"`
	Email       string        `bson:"email"   mango:"unique,format=email,min=5,max=100"`
	Name        string        `bson:"name"    mango:"immutable,min=2,max=50"`
	Age         int           `bson:"age"     mango:"blank,min=0,max=200"`
	Role        string        `bson:"role"    mango:"enum=admin|user,default=user"`
	ProfileID   bson.ObjectID `bson:"profile" mango:"blank,ref=test_profiles"`
}

type testProfile struct {
	Model `bson:",inline"`
	Bio   string `bson:"bio"`
}

type testTag struct {
	Model `bson:",inline"`
	Label string `bson:"label"`
}

type testComment struct {
	Author string `bson:"author" mango:"min=2,max=50"`
	Text   string `bson:"text"`
}

type testPost struct {
	Model    `bson:",inline"`
	Title    string          `bson:"title"`
	AuthorID bson.ObjectID   `bson:"author"   mango:"blank,ref=test_users"`
	TagIDs   []bson.ObjectID `bson:"tags"     mango:"blank,ref=test_tags"`
	Comments []testComment   `bson:"comments" mango:"blank"`
}

type testConfiguredModel struct {
	Model `bson:",inline"`
	Name  string `bson:"name"`
}

func (m *testConfiguredModel) CollectionOptions() CollectionOptions {
	return CollectionOptions{
		ReadPreference: readpref.SecondaryPreferred(),
		WriteConcern:   writeconcern.Majority(),
	}
}

type testHookUser struct {
	Model  `bson:",inline"`
	Email  string   `bson:"email"`
	Name   string   `bson:"name"`
	Events []string `bson:"-" mango:"blank"`
}

func (u *testHookUser) BeforeCreate(ctx context.Context) error {
	u.Events = append(u.Events, "before_create")
	return nil
}
func (u *testHookUser) AfterCreate(ctx context.Context) error {
	u.Events = append(u.Events, "after_create")
	return nil
}
func (u *testHookUser) BeforeSave(ctx context.Context) error {
	u.Events = append(u.Events, "before_save")
	return nil
}
func (u *testHookUser) AfterSave(ctx context.Context) error {
	u.Events = append(u.Events, "after_save")
	return nil
}
func (u *testHookUser) BeforeDelete(ctx context.Context) error {
	u.Events = append(u.Events, "before_delete")
	return nil
}
func (u *testHookUser) AfterDelete(ctx context.Context) error {
	u.Events = append(u.Events, "after_delete")
	return nil
}

// --- test DB setup ---

var (
	testClientOnce sync.Once
	testClient     *mongo.Client
	testClientErr  error
)

// testMongoClient connects once per test binary with a short server
// selection timeout, so a machine without MongoDB skips the integration
// tests quickly instead of paying the driver's default timeout per test.
func testMongoClient() (*mongo.Client, error) {
	testClientOnce.Do(func() {
		uri := os.Getenv("MONGODB_URI")
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}

		opts := options.Client().
			ApplyURI(uri).
			SetServerSelectionTimeout(2 * time.Second)
		client, err := mongo.Connect(opts)
		if err != nil {
			testClientErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			testClientErr = err
			return
		}
		testClient = client
	})
	return testClient, testClientErr
}

func setupTestDB(t *testing.T) (context.Context, *mongo.Database, func()) {
	t.Helper()

	ctx := context.Background()
	client, err := testMongoClient()
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	dbName := fmt.Sprintf("mango_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	// Verify we can actually perform operations (auth check)
	testColl := db.Collection("_mango_auth_check")
	if _, err := testColl.InsertOne(ctx, bson.D{{Key: "test", Value: true}}); err != nil {
		_ = db.Drop(ctx)
		t.Skipf("MongoDB not writable (auth required?): %v", err)
	}
	_ = testColl.Drop(ctx)

	// Set global DB
	dbMu.Lock()
	globalDB = db
	dbMu.Unlock()

	// Register test models
	registerTestModels()

	cleanup := func() {
		_ = db.Drop(ctx)
		dbMu.Lock()
		globalDB = nil
		dbMu.Unlock()
		unregisterTestModels()
		ClearMiddleware()
	}

	return ctx, db, cleanup
}

func registerTestModels() {
	unregisterTestModels()
	_ = Register(&testUser{}, "test_users")
	_ = Register(&testProfile{}, "test_profiles")
	_ = Register(&testTag{}, "test_tags")
	_ = Register(&testPost{}, "test_posts")
	_ = Register(&testHookUser{}, "test_hook_users")
	_ = Register(&testConfiguredModel{}, "test_configured")
}

func unregisterTestModels() {
	registryMu.Lock()
	for _, name := range []string{
		"testUser", "testProfile", "testTag", "testPost",
		"testHookUser", "testConfiguredModel",
	} {
		if s, ok := registry[name]; ok {
			delete(collections, s.Collection)
		}
		delete(registry, name)
	}
	registryMu.Unlock()
}

func intPtr(n int) *int { return &n }
