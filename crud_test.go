package mango

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSave_New(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "alice@example.com", Name: "Alice"}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if user.ID.IsZero() {
		t.Error("expected ID to be generated on first save")
	}
	if user.Created.IsZero() {
		t.Error("expected Created to be set on first save")
	}
	if user.Modified.IsZero() {
		t.Error("expected Modified to be set on first save")
	}
	if user.Role != "user" {
		t.Errorf("Role = %q, want default %q", user.Role, "user")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{
		Email: "  bob@example.com  ",
		Name:  "Bob",
		Age:   30,
	}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var found testUser
	if err := FindOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, &found); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}

	if found.Email != "bob@example.com" {
		t.Errorf("Email = %q, want trimmed %q", found.Email, "bob@example.com")
	}
	if found.Age != 30 {
		t.Errorf("Age = %d, want 30", found.Age)
	}
	// Stored timestamps are UTC millisecond-precision.
	if found.Created.Location() != time.UTC {
		t.Errorf("Created location = %v, want UTC", found.Created.Location())
	}
	if !found.Created.Equal(user.Created) {
		t.Errorf("Created = %v, want %v", found.Created, user.Created)
	}
	if found.Created.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("Created has sub-millisecond precision: %v", found.Created)
	}
}

func TestSave_Resave(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "carol@example.com", Name: "Carol", Age: 25}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	id := user.ID
	firstModified := user.Modified

	time.Sleep(5 * time.Millisecond)
	user.Age = 26
	if err := Save(ctx, user); err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}

	if user.ID != id {
		t.Errorf("ID changed on re-save: %s -> %s", id.Hex(), user.ID.Hex())
	}
	if !user.Modified.After(firstModified) {
		t.Errorf("Modified not advanced: %v <= %v", user.Modified, firstModified)
	}

	var found testUser
	if err := FindOne(ctx, bson.D{{Key: "_id", Value: id}}, &found); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if found.Age != 26 {
		t.Errorf("Age = %d, want 26", found.Age)
	}
}

func TestSave_ExplicitID(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	// A caller-assigned ID upserts: no prior document exists, one appears.
	id := bson.NewObjectID()
	user := &testUser{Email: "dave@example.com", Name: "Dave"}
	user.ID = id

	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save with explicit ID failed: %v", err)
	}

	var found testUser
	if err := FindOne(ctx, bson.D{{Key: "_id", Value: id}}, &found); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if found.ID != id {
		t.Errorf("ID = %s, want %s", found.ID.Hex(), id.Hex())
	}
}

func TestSave_ValidationFailure(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "eve@example.com"} // Name missing, not blank-able
	err := Save(ctx, user)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("error should mention the failing field: %v", err)
	}
	if !user.ID.IsZero() {
		t.Error("ID should stay zero when save fails validation")
	}
}

func TestSave_Immutable(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "frank@example.com", Name: "Frank"}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	user.Name = "Francis"
	err := Save(ctx, user)
	if err == nil {
		t.Fatal("expected immutable violation")
	}
	if !strings.Contains(err.Error(), "immutable") {
		t.Errorf("error should mention immutability: %v", err)
	}
}

func TestSave_Unregistered(t *testing.T) {
	type stranger struct {
		Model `bson:",inline"`
	}
	err := Save(t.Context(), &stranger{})
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected not-registered error, got %v", err)
	}
}

func TestFind_Many(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"Ann", "Ben", "Cal"} {
		u := &testUser{Email: strings.ToLower(name) + "@example.com", Name: name}
		if err := Save(ctx, u); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	var users []testUser
	if err := Find(ctx, bson.D{}, &users); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}

	// Sort and limit.
	var page []testUser
	err := Find(ctx, bson.D{}, &page, FindOptions{
		Sort:  bson.D{{Key: "name", Value: -1}},
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("Find with options failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d users, want 2", len(page))
	}
	if page[0].Name != "Cal" {
		t.Errorf("first user = %q, want Cal", page[0].Name)
	}
}

func TestFind_NotASlice(t *testing.T) {
	var user testUser
	err := Find(t.Context(), bson.D{}, &user)
	if err == nil || !strings.Contains(err.Error(), "pointer to a slice") {
		t.Fatalf("expected slice error, got %v", err)
	}
}

func TestFindOne_NotFound(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	var user testUser
	err := FindOne(ctx, bson.D{{Key: "_id", Value: bson.NewObjectID()}}, &user)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindCursor(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		tag := &testTag{Label: "tag"}
		if err := Save(ctx, tag); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	cursor, err := FindCursor(ctx, bson.D{}, &testTag{})
	if err != nil {
		t.Fatalf("FindCursor failed: %v", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	count := 0
	for cursor.Next(ctx) {
		var tag testTag
		if err := cursor.Decode(&tag); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("cursor yielded %d documents, want 5", count)
	}
}

func TestUpdateOne(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "gina@example.com", Name: "Gina", Age: 40}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "age", Value: 41}}}}
	if err := UpdateOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, update, &testUser{}); err != nil {
		t.Fatalf("UpdateOne failed: %v", err)
	}

	var found testUser
	if err := FindOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, &found); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if found.Age != 41 {
		t.Errorf("Age = %d, want 41", found.Age)
	}

	err := UpdateOne(ctx, bson.D{{Key: "_id", Value: bson.NewObjectID()}}, update, &testUser{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unmatched update, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "hank@example.com", Name: "Hank"}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	id := user.ID

	if err := Delete(ctx, user); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !user.ID.IsZero() {
		t.Error("expected ID cleared after delete")
	}

	var found testUser
	err := FindOne(ctx, bson.D{{Key: "_id", Value: id}}, &found)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// A cleared model can be saved again as a new document.
	if err := Save(ctx, user); err != nil {
		t.Fatalf("re-Save after delete failed: %v", err)
	}
	if user.ID.IsZero() || user.ID == id {
		t.Error("expected a fresh ID on save after delete")
	}
}

func TestDelete_NoID(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	err := Delete(ctx, &testUser{Email: "x@example.com", Name: "X"})
	if !errors.Is(err, ErrNoID) {
		t.Fatalf("expected ErrNoID, got %v", err)
	}
}

func TestDelete_AlreadyGone(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	user := &testUser{Email: "iris@example.com", Name: "Iris"}
	if err := Save(ctx, user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := DeleteOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, &testUser{}); err != nil {
		t.Fatalf("DeleteOne failed: %v", err)
	}

	err := Delete(ctx, user)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHookOrdering(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	hu := &testHookUser{Email: "hooks@example.com", Name: "Hooks"}
	if err := Save(ctx, hu); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Save(ctx, hu); err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}
	if err := Delete(ctx, hu); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	want := []string{
		"before_create", "after_create",
		"before_save", "after_save",
		"before_delete", "after_delete",
	}
	if len(hu.Events) != len(want) {
		t.Fatalf("events = %v, want %v", hu.Events, want)
	}
	for i := range want {
		if hu.Events[i] != want[i] {
			t.Fatalf("events = %v, want %v", hu.Events, want)
		}
	}
}

func TestNoDatabase(t *testing.T) {
	registerTestModels()
	defer unregisterTestModels()

	dbMu.Lock()
	saved := globalDB
	globalDB = nil
	dbMu.Unlock()
	defer func() {
		dbMu.Lock()
		globalDB = saved
		dbMu.Unlock()
	}()

	err := Save(t.Context(), &testUser{Email: "no@example.com", Name: "No"})
	if !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}
}
