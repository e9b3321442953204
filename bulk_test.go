package mango

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSaveMany_Insert(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	tags := []*testTag{
		{Label: " alpha "},
		{Label: "beta"},
		{Label: "gamma"},
	}

	result, err := SaveMany(ctx, tags)
	if err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}
	if result.InsertedCount != 3 {
		t.Errorf("InsertedCount = %d, want 3", result.InsertedCount)
	}
	for i, tag := range tags {
		if tag.ID.IsZero() {
			t.Errorf("tag %d: ID not generated", i)
		}
	}
	if tags[0].Label != "alpha" {
		t.Errorf("Label = %q, want trimmed %q", tags[0].Label, "alpha")
	}

	var stored []testTag
	if err := Find(ctx, bson.D{}, &stored); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("got %d stored tags, want 3", len(stored))
	}
}

func TestSaveMany_Mixed(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	existing := &testTag{Label: "old"}
	if err := Save(ctx, existing); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	existing.Label = "renamed"
	batch := []*testTag{
		existing,
		{Label: "fresh"},
	}

	result, err := SaveMany(ctx, batch)
	if err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}
	if result.InsertedCount != 1 {
		t.Errorf("InsertedCount = %d, want 1", result.InsertedCount)
	}
	if result.ModifiedCount != 1 {
		t.Errorf("ModifiedCount = %d, want 1", result.ModifiedCount)
	}

	var found testTag
	if err := FindOne(ctx, bson.D{{Key: "_id", Value: existing.ID}}, &found); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if found.Label != "renamed" {
		t.Errorf("Label = %q, want renamed", found.Label)
	}
}

func TestSaveMany_ValidationStopsBatch(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	batch := []*testTag{
		{Label: "good"},
		{Label: "   "}, // blank after trimming
	}

	_, err := SaveMany(ctx, batch)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "item 1") {
		t.Errorf("error should name the failing item: %v", err)
	}

	var stored []testTag
	if err := Find(ctx, bson.D{}, &stored); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("got %d stored tags, want 0 (batch aborted before write)", len(stored))
	}
}

func TestSaveMany_Empty(t *testing.T) {
	result, err := SaveMany(t.Context(), []*testTag{})
	if err != nil {
		t.Fatalf("SaveMany on empty slice failed: %v", err)
	}
	if result.InsertedCount != 0 {
		t.Errorf("InsertedCount = %d, want 0", result.InsertedCount)
	}
}

func TestSaveMany_ValueSlice(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	tags := []testTag{{Label: "one"}, {Label: "two"}}
	result, err := SaveMany(ctx, tags)
	if err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}
	if result.InsertedCount != 2 {
		t.Errorf("InsertedCount = %d, want 2", result.InsertedCount)
	}
	if tags[0].ID.IsZero() || tags[1].ID.IsZero() {
		t.Error("expected generated IDs written back into the slice")
	}
}

func TestUpdateMany(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	users := []*testUser{
		{Email: "a@example.com", Name: "Aa", Age: 20},
		{Email: "b@example.com", Name: "Bb", Age: 20},
		{Email: "c@example.com", Name: "Cc", Age: 50},
	}
	if _, err := SaveMany(ctx, users); err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}

	result, err := UpdateMany(ctx,
		bson.D{{Key: "age", Value: 20}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "age", Value: 21}}}},
		&testUser{})
	if err != nil {
		t.Fatalf("UpdateMany failed: %v", err)
	}
	if result.MatchedCount != 2 || result.ModifiedCount != 2 {
		t.Errorf("Matched/Modified = %d/%d, want 2/2", result.MatchedCount, result.ModifiedCount)
	}
}

func TestDeleteMany(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	tags := []*testTag{{Label: "x"}, {Label: "x"}, {Label: "keep"}}
	if _, err := SaveMany(ctx, tags); err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}

	result, err := DeleteMany(ctx, bson.D{{Key: "label", Value: "x"}}, &testTag{})
	if err != nil {
		t.Fatalf("DeleteMany failed: %v", err)
	}
	if result.DeletedCount != 2 {
		t.Errorf("DeletedCount = %d, want 2", result.DeletedCount)
	}

	var remaining []testTag
	if err := Find(ctx, bson.D{}, &remaining); err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Label != "keep" {
		t.Errorf("remaining = %v, want one tag labeled keep", remaining)
	}
}

func TestSaveMany_NotASlice(t *testing.T) {
	_, err := SaveMany(t.Context(), &testTag{Label: "solo"})
	if err == nil || !strings.Contains(err.Error(), "slice") {
		t.Fatalf("expected slice error, got %v", err)
	}
}
