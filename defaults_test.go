package mango

import (
	"testing"
)

type defaultsDoc struct {
	Model    `bson:",inline"`
	Status   string  `bson:"status"   mango:"blank,default=pending"`
	Priority int     `bson:"priority" mango:"blank,default=5"`
	Active   bool    `bson:"active"   mango:"blank,default=true"`
	Score    float64 `bson:"score"    mango:"blank,default=0.5"`
	Notes    string  `bson:"notes"    mango:"blank"`
}

type badDefaultDoc struct {
	Model `bson:",inline"`
	Count int `bson:"count" mango:"blank,default=notanumber"`
}

func TestApplyDefaults(t *testing.T) {
	defer clearRegistration("defaultsDoc")
	if err := Register(&defaultsDoc{}, "defaults_docs"); err != nil {
		t.Fatal(err)
	}
	schema, _ := Get("defaultsDoc")

	doc := &defaultsDoc{}
	if err := applyDefaults(doc, schema); err != nil {
		t.Fatal(err)
	}

	if doc.Status != "pending" {
		t.Errorf("Status = %q, want %q", doc.Status, "pending")
	}
	if doc.Priority != 5 {
		t.Errorf("Priority = %d, want 5", doc.Priority)
	}
	if !doc.Active {
		t.Error("Active = false, want true")
	}
	if doc.Score != 0.5 {
		t.Errorf("Score = %v, want 0.5", doc.Score)
	}
	if doc.Notes != "" {
		t.Errorf("Notes = %q, want empty", doc.Notes)
	}
}

func TestApplyDefaults_SkipsSetFields(t *testing.T) {
	defer clearRegistration("defaultsDoc")
	if err := Register(&defaultsDoc{}, "defaults_docs"); err != nil {
		t.Fatal(err)
	}
	schema, _ := Get("defaultsDoc")

	doc := &defaultsDoc{Status: "active", Priority: 9}
	if err := applyDefaults(doc, schema); err != nil {
		t.Fatal(err)
	}

	if doc.Status != "active" {
		t.Errorf("Status = %q, want %q", doc.Status, "active")
	}
	if doc.Priority != 9 {
		t.Errorf("Priority = %d, want 9", doc.Priority)
	}
	// Untouched zero fields still get their defaults.
	if !doc.Active {
		t.Error("Active = false, want true")
	}
}

func TestApplyDefaults_BadValue(t *testing.T) {
	defer clearRegistration("badDefaultDoc")
	if err := Register(&badDefaultDoc{}, "bad_default_docs"); err != nil {
		t.Fatal(err)
	}
	schema, _ := Get("badDefaultDoc")

	if err := applyDefaults(&badDefaultDoc{}, schema); err == nil {
		t.Fatal("expected error applying non-numeric default to int field")
	}
}
