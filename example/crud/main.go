package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mango-odm/mango"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// User demonstrates a model with hooks, immutable fields, and validation.
type User struct {
	mango.TimeStamped `bson:",inline"`
	Email             string `bson:"email" mango:"unique,format=email,min=5,max=100"`
	Name              string `bson:"name"  mango:"immutable,min=2,max=60"`
	Age               int    `bson:"age"   mango:"blank,min=13,max=120"`
}

func (u *User) BeforeCreate(ctx context.Context) error {
	fmt.Println("  [hook] BeforeCreate fired")
	return nil
}

func (u *User) AfterCreate(ctx context.Context) error {
	fmt.Println("  [hook] AfterCreate fired")
	return nil
}

func (u *User) BeforeSave(ctx context.Context) error {
	fmt.Println("  [hook] BeforeSave fired")
	return nil
}

func (u *User) AfterSave(ctx context.Context) error {
	fmt.Println("  [hook] AfterSave fired")
	return nil
}

func (u *User) BeforeDelete(ctx context.Context) error {
	fmt.Println("  [hook] BeforeDelete fired")
	return nil
}

func (u *User) AfterDelete(ctx context.Context) error {
	fmt.Println("  [hook] AfterDelete fired")
	return nil
}

func init() {
	if err := mango.Register(&User{}, "crud_example_users"); err != nil {
		panic(err)
	}
}

func main() {
	ctx := context.Background()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGODB_DB")
	if dbName == "" {
		dbName = "mango_crud_example"
	}

	// Log every operation through zap.
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	mango.Use(mango.LoggingMiddleware(logger))

	// 1. Connect + Enforce
	fmt.Println("=== Connect & Enforce ===")
	db, err := mango.Connect(ctx, uri, dbName)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if err := mango.Enforce(ctx, db); err != nil {
		log.Fatalf("enforce: %v", err)
	}
	fmt.Println("Connected and enforced schemas")

	// Clean up collection for a fresh demo
	_ = db.Collection("crud_example_users").Drop(ctx)

	// 2. First save inserts and generates an ID
	fmt.Println("\n=== Save (new) ===")
	user := &User{
		Email: "alice@example.com",
		Name:  "Alice",
		Age:   30,
	}
	if err := mango.Save(ctx, user); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Printf("Saved user: ID=%s, Created=%s\n", user.ID.Hex(), user.Created.Format(time.RFC3339))

	// 3. FindOne by email
	fmt.Println("\n=== FindOne ===")
	found := &User{}
	if err := mango.FindOne(ctx, bson.D{{Key: "email", Value: "alice@example.com"}}, found); err != nil {
		log.Fatalf("find one: %v", err)
	}
	fmt.Printf("Found user: %s (%s), age %d\n", found.Name, found.Email, found.Age)

	// 4. Re-save updates the stored document (age is not immutable)
	fmt.Println("\n=== Save (existing) ===")
	found.Age = 31
	if err := mango.Save(ctx, found); err != nil {
		log.Fatalf("save age: %v", err)
	}
	fmt.Printf("Updated age to %d, Modified=%s\n", found.Age, found.Modified.Format(time.RFC3339))

	// 5. Attempt immutable field change (name)
	fmt.Println("\n=== Save (immutable name, expect error) ===")
	found.Name = "Bob"
	if err := mango.Save(ctx, found); err != nil {
		fmt.Printf("Expected error: %v\n", err)
		found.Name = "Alice" // revert
	} else {
		log.Fatal("expected immutable error but got none")
	}

	// 6. Find all users
	fmt.Println("\n=== Find All ===")
	user2 := &User{Email: "bob@example.com", Name: "Bob", Age: 25}
	if err := mango.Save(ctx, user2); err != nil {
		log.Fatalf("save user2: %v", err)
	}
	var users []User
	if err := mango.Find(ctx, bson.D{}, &users); err != nil {
		log.Fatalf("find all: %v", err)
	}
	fmt.Printf("Found %d users:\n", len(users))
	for _, u := range users {
		fmt.Printf("  - %s (%s), age %d\n", u.Name, u.Email, u.Age)
	}

	// 7. Delete user and verify not found
	fmt.Println("\n=== Delete ===")
	deletedID := found.ID
	if err := mango.Delete(ctx, found); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Printf("Deleted Alice (model ID cleared: %v)\n", found.ID.IsZero())

	err = mango.FindOne(ctx, bson.D{{Key: "_id", Value: deletedID}}, &User{})
	if err == mango.ErrNotFound {
		fmt.Println("Verified: Alice not found (ErrNotFound)")
	} else if err != nil {
		log.Fatalf("unexpected error: %v", err)
	} else {
		log.Fatal("expected ErrNotFound but found document")
	}

	// Cleanup
	_ = db.Collection("crud_example_users").Drop(ctx)
	fmt.Println("\n=== Done ===")
}
