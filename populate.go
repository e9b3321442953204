package mango

import (
	"context"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Refs maps bson field names to destination pointers for population.
// Keys must correspond to fields tagged with mango:"ref=collection".
type Refs map[string]interface{}

// PopulateOptions configures the Populate and BatchPopulate operations.
type PopulateOptions struct {
	DB *mongo.Database
}

// Populate resolves ref fields on a loaded model by fetching referenced
// documents from their respective collections. Each key in refs is a bson
// field name tagged with mango:"ref=collection", and the corresponding value
// is a pointer to a struct where the referenced document will be decoded.
// Zero and dangling refs are skipped, leaving the target untouched.
//
// Example:
//
//	user := &User{}
//	mango.FindOne(ctx, bson.D{{Key: "email", Value: "alice@example.com"}}, user)
//
//	profile := &Profile{}
//	err := mango.Populate(ctx, user, mango.Refs{"profile": profile})
func Populate(ctx context.Context, model interface{}, refs Refs, opts ...PopulateOptions) error {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return err
	}

	var optDB *mongo.Database
	if len(opts) > 0 {
		optDB = opts[0].DB
	}
	db, err := getDB(optDB)
	if err != nil {
		return err
	}

	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	for bsonName, target := range refs {
		field, fv, err := refField(schema, v, bsonName)
		if err != nil {
			return err
		}

		refID, ok := fv.Interface().(bson.ObjectID)
		if !ok {
			return fmt.Errorf("mango: ref field %q is not bson.ObjectID", bsonName)
		}
		if refID.IsZero() {
			continue // skip unset refs
		}

		coll := db.Collection(field.Ref)
		if err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: refID}}).Decode(target); err != nil {
			if err == mongo.ErrNoDocuments {
				continue // referenced document not found, leave target as zero
			}
			return fmt.Errorf("mango: populate %q failed: %w", bsonName, err)
		}
	}

	return nil
}

// BatchPopulate resolves one ref field across a slice of models with a single
// $in query, deduplicating referenced IDs. models must be a slice of structs
// or struct pointers; results must be a pointer to a slice of the referenced
// type.
func BatchPopulate(ctx context.Context, models interface{}, bsonName string, results interface{}, opts ...PopulateOptions) error {
	rv := reflect.ValueOf(models)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice {
		return fmt.Errorf("mango: BatchPopulate expects a slice, got %T", models)
	}
	if rv.Len() == 0 {
		return nil
	}

	schema, err := getSchemaForModel(elemPointer(rv.Index(0)))
	if err != nil {
		return err
	}

	var optDB *mongo.Database
	if len(opts) > 0 {
		optDB = opts[0].DB
	}
	db, err := getDB(optDB)
	if err != nil {
		return err
	}

	field := schema.GetField(bsonName)
	if field == nil {
		return fmt.Errorf("mango: field %q not found in schema for %s", bsonName, schema.ModelName)
	}
	if field.Ref == "" {
		return fmt.Errorf("mango: field %q has no ref tag", bsonName)
	}

	seen := make(map[bson.ObjectID]bool)
	ids := bson.A{}
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		fv := elem.FieldByName(field.Name)
		if !fv.IsValid() {
			return fmt.Errorf("mango: field %q not found in model struct", field.Name)
		}
		refID, ok := fv.Interface().(bson.ObjectID)
		if !ok {
			return fmt.Errorf("mango: ref field %q is not bson.ObjectID", bsonName)
		}
		if refID.IsZero() || seen[refID] {
			continue
		}
		seen[refID] = true
		ids = append(ids, refID)
	}

	if len(ids) == 0 {
		return nil
	}

	coll := db.Collection(field.Ref)
	cursor, err := coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return fmt.Errorf("mango: batch populate %q failed: %w", bsonName, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("mango: batch populate decode failed: %w", err)
	}

	return nil
}

// refField resolves a ref field's schema entry and reflect value.
func refField(schema *Schema, v reflect.Value, bsonName string) (*FieldSchema, reflect.Value, error) {
	field := schema.GetField(bsonName)
	if field == nil {
		return nil, reflect.Value{}, fmt.Errorf("mango: field %q not found in schema for %s", bsonName, schema.ModelName)
	}
	if field.Ref == "" {
		return nil, reflect.Value{}, fmt.Errorf("mango: field %q has no ref tag", bsonName)
	}

	fv := v.FieldByName(field.Name)
	if !fv.IsValid() {
		return nil, reflect.Value{}, fmt.Errorf("mango: field %q not found in model struct", field.Name)
	}
	return field, fv, nil
}
