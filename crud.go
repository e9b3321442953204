package mango

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SaveOptions configures the Save operation.
type SaveOptions struct {
	DB *mongo.Database
}

// FindOptions configures Find, FindOne, and FindCursor operations.
type FindOptions struct {
	DB    *mongo.Database
	Limit int64
	Skip  int64
	Sort  bson.D
}

// UpdateOptions configures the UpdateOne/UpdateMany operations.
type UpdateOptions struct {
	DB *mongo.Database
}

// DeleteOptions configures the Delete/DeleteOne/DeleteMany operations.
type DeleteOptions struct {
	DB *mongo.Database
}

// Save persists a model, upserting by its identifier. When the ID is zero
// a new ObjectID is generated and the document inserted; otherwise the
// stored document is replaced (created if missing). Defaults are applied
// to zero-valued fields, auto timestamps are set, all fields are
// validated, and values are normalized to their storage representation.
// Runs BeforeCreate/AfterCreate hooks on first save, BeforeSave/AfterSave
// on re-save.
func Save(ctx context.Context, model interface{}, opts ...SaveOptions) error {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return err
	}

	id, err := getModelID(model)
	if err != nil {
		return err
	}
	isNew := id.IsZero()

	return runMiddleware(ctx, &OpInfo{
		Operation: OpSave, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: model,
	}, func(ctx context.Context) error {
		var optDB *mongo.Database
		if len(opts) > 0 {
			optDB = opts[0].DB
		}
		db, err := getDB(optDB)
		if err != nil {
			return err
		}
		coll := collectionFor(db, schema)

		if err := applyDefaults(model, schema); err != nil {
			return err
		}
		applyAutoTimestamps(model, schema, time.Now())

		if isNew {
			if hook, ok := model.(BeforeCreate); ok {
				if err := hook.BeforeCreate(ctx); err != nil {
					return err
				}
			}
		} else {
			// Only fetch the existing document if immutable fields need
			// checking. This avoids an extra query otherwise.
			if hasImmutableFields(schema) {
				existing := reflect.New(reflect.TypeOf(model).Elem()).Interface()
				err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(existing)
				switch {
				case err == mongo.ErrNoDocuments:
					// First save with a caller-assigned ID; nothing to compare.
				case err != nil:
					return fmt.Errorf("mango: failed to fetch existing document: %w", err)
				default:
					if errs := validateImmutable(existing, model, schema); len(errs) > 0 {
						return ValidationErrors(errs)
					}
				}
			}

			if hook, ok := model.(BeforeSave); ok {
				if err := hook.BeforeSave(ctx); err != nil {
					return err
				}
			}
		}

		if errs := Validate(model, schema); len(errs) > 0 {
			return ValidationErrors(errs)
		}

		normalizeToStorage(model, schema.Fields)

		if isNew {
			setModelID(model, bson.NewObjectID())
			if _, err := coll.InsertOne(ctx, model); err != nil {
				setModelID(model, bson.ObjectID{})
				return fmt.Errorf("mango: insert failed: %w", err)
			}
			if hook, ok := model.(AfterCreate); ok {
				if err := hook.AfterCreate(ctx); err != nil {
					return err
				}
			}
			return nil
		}

		replOpts := options.Replace().SetUpsert(true)
		if _, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, model, replOpts); err != nil {
			return fmt.Errorf("mango: save failed: %w", err)
		}
		if hook, ok := model.(AfterSave); ok {
			if err := hook.AfterSave(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindOne finds a single document matching filter and decodes it into result.
// Decoding is permissive about fields unknown to the schema. Returns
// ErrNotFound if no document matches.
func FindOne(ctx context.Context, filter interface{}, result interface{}, opts ...FindOptions) error {
	schema, err := getSchemaForModel(result)
	if err != nil {
		return err
	}

	return runMiddleware(ctx, &OpInfo{
		Operation: OpFind, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: result, Filter: filter,
	}, func(ctx context.Context) error {
		var optDB *mongo.Database
		if len(opts) > 0 {
			optDB = opts[0].DB
		}
		db, err := getDB(optDB)
		if err != nil {
			return err
		}

		coll := collectionFor(db, schema)
		if err := coll.FindOne(ctx, filter).Decode(result); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrNotFound
			}
			return fmt.Errorf("mango: find one failed: %w", err)
		}

		normalizeFromStorage(result, schema.Fields)
		return nil
	})
}

// Find finds all documents matching filter and decodes them into results.
// results must be a pointer to a slice (e.g. *[]User).
func Find(ctx context.Context, filter interface{}, results interface{}, opts ...FindOptions) error {
	// results must be *[]T
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("mango: results must be a pointer to a slice, got %T", results)
	}

	elemType := rv.Elem().Type().Elem()
	tmpPtr := reflect.New(elemType)
	schema, err := getSchemaForModel(tmpPtr.Interface())
	if err != nil {
		return err
	}

	return runMiddleware(ctx, &OpInfo{
		Operation: OpFind, Collection: schema.Collection,
		ModelName: schema.ModelName, Filter: filter,
	}, func(ctx context.Context) error {
		var opt FindOptions
		if len(opts) > 0 {
			opt = opts[0]
		}
		db, err := getDB(opt.DB)
		if err != nil {
			return err
		}

		findOpts := options.Find()
		if opt.Limit > 0 {
			findOpts.SetLimit(opt.Limit)
		}
		if opt.Skip > 0 {
			findOpts.SetSkip(opt.Skip)
		}
		if opt.Sort != nil {
			findOpts.SetSort(opt.Sort)
		}

		coll := collectionFor(db, schema)
		cursor, err := coll.Find(ctx, filter, findOpts)
		if err != nil {
			return fmt.Errorf("mango: find failed: %w", err)
		}
		defer func() { _ = cursor.Close(ctx) }()

		if err := cursor.All(ctx, results); err != nil {
			return fmt.Errorf("mango: cursor decode failed: %w", err)
		}

		slice := rv.Elem()
		for i := 0; i < slice.Len(); i++ {
			elem := slice.Index(i)
			if elem.Kind() != reflect.Ptr {
				elem = elem.Addr()
			}
			normalizeFromStorage(elem.Interface(), schema.Fields)
		}
		return nil
	})
}

// FindCursor returns a raw *mongo.Cursor for streaming large result sets.
// The model parameter is used only for schema/collection lookup (e.g. &User{}).
// Documents decoded from the cursor skip the load normalization pass.
func FindCursor(ctx context.Context, filter interface{}, model interface{}, opts ...FindOptions) (*mongo.Cursor, error) {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return nil, err
	}

	var cursor *mongo.Cursor
	err = runMiddleware(ctx, &OpInfo{
		Operation: OpFind, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: model, Filter: filter,
	}, func(ctx context.Context) error {
		var opt FindOptions
		if len(opts) > 0 {
			opt = opts[0]
		}
		db, err := getDB(opt.DB)
		if err != nil {
			return err
		}

		findOpts := options.Find()
		if opt.Limit > 0 {
			findOpts.SetLimit(opt.Limit)
		}
		if opt.Skip > 0 {
			findOpts.SetSkip(opt.Skip)
		}
		if opt.Sort != nil {
			findOpts.SetSort(opt.Sort)
		}

		coll := collectionFor(db, schema)
		c, err := coll.Find(ctx, filter, findOpts)
		if err != nil {
			return fmt.Errorf("mango: find cursor failed: %w", err)
		}
		cursor = c
		return nil
	})

	return cursor, err
}

// UpdateOne performs a partial update on a single document matching filter.
// The model parameter is used only for schema/collection lookup (e.g. &User{}).
// The update parameter should be a MongoDB update document (e.g.
// bson.D{{"$set", bson.D{...}}}).
//
// This is a direct passthrough to the driver's UpdateOne. It bypasses
// hooks, validation, storage conversion, and immutable enforcement; use
// Save for the full lifecycle.
func UpdateOne(ctx context.Context, filter interface{}, update interface{}, model interface{}, opts ...UpdateOptions) error {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return err
	}

	return runMiddleware(ctx, &OpInfo{
		Operation: OpUpdate, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: model, Filter: filter,
	}, func(ctx context.Context) error {
		var optDB *mongo.Database
		if len(opts) > 0 {
			optDB = opts[0].DB
		}
		db, err := getDB(optDB)
		if err != nil {
			return err
		}

		coll := collectionFor(db, schema)
		result, err := coll.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("mango: update one failed: %w", err)
		}
		if result.MatchedCount == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// Delete removes a document by its ID and clears the ID on success, so a
// deleted model reads as unsaved. Returns ErrNoID when the ID is zero.
// Runs BeforeDelete/AfterDelete hooks.
func Delete(ctx context.Context, model interface{}, opts ...DeleteOptions) error {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return err
	}

	id, err := getModelID(model)
	if err != nil {
		return err
	}
	if id.IsZero() {
		return ErrNoID
	}

	return runMiddleware(ctx, &OpInfo{
		Operation: OpDelete, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: model,
		Filter: bson.D{{Key: "_id", Value: id}},
	}, func(ctx context.Context) error {
		var optDB *mongo.Database
		if len(opts) > 0 {
			optDB = opts[0].DB
		}
		db, err := getDB(optDB)
		if err != nil {
			return err
		}

		if hook, ok := model.(BeforeDelete); ok {
			if err := hook.BeforeDelete(ctx); err != nil {
				return err
			}
		}

		coll := collectionFor(db, schema)
		result, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return fmt.Errorf("mango: delete failed: %w", err)
		}
		if result.DeletedCount == 0 {
			return ErrNotFound
		}

		setModelID(model, bson.ObjectID{})

		if hook, ok := model.(AfterDelete); ok {
			if err := hook.AfterDelete(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteOne deletes a single document matching filter.
// The model parameter is used only for schema/collection lookup (e.g. &User{}).
//
// This is a direct passthrough to the driver's DeleteOne and bypasses
// hooks entirely; use Delete for the full lifecycle.
func DeleteOne(ctx context.Context, filter interface{}, model interface{}, opts ...DeleteOptions) error {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return err
	}

	return runMiddleware(ctx, &OpInfo{
		Operation: OpDelete, Collection: schema.Collection,
		ModelName: schema.ModelName, Model: model, Filter: filter,
	}, func(ctx context.Context) error {
		var optDB *mongo.Database
		if len(opts) > 0 {
			optDB = opts[0].DB
		}
		db, err := getDB(optDB)
		if err != nil {
			return err
		}

		coll := collectionFor(db, schema)
		result, err := coll.DeleteOne(ctx, filter)
		if err != nil {
			return fmt.Errorf("mango: delete one failed: %w", err)
		}
		if result.DeletedCount == 0 {
			return ErrNotFound
		}

		return nil
	})
}

// --- helpers ---

// getSchemaForModel resolves the schema for a model instance from the registry.
func getSchemaForModel(model interface{}) (*Schema, error) {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice {
		t = t.Elem()
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
	}

	schema, ok := Get(t.Name())
	if !ok {
		return nil, fmt.Errorf("mango: model %q is not registered", t.Name())
	}
	return schema, nil
}

// getModelID extracts the ID field from a model via reflection.
func getModelID(model interface{}) (bson.ObjectID, error) {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	idField := v.FieldByName("ID")
	if !idField.IsValid() {
		return bson.ObjectID{}, fmt.Errorf("mango: model has no ID field")
	}
	id, ok := idField.Interface().(bson.ObjectID)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("mango: ID field is not bson.ObjectID")
	}
	return id, nil
}

// setModelID sets the ID field on a model via reflection.
func setModelID(model interface{}, id bson.ObjectID) {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	idField := v.FieldByName("ID")
	if idField.IsValid() && idField.CanSet() {
		idField.Set(reflect.ValueOf(id))
	}
}

// getDB returns the provided database or falls back to the global DB().
func getDB(optDB *mongo.Database) (*mongo.Database, error) {
	if optDB != nil {
		return optDB, nil
	}
	db := DB()
	if db == nil {
		return nil, ErrNoDatabase
	}
	return db, nil
}

// collectionFor returns the model's collection with its declared options applied.
func collectionFor(db *mongo.Database, schema *Schema) *mongo.Collection {
	if opts := schema.CollOptions.driverOptions(); opts != nil {
		return db.Collection(schema.Collection, opts)
	}
	return db.Collection(schema.Collection)
}

// validateImmutable checks that immutable fields have not changed between old and new.
func validateImmutable(old, new interface{}, schema *Schema) []ValidationError {
	var errs []ValidationError

	oldV := reflect.ValueOf(old)
	if oldV.Kind() == reflect.Ptr {
		oldV = oldV.Elem()
	}
	newV := reflect.ValueOf(new)
	if newV.Kind() == reflect.Ptr {
		newV = newV.Elem()
	}

	for _, field := range schema.Fields {
		if !field.Immutable {
			continue
		}
		oldField := oldV.FieldByName(field.Name)
		newField := newV.FieldByName(field.Name)
		if !oldField.IsValid() || !newField.IsValid() {
			continue
		}
		if !reflect.DeepEqual(oldField.Interface(), newField.Interface()) {
			errs = append(errs, ValidationError{
				Model:  schema.ModelName,
				Field:  field.BSONName,
				Value:  newField.Interface(),
				Reason: "field is immutable and cannot be changed",
			})
		}
	}

	return errs
}

// hasImmutableFields returns true if any field in the schema is marked immutable.
func hasImmutableFields(schema *Schema) bool {
	for _, f := range schema.Fields {
		if f.Immutable {
			return true
		}
	}
	return false
}
