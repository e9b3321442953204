package mango

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// BulkResult contains the outcome of a bulk operation.
type BulkResult struct {
	InsertedCount int64
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	DeletedCount  int64
}

// SaveMany persists multiple models in a single BulkWrite. Each model goes
// through the full Save lifecycle — defaults, auto timestamps, hooks,
// validation, storage normalization — and is turned into an insert (zero
// ID) or an upserting replace (ID set).
//
// models must be a slice of structs or struct pointers (e.g. []User or
// []*User). Hooks and validation run per-model; for large batches that
// don't need the lifecycle, use the driver's InsertMany directly.
func SaveMany(ctx context.Context, models interface{}, opts ...SaveOptions) (*BulkResult, error) {
	rv := reflect.ValueOf(models)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("mango: SaveMany expects a slice, got %T", models)
	}
	if rv.Len() == 0 {
		return &BulkResult{}, nil
	}

	schema, err := getSchemaForModel(elemPointer(rv.Index(0)))
	if err != nil {
		return nil, err
	}

	var optDB *mongo.Database
	if len(opts) > 0 {
		optDB = opts[0].DB
	}
	db, err := getDB(optDB)
	if err != nil {
		return nil, err
	}

	var result *BulkResult
	err = runMiddleware(ctx, &OpInfo{
		Operation:  OpSaveMany,
		Collection: schema.Collection,
		ModelName:  schema.ModelName,
	}, func(ctx context.Context) error {
		now := time.Now()
		writes := make([]mongo.WriteModel, 0, rv.Len())
		isNew := make([]bool, rv.Len())

		for i := 0; i < rv.Len(); i++ {
			model := elemPointer(rv.Index(i))

			id, err := getModelID(model)
			if err != nil {
				return err
			}
			isNew[i] = id.IsZero()

			if err := applyDefaults(model, schema); err != nil {
				return err
			}
			applyAutoTimestamps(model, schema, now)

			if isNew[i] {
				if hook, ok := model.(BeforeCreate); ok {
					if err := hook.BeforeCreate(ctx); err != nil {
						return fmt.Errorf("mango: BeforeCreate failed on item %d: %w", i, err)
					}
				}
			} else if hook, ok := model.(BeforeSave); ok {
				if err := hook.BeforeSave(ctx); err != nil {
					return fmt.Errorf("mango: BeforeSave failed on item %d: %w", i, err)
				}
			}

			if errs := Validate(model, schema); len(errs) > 0 {
				return fmt.Errorf("mango: validation failed on item %d: %w", i, ValidationErrors(errs))
			}

			normalizeToStorage(model, schema.Fields)

			if isNew[i] {
				setModelID(model, bson.NewObjectID())
				writes = append(writes, mongo.NewInsertOneModel().SetDocument(model))
			} else {
				writes = append(writes, mongo.NewReplaceOneModel().
					SetFilter(bson.D{{Key: "_id", Value: id}}).
					SetReplacement(model).
					SetUpsert(true))
			}
		}

		coll := collectionFor(db, schema)
		res, err := coll.BulkWrite(ctx, writes)
		if err != nil {
			return fmt.Errorf("mango: bulk save failed: %w", err)
		}
		result = &BulkResult{
			InsertedCount: res.InsertedCount,
			MatchedCount:  res.MatchedCount,
			ModifiedCount: res.ModifiedCount,
			UpsertedCount: res.UpsertedCount,
		}

		for i := 0; i < rv.Len(); i++ {
			model := elemPointer(rv.Index(i))
			if isNew[i] {
				if hook, ok := model.(AfterCreate); ok {
					if err := hook.AfterCreate(ctx); err != nil {
						return err
					}
				}
			} else if hook, ok := model.(AfterSave); ok {
				if err := hook.AfterSave(ctx); err != nil {
					return err
				}
			}
		}

		return nil
	})

	return result, err
}

// UpdateMany updates all documents matching filter with the given update document.
// The model parameter is used only for schema/collection lookup (e.g. &User{}).
//
// This is a direct passthrough to the driver's UpdateMany. It bypasses
// hooks, validation, and immutable enforcement; use Save for the full
// lifecycle on individual documents.
func UpdateMany(ctx context.Context, filter, update interface{}, model interface{}, opts ...UpdateOptions) (*BulkResult, error) {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return nil, err
	}

	var optDB *mongo.Database
	if len(opts) > 0 {
		optDB = opts[0].DB
	}
	db, err := getDB(optDB)
	if err != nil {
		return nil, err
	}

	var result *BulkResult
	err = runMiddleware(ctx, &OpInfo{
		Operation:  OpUpdateMany,
		Collection: schema.Collection,
		ModelName:  schema.ModelName,
		Model:      model,
		Filter:     filter,
	}, func(ctx context.Context) error {
		coll := collectionFor(db, schema)
		res, err := coll.UpdateMany(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("mango: update many failed: %w", err)
		}
		result = &BulkResult{
			MatchedCount:  res.MatchedCount,
			ModifiedCount: res.ModifiedCount,
		}
		return nil
	})

	return result, err
}

// DeleteMany deletes all documents matching filter.
// The model parameter is used only for schema/collection lookup (e.g. &User{}).
//
// This is a direct passthrough to the driver's DeleteMany and bypasses
// hooks entirely; use Delete for the full lifecycle on individual documents.
func DeleteMany(ctx context.Context, filter interface{}, model interface{}, opts ...DeleteOptions) (*BulkResult, error) {
	schema, err := getSchemaForModel(model)
	if err != nil {
		return nil, err
	}

	var optDB *mongo.Database
	if len(opts) > 0 {
		optDB = opts[0].DB
	}
	db, err := getDB(optDB)
	if err != nil {
		return nil, err
	}

	var result *BulkResult
	err = runMiddleware(ctx, &OpInfo{
		Operation:  OpDeleteMany,
		Collection: schema.Collection,
		ModelName:  schema.ModelName,
		Filter:     filter,
	}, func(ctx context.Context) error {
		coll := collectionFor(db, schema)
		res, err := coll.DeleteMany(ctx, filter)
		if err != nil {
			return fmt.Errorf("mango: delete many failed: %w", err)
		}
		result = &BulkResult{
			DeletedCount: res.DeletedCount,
		}
		return nil
	})

	return result, err
}

// elemPointer returns a slice element as an interface pointer to the struct.
func elemPointer(v reflect.Value) interface{} {
	if v.Kind() == reflect.Ptr {
		return v.Interface()
	}
	return v.Addr().Interface()
}
