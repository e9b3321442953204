package mango

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/mango-odm/mango/internal"
)

var (
	registryMu  sync.RWMutex
	registry    = map[string]*Schema{}
	collections = map[string]string{} // collection name → model name
)

// Register parses a model struct and registers its schema.
// The model should be a pointer to a struct that embeds mango.Model
// (directly or via mango.TimeStamped). Embedded structs are flattened
// into the schema, with outer declarations shadowing same-named embedded
// fields, so field declarations are inherited and merged across embedding.
//
// Registering a second model for an already-claimed collection, or
// re-registering a model name, fails.
func Register(model interface{}, collection string) error {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("mango: Register expects a struct, got %s", t.Kind())
	}

	schema := &Schema{
		ModelName:  t.Name(),
		Collection: collection,
		Fields:     parseFields(t),
	}

	// Check for Indexable interface (compound indexes)
	if indexable, ok := model.(Indexable); ok {
		schema.CompoundIndexes = indexable.Indexes()
	}

	// Check for Configurable interface (per-model collection options)
	if configurable, ok := model.(Configurable); ok {
		schema.CollOptions = configurable.CollectionOptions()
	}

	// Detect hook implementations
	schema.Hooks = detectHooks(model)

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[schema.ModelName]; exists {
		return fmt.Errorf("mango: model %q is already registered", schema.ModelName)
	}
	if owner, exists := collections[collection]; exists {
		return fmt.Errorf("mango: collection %q is already registered to model %q", collection, owner)
	}
	registry[schema.ModelName] = schema
	collections[collection] = schema.ModelName

	return nil
}

// parseFields builds the field schemas for a struct type, flattening
// embedded structs and recursing into embedded document types.
func parseFields(t reflect.Type) []FieldSchema {
	return parseFieldsGuarded(t, map[reflect.Type]bool{t: true})
}

// parseFieldsGuarded tracks the document types on the current recursion
// path so self-referential documents (trees, linked nodes) terminate:
// a revisited type keeps its field entry but gets no SubFields.
func parseFieldsGuarded(t reflect.Type, onPath map[reflect.Type]bool) []FieldSchema {
	var fields []FieldSchema

	for _, f := range internal.StructFields(t) {
		bsonTag := f.Tag.Get("bson")
		bsonName, _ := ParseBSONTag(bsonTag)
		if bsonName == "" {
			bsonName = strings.ToLower(f.Name)
		}
		if bsonName == "-" {
			continue
		}

		fs := ParseMangoTag(f.Tag.Get("mango"))
		fs.Name = f.Name
		fs.BSONName = bsonName
		fs.Type = internal.TypeName(f.Type)

		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Slice {
			fs.IsSlice = true
			ft = ft.Elem()
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
		}
		if isDocumentType(ft) && !onPath[ft] {
			onPath[ft] = true
			fs.SubFields = parseFieldsGuarded(ft, onPath)
			delete(onPath, ft)
		}

		// Outer declarations shadow same-named embedded fields.
		if idx := fieldIndex(fields, fs.BSONName); idx >= 0 {
			fields[idx] = fs
		} else {
			fields = append(fields, fs)
		}
	}

	return fields
}

// isDocumentType reports whether a struct type should be treated as an
// embedded document. Driver and time types marshal as scalars.
func isDocumentType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if t == reflect.TypeOf(time.Time{}) {
		return false
	}
	if strings.HasPrefix(t.PkgPath(), "go.mongodb.org/mongo-driver") {
		return false
	}
	return true
}

func fieldIndex(fields []FieldSchema, bsonName string) int {
	for i := range fields {
		if fields[i].BSONName == bsonName {
			return i
		}
	}
	return -1
}

// GetAll returns all registered schemas.
func GetAll() map[string]*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make(map[string]*Schema, len(registry))
	for k, v := range registry {
		result[k] = v
	}
	return result
}

// Get returns the schema for a given model name, or false if not found.
func Get(name string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

// detectHooks checks which hook interfaces a model implements.
func detectHooks(model interface{}) []string {
	var hooks []string
	if _, ok := model.(BeforeCreate); ok {
		hooks = append(hooks, "BeforeCreate")
	}
	if _, ok := model.(AfterCreate); ok {
		hooks = append(hooks, "AfterCreate")
	}
	if _, ok := model.(BeforeSave); ok {
		hooks = append(hooks, "BeforeSave")
	}
	if _, ok := model.(AfterSave); ok {
		hooks = append(hooks, "AfterSave")
	}
	if _, ok := model.(BeforeDelete); ok {
		hooks = append(hooks, "BeforeDelete")
	}
	if _, ok := model.(AfterDelete); ok {
		hooks = append(hooks, "AfterDelete")
	}
	return hooks
}
