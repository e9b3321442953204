package mango

import (
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// FieldSchema describes a single field parsed from struct tags.
// Fields are required (must hold a non-zero value at save time) unless
// Blank is set.
type FieldSchema struct {
	Name      string        // Go field name
	BSONName  string        // bson tag name
	Type      string        // Go type as string
	Blank     bool          // zero/empty value allowed at save time
	Unique    bool          // unique index on this field
	Index     bool          // single-field index
	Default   string        // raw default value
	Enum      []string      // allowed values
	Min       *int          // minimum value/length
	Max       *int          // maximum value/length
	Format    string        // value format check, e.g. "email"
	Auto      string        // automatic datetime: "created" or "modified"
	Ref       string        // referenced collection
	Immutable bool          // cannot be changed after creation
	SubFields []FieldSchema // fields of an embedded document type
	IsSlice   bool          // field is a slice (list field)
}

// Schema is the parsed representation of a model struct. It is computed
// once at Register time and shared by every instance of the model.
type Schema struct {
	ModelName       string            // Go struct name
	Collection      string            // MongoDB collection name
	Fields          []FieldSchema     // parsed fields, declaration order
	CompoundIndexes []CompoundIndex   // compound indexes from Indexes() method
	CollOptions     CollectionOptions // per-model collection options
	Hooks           []string          // hook interface names the model implements
}

// HasField returns true if the schema contains a field with the given BSON name.
func (s *Schema) HasField(bsonName string) bool {
	for _, f := range s.Fields {
		if f.BSONName == bsonName {
			return true
		}
	}
	return false
}

// GetField returns the FieldSchema for a given BSON name, or nil if not found.
func (s *Schema) GetField(bsonName string) *FieldSchema {
	for i := range s.Fields {
		if s.Fields[i].BSONName == bsonName {
			return &s.Fields[i]
		}
	}
	return nil
}

// Indexable is implemented by models that define compound indexes.
type Indexable interface {
	Indexes() []CompoundIndex
}

// CollectionOptions carries per-model collection settings applied to
// every operation on the model's collection.
type CollectionOptions struct {
	ReadPreference *readpref.ReadPref
	WriteConcern   *writeconcern.WriteConcern
}

// Configurable is implemented by models that customize collection options.
type Configurable interface {
	CollectionOptions() CollectionOptions
}

// driverOptions translates CollectionOptions into driver options.
// Returns nil when nothing is customized.
func (c CollectionOptions) driverOptions() *options.CollectionOptionsBuilder {
	if c.ReadPreference == nil && c.WriteConcern == nil {
		return nil
	}
	opts := options.Collection()
	if c.ReadPreference != nil {
		opts.SetReadPreference(c.ReadPreference)
	}
	if c.WriteConcern != nil {
		opts.SetWriteConcern(c.WriteConcern)
	}
	return opts
}
