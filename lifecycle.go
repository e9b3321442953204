package mango

import (
	"context"
	"reflect"
	"time"
)

// Lifecycle hook interfaces. Models opt in by implementing any subset;
// implementations are detected once at Register time.

// BeforeCreate runs before a document is first inserted.
type BeforeCreate interface {
	BeforeCreate(ctx context.Context) error
}

// AfterCreate runs after a document is first inserted.
type AfterCreate interface {
	AfterCreate(ctx context.Context) error
}

// BeforeSave runs before an existing document is replaced.
type BeforeSave interface {
	BeforeSave(ctx context.Context) error
}

// AfterSave runs after an existing document is replaced.
type AfterSave interface {
	AfterSave(ctx context.Context) error
}

// BeforeDelete runs before a document is deleted.
type BeforeDelete interface {
	BeforeDelete(ctx context.Context) error
}

// AfterDelete runs after a document is deleted.
type AfterDelete interface {
	AfterDelete(ctx context.Context) error
}

// applyAutoTimestamps sets fields tagged auto=created (when zero) and
// auto=modified (always) to now, prior to validation and storage
// normalization.
func applyAutoTimestamps(model interface{}, schema *Schema, now time.Time) {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	for _, fs := range schema.Fields {
		if fs.Auto == "" {
			continue
		}
		fv := v.FieldByName(fs.Name)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}
		t, ok := fv.Interface().(time.Time)
		if !ok {
			continue
		}
		switch fs.Auto {
		case AutoCreated:
			if t.IsZero() {
				fv.Set(reflect.ValueOf(now))
			}
		case AutoModified:
			fv.Set(reflect.ValueOf(now))
		}
	}
}
