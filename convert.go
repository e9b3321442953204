package mango

import (
	"reflect"
	"strings"
	"time"
)

// Storage conversion. Values are normalized in place to the shape they
// take in the database: strings are whitespace-trimmed, datetimes are
// converted to UTC and truncated to millisecond precision (MongoDB stores
// nothing finer). The reverse pass renormalizes decoded values. Custom
// scalar representations are delegated to the driver via
// bson.ValueMarshaler / bson.ValueUnmarshaler on the field type.

// normalizeToStorage applies per-field storage conversions to a model,
// recursing into embedded documents and list elements.
func normalizeToStorage(model interface{}, fields []FieldSchema) {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	normalizeFields(v, fields, toStorageValue)
}

// normalizeFromStorage applies per-field load conversions to a decoded model.
func normalizeFromStorage(model interface{}, fields []FieldSchema) {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	normalizeFields(v, fields, fromStorageValue)
}

func normalizeFields(v reflect.Value, fields []FieldSchema, conv func(reflect.Value)) {
	if v.Kind() != reflect.Struct {
		return
	}

	for _, fs := range fields {
		fv := v.FieldByName(fs.Name)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}

		if len(fs.SubFields) > 0 {
			if fs.IsSlice {
				for i := 0; i < fv.Len(); i++ {
					elem := fv.Index(i)
					if elem.Kind() == reflect.Ptr {
						if elem.IsNil() {
							continue
						}
						elem = elem.Elem()
					}
					normalizeFields(elem, fs.SubFields, conv)
				}
			} else {
				inner := fv
				if inner.Kind() == reflect.Ptr {
					if inner.IsNil() {
						continue
					}
					inner = inner.Elem()
				}
				normalizeFields(inner, fs.SubFields, conv)
			}
			continue
		}

		if fs.IsSlice {
			for i := 0; i < fv.Len(); i++ {
				conv(fv.Index(i))
			}
			continue
		}

		conv(fv)
	}
}

// toStorageValue normalizes a single scalar value for storage.
func toStorageValue(fv reflect.Value) {
	if !fv.CanSet() {
		return
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(strings.TrimSpace(fv.String()))
		return
	case reflect.Ptr:
		if !fv.IsNil() {
			toStorageValue(fv.Elem())
		}
		return
	}

	if t, ok := fv.Interface().(time.Time); ok && !t.IsZero() {
		fv.Set(reflect.ValueOf(milliTrim(t)))
	}
}

// fromStorageValue renormalizes a single scalar value after decoding.
func fromStorageValue(fv reflect.Value) {
	if !fv.CanSet() {
		return
	}

	if fv.Kind() == reflect.Ptr {
		if !fv.IsNil() {
			fromStorageValue(fv.Elem())
		}
		return
	}

	if t, ok := fv.Interface().(time.Time); ok && !t.IsZero() {
		fv.Set(reflect.ValueOf(t.UTC()))
	}
}

// milliTrim converts a time to UTC truncated to millisecond precision.
func milliTrim(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
