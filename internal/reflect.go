package internal

import (
	"reflect"
	"strings"
)

// StructFields returns all exported fields of a struct, flattening embedded
// structs in declaration order. Flattening is what makes field declarations
// inherit across embedding: an embedded type's fields behave like a parent
// class's declarations. It accepts a reflect.Type that must be a struct type.
func StructFields(t reflect.Type) []reflect.StructField {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		// Flatten embedded structs before the exported check: Go promotes
		// exported fields of unexported embedded struct types, so an
		// embedded base named in lowercase still contributes its fields.
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, StructFields(ft)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// TypeName returns a human-readable type name for a reflect.Type.
func TypeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		return "*" + TypeName(t.Elem())
	}
	if t.Kind() == reflect.Slice {
		return "[]" + TypeName(t.Elem())
	}
	name := t.String()
	// Strip package path for common types
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		pkg := parts[len(parts)-2]
		typeName := parts[len(parts)-1]
		lastSlash := strings.LastIndex(pkg, "/")
		if lastSlash >= 0 {
			pkg = pkg[lastSlash+1:]
		}
		return pkg + "." + typeName
	}
	return name
}
