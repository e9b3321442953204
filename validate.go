package mango

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Validate checks a model instance against its schema.
// Every field must hold a non-empty value unless declared blank; string
// bounds apply to the trimmed value; embedded documents and list elements
// are validated recursively. Returns a ValidationError per failing field.
func Validate(model interface{}, schema *Schema) []ValidationError {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateFields(v, schema.Fields, schema.ModelName, "")
}

// validateFields recursively validates struct fields, producing dotted error
// paths for nested subdocuments (e.g. "address.street", "items[0].name").
func validateFields(v reflect.Value, fields []FieldSchema, modelName, pathPrefix string) []ValidationError {
	var errs []ValidationError

	for _, fs := range fields {
		fv := v.FieldByName(fs.Name)
		if !fv.IsValid() {
			continue
		}

		fieldPath := fs.BSONName
		if pathPrefix != "" {
			fieldPath = pathPrefix + "." + fs.BSONName
		}

		fail := func(reason string) {
			errs = append(errs, ValidationError{
				Model:  modelName,
				Field:  fieldPath,
				Value:  fv.Interface(),
				Reason: reason,
			})
		}

		empty := isEmptyValue(fv)

		// A non-blank field may not be empty.
		if !fs.Blank && empty {
			fail("field may not be blank")
			continue
		}
		if empty {
			continue
		}

		// Length or value bounds. String bounds apply to the trimmed value.
		if fs.Min != nil || fs.Max != nil {
			if msg := checkBounds(fv, fs.Min, fs.Max); msg != "" {
				fail(msg)
			}
		}

		// Format: allowed-character classes.
		if fs.Format == FormatEmail && fv.Kind() == reflect.String {
			if !emailRe.MatchString(strings.TrimSpace(fv.String())) {
				fail("not a valid email address")
			}
		}

		// Enum: value must be in the allowed set.
		if len(fs.Enum) > 0 {
			strVal := stringValue(fv)
			found := false
			for _, allowed := range fs.Enum {
				if strVal == allowed {
					found = true
					break
				}
			}
			if !found {
				fail(fmt.Sprintf("value %q is not in enum %v", strVal, fs.Enum))
			}
		}

		// Recurse into embedded documents.
		if len(fs.SubFields) > 0 {
			if fs.IsSlice {
				for i := 0; i < fv.Len(); i++ {
					elemVal := fv.Index(i)
					if elemVal.Kind() == reflect.Ptr {
						if elemVal.IsNil() {
							continue
						}
						elemVal = elemVal.Elem()
					}
					elemPath := fmt.Sprintf("%s[%d]", fieldPath, i)
					errs = append(errs, validateFields(elemVal, fs.SubFields, modelName, elemPath)...)
				}
			} else {
				innerVal := fv
				if innerVal.Kind() == reflect.Ptr {
					innerVal = innerVal.Elem()
				}
				errs = append(errs, validateFields(innerVal, fs.SubFields, modelName, fieldPath)...)
			}
		}
	}

	return errs
}

// isEmptyValue reports whether a value counts as empty for the blank rule.
// Strings are empty when blank after trimming; slices and maps when they
// have no elements; everything else when it is the type's zero value.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// checkBounds applies min/max to string length (trimmed) or numeric value.
// Returns an empty string when the value is within bounds.
func checkBounds(v reflect.Value, min, max *int) string {
	if v.Kind() == reflect.String {
		n := len(strings.TrimSpace(v.String()))
		if min != nil && n < *min {
			return fmt.Sprintf("length %d is less than minimum %d", n, *min)
		}
		if max != nil && n > *max {
			return fmt.Sprintf("length %d exceeds maximum %d", n, *max)
		}
		return ""
	}

	if n, ok := toInt(v); ok {
		if min != nil && n < *min {
			return fmt.Sprintf("value %d is less than minimum %d", n, *min)
		}
		if max != nil && n > *max {
			return fmt.Sprintf("value %d exceeds maximum %d", n, *max)
		}
	}
	return ""
}

// stringValue extracts a string representation of a value for enum comparison.
func stringValue(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

// toInt attempts to extract an integer value from a reflect.Value.
func toInt(v reflect.Value) (int, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return int(v.Float()), true
	default:
		return 0, false
	}
}
