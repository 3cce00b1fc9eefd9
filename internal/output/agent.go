package output

import (
	"context"
	"reflect"
	"strings"
)

// listFields are the struct fields --result-limit acts on when the printed
// value is a struct rather than a slice.
var listFields = []string{"Bookmarks", "Results"}

// ApplyAgentOptions applies --result-limit to a slice, or to the list field
// of a struct. Nested children are never trimmed.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	limit := LimitFromContext(ctx)
	if data == nil || limit <= 0 {
		return data
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		// Pointers to structs are updated in place.
		if elem := v.Elem(); elem.Kind() == reflect.Struct {
			applyToListField(elem, limit)
			return data
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return truncate(v, limit).Interface()
	case reflect.Struct:
		if updated := applyToListField(v, limit); updated != nil {
			return updated
		}
	}
	return data
}

func applyToListField(v reflect.Value, limit int) interface{} {
	for _, name := range listFields {
		field, ok := listField(v, name)
		if !ok {
			continue
		}
		updated := truncate(field, limit)
		if field.CanSet() {
			field.Set(updated)
			return v.Interface()
		}

		copyVal := reflect.New(v.Type()).Elem()
		copyVal.Set(v)
		if copyField, ok := listField(copyVal, name); ok && copyField.CanSet() {
			copyField.Set(updated)
			return copyVal.Interface()
		}
		return nil
	}
	return nil
}

// listField looks up a slice field by name, following embedded pointers only
// when they are non-nil.
func listField(v reflect.Value, name string) (reflect.Value, bool) {
	sf, ok := v.Type().FieldByName(name)
	if !ok {
		return reflect.Value{}, false
	}
	field, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return reflect.Value{}, false
	}
	return field, true
}

// truncate returns the first limit elements of v as a fresh slice.
func truncate(v reflect.Value, limit int) reflect.Value {
	if v.Kind() == reflect.Array && !v.CanAddr() {
		addressable := reflect.New(v.Type()).Elem()
		addressable.Set(v)
		v = addressable
	}
	n := v.Len()
	if limit < n {
		n = limit
	}
	out := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), n, n)
	reflect.Copy(out, v.Slice(0, n))
	return out
}

// fieldLabel returns the json name of a struct field, or its Go name.
func fieldLabel(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name := strings.Split(tag, ",")[0]; name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
