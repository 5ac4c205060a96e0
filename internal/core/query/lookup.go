package query

import (
	"reflect"
	"strings"
)

// Lookup resolves a dotted path ("package.name") against a record and
// returns the field value, or nil when any step of the path is absent.
// Struct fields are matched by their bson tag name (falling back to the
// lowercased field name), so paths line up with the persisted document
// shape. Fields tagged omitempty that hold their zero value are treated as
// absent, matching the document a database engine would store.
func Lookup(record any, path string) any {
	v := reflect.ValueOf(record)
	for _, part := range strings.Split(path, ".") {
		v = step(v, part)
		if !v.IsValid() {
			return nil
		}
	}
	return materialize(v)
}

func step(v reflect.Value, name string) reflect.Value {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}
	}

	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fieldName, omitempty := fieldTag(f)
			if fieldName != name {
				continue
			}
			fv := v.Field(i)
			if omitempty && fv.IsZero() {
				return reflect.Value{}
			}
			return fv
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			return v.MapIndex(reflect.ValueOf(name))
		}
	}
	return reflect.Value{}
}

// fieldTag returns the document field name for a struct field and whether
// the field is omitted when zero.
func fieldTag(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("bson")
	if tag == "" {
		tag = f.Tag.Get("json")
	}
	if tag == "" {
		return strings.ToLower(f.Name), false
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	omitempty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func materialize(v reflect.Value) any {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
