package internal

import (
	"fmt"
	"reflect"
	"strconv"
)

// ValueKind classifies a resolved value for section dispatch
type ValueKind int

// Value kinds
const (
	ValueKindFalsy  ValueKind = iota // Render inverted sections only
	ValueKindList                    // Render once per element
	ValueKindFrame                   // Render once with the value pushed
	ValueKindScalar                  // Render once, stack unchanged
)

// Classify decides how a section renders for v
func Classify(v any) ValueKind {
	if !Truthy(v) {
		return ValueKindFalsy
	}
	if IsList(v) {
		return ValueKindList
	}
	if isFrame(v) {
		return ValueKindFrame
	}
	return ValueKindScalar
}

// Truthy reports whether v counts as true. Falsy values are nil, "",
// "0", false, numeric zero and empty lists or maps.
func Truthy(v any) bool {
	if isNil(v) {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != StringValueEmpty && x != StringValueZero
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String:
		s := rv.String()
		return s != StringValueEmpty && s != StringValueZero
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// IsList reports whether v iterates as a list. Byte slices are scalars.
func IsList(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// ListItems returns the elements of a list value
func ListItems(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []map[string]any:
		items := make([]any, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return items
	}
	rv := reflect.ValueOf(v)
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// isFrame reports values that are pushed as a context frame
func isFrame(v any) bool {
	if _, ok := v.(Lookuper); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return true
	}
	return false
}

// Stringify converts a resolved value to output text
func Stringify(v any) string {
	if isNil(v) {
		return StringValueEmpty
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return StringValueTrue
		}
		return StringValueFalse
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprint(v)
}
