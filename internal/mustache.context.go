package internal

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lookuper is implemented by values that resolve names themselves.
// A Lookuper frame is consulted before any reflection.
type Lookuper interface {
	Lookup(name string) (any, bool)
}

// ContextStack is the ordered list of frames names are resolved against.
// The bottom frame is a synthetic empty map so the stack is never empty.
type ContextStack struct {
	frames []any
}

// NewContextStack creates a stack holding the synthetic root frame and,
// when data is non-nil, data on top of it.
func NewContextStack(data any) *ContextStack {
	s := &ContextStack{frames: []any{map[string]any{}}}
	if data != nil {
		s.Push(data)
	}
	return s
}

// Push adds a frame on top of the stack
func (s *ContextStack) Push(frame any) {
	s.frames = append(s.frames, frame)
}

// Pop removes the top frame. The synthetic root cannot be popped.
func (s *ContextStack) Pop() (any, error) {
	if len(s.frames) <= 1 {
		return nil, ErrPopRootFrame
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Top returns the most recent frame
func (s *ContextStack) Top() any {
	return s.frames[len(s.frames)-1]
}

// Len returns the number of frames, including the synthetic root
func (s *ContextStack) Len() int {
	return len(s.frames)
}

// Lookup resolves name against every frame, most recent first. The
// implicit iterator "." is the top frame. The error is non-nil only when
// an accessor failed.
func (s *ContextStack) Lookup(name string) (any, bool, error) {
	if name == ImplicitIterator {
		return s.Top(), true, nil
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		v, ok, err := ResolveIn(s.frames[i], name)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// LookupDotted resolves "a.b.c": a against the whole stack, then each
// following segment against the previous result only.
func (s *ContextStack) LookupDotted(name string) (any, bool, error) {
	if name == ImplicitIterator || !strings.Contains(name, PathSeparator) {
		return s.Lookup(name)
	}

	parts := strings.Split(name, PathSeparator)
	current, ok, err := s.Lookup(parts[0])
	if err != nil || !ok {
		return nil, false, err
	}
	for _, part := range parts[1:] {
		current, ok, err = ResolveIn(current, part)
		if err != nil || !ok {
			return nil, false, err
		}
	}
	return current, true, nil
}

// ResolveIn resolves a single name against one frame. Nil results count
// as absent; zero-argument functions are invoked and their result used.
func ResolveIn(frame any, name string) (any, bool, error) {
	if frame == nil || name == StringValueEmpty {
		return nil, false, nil
	}

	var (
		v  any
		ok bool
	)
	switch f := frame.(type) {
	case Lookuper:
		v, ok = f.Lookup(name)
	case map[string]any:
		v, ok = f[name]
	case map[string]string:
		v, ok = f[name]
	default:
		var err error
		v, ok, err = reflectLookup(reflect.ValueOf(frame), name)
		if err != nil {
			return nil, false, err
		}
	}
	if !ok {
		return nil, false, nil
	}
	return settle(v, name)
}

// settle invokes zero-argument functions and drops nil values.
func settle(v any, name string) (any, bool, error) {
	if isNil(v) {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && rv.Type().NumIn() == 0 {
		out, err := callAccessor(rv, name)
		if err != nil {
			return nil, false, err
		}
		if isNil(out) {
			return nil, false, nil
		}
		return out, true, nil
	}
	return v, true, nil
}

func reflectLookup(rv reflect.Value, name string) (any, bool, error) {
	orig := rv
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
		val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false, nil
		}
		return val.Interface(), true, nil

	case reflect.Struct:
		if field, ok := structField(rv, name); ok {
			return field.Interface(), true, nil
		}
		return methodLookup(orig, rv, name)
	}

	return nil, false, nil
}

// structField finds an exported field by exact name, then by struct tag,
// then by the name with its first letter upper-cased.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	if sf, ok := t.FieldByName(name); ok && sf.IsExported() {
		return rv.FieldByIndex(sf.Index), true
	}
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get(StructTagName), ",")
		if tag == name {
			return rv.FieldByIndex(sf.Index), true
		}
	}
	if exported := capitalize(name); exported != name {
		if sf, ok := t.FieldByName(exported); ok && sf.IsExported() {
			return rv.FieldByIndex(sf.Index), true
		}
	}
	return reflect.Value{}, false
}

// methodLookup looks for a zero-argument method. Pointer-receiver
// methods are reachable from a struct value through an addressable copy.
func methodLookup(orig, rv reflect.Value, name string) (any, bool, error) {
	target := orig
	if target.Kind() != reflect.Pointer {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		target = ptr
	}

	for _, candidate := range []string{name, capitalize(name)} {
		m := target.MethodByName(candidate)
		if !m.IsValid() || m.Type().NumIn() != 0 {
			continue
		}
		out, err := callAccessor(m, name)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return nil, false, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callAccessor calls a zero-argument function. A trailing error result
// that is non-nil becomes an AccessorError.
func callAccessor(fn reflect.Value, name string) (any, error) {
	t := fn.Type()
	out := fn.Call(nil)
	switch {
	case len(out) == 0:
		return nil, nil
	case t.Out(len(out)-1) == errorType:
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, &AccessorError{Name: name, Cause: errVal.Interface().(error)}
		}
		if len(out) == 1 {
			return nil, nil
		}
	}
	return out[0].Interface(), nil
}

func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// isNil reports untyped nil and nil pointers, interfaces and functions.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
