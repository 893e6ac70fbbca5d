package runtime

import (
	"reflect"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// structValue dereferences an object down to its struct value, reporting
// whether a settable form was reached.
func structValue(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	settable := false
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
		settable = rv.CanSet()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return rv, settable
}

// GetProperty reads a public property of an object.
func (rt *Runtime) GetProperty(obj any, name string) (any, error) {
	rv, _ := structValue(obj)
	if !rv.IsValid() {
		return nil, errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !isExportedName(name) {
		return nil, errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	return f.Interface(), nil
}

// SetProperty writes a public property of an object. The object must be a
// pointer for the write to be visible.
func (rt *Runtime) SetProperty(obj any, name string, value any) error {
	rv, settable := structValue(obj)
	if !rv.IsValid() {
		return errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !isExportedName(name) {
		return errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	if !settable || !f.CanSet() {
		return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			Detail("property %q of %s is not settable; pass the object, not a copy",
				name, rt.ObjectClassName(obj)).Build()
	}
	cv, err := coerceValue(rt, f.Type(), value, name)
	if err != nil {
		return err
	}
	f.Set(cv)
	return nil
}

// UnsetProperty resets a public property to its zero value.
func (rt *Runtime) UnsetProperty(obj any, name string) error {
	rv, settable := structValue(obj)
	if !rv.IsValid() {
		return errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !isExportedName(name) {
		return errors.AttributeMissing(rt.ObjectClassName(obj), name)
	}
	if !settable || !f.CanSet() {
		return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			Detail("property %q of %s is not settable", name, rt.ObjectClassName(obj)).Build()
	}
	f.Set(reflect.Zero(f.Type()))
	return nil
}

// Properties lists the public property names of an object in declaration
// order.
func (rt *Runtime) Properties(obj any) []string {
	rv, _ := structValue(obj)
	if !rv.IsValid() {
		return nil
	}
	var names []string
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if f.IsExported() && !f.Anonymous {
			names = append(names, f.Name)
		}
	}
	return names
}

// NonDefaultProperties lists the public properties currently holding a
// non-zero value.
func (rt *Runtime) NonDefaultProperties(obj any) []string {
	rv, _ := structValue(obj)
	if !rv.IsValid() {
		return nil
	}
	var names []string
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if !rv.FieldByIndex(f.Index).IsZero() {
			names = append(names, f.Name)
		}
	}
	return names
}

// CallMethod invokes a public method on an object.
func (rt *Runtime) CallMethod(obj any, name string, args []any) (any, error) {
	rv := reflect.ValueOf(obj)
	m := rv.MethodByName(name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer && rv.CanAddr() {
		m = rv.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		return nil, errors.New(errors.PhaseCall, errors.KindNameNotFound).
			Detail("%s has no method %q", rt.ObjectClassName(obj), name).Build()
	}

	params := paramsOf(rt, m.Type(), nil, nil)
	return callReflected(rt, name, m, args, params)
}

// CallValue invokes a callable object: a closure encoded as an object
// handle, or anything else a caller managed to get a handle to that Go can
// call.
func (rt *Runtime) CallValue(v any, args []any) (any, error) {
	if f, ok := v.(*Func); ok {
		return f.Call(rt, args)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			GoType(rt.ObjectClassName(v)).
			Detail("value is not callable").Build()
	}
	params := paramsOf(rt, rv.Type(), nil, nil)
	return callReflected(rt, "closure", rv, args, params)
}

func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

// arrayOf converts a struct's public fields into an ordered array, used by
// the array cast.
func (rt *Runtime) arrayOf(obj any) (*bridge.Array, bool) {
	rv, _ := structValue(obj)
	if !rv.IsValid() {
		return nil, false
	}
	out := bridge.NewArray()
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if f.IsExported() && !f.Anonymous {
			out.Set(bridge.StringKey(f.Name), rv.FieldByIndex(f.Index).Interface())
		}
	}
	return out, true
}
