package runtime

import (
	"fmt"
	"reflect"
	"strconv"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// TypeInfo describes a parameter or return type for the reflection
// commands. A nil TypeInfo means untyped (mixed).
type TypeInfo struct {
	Name     string
	IsClass  bool
	Nullable bool
}

// Param describes one declared parameter.
type Param struct {
	Name       string
	Type       *TypeInfo
	HasDefault bool
	Default    any
	Variadic   bool
}

// FuncMeta is the reflection payload of the funcInfo command.
type FuncMeta struct {
	Name       string
	Doc        string
	Params     []Param
	ReturnType *TypeInfo
}

// Func is a registered callable.
type Func struct {
	Name       string
	Doc        string
	fn         reflect.Value
	paramNames []string
	defaults   map[string]any
}

// FuncOption configures a registration.
type FuncOption func(*Func)

// WithDoc attaches a documentation string.
func WithDoc(doc string) FuncOption {
	return func(f *Func) { f.Doc = doc }
}

// WithParams names the parameters in order. Unnamed parameters fall back to
// arg0, arg1, … because reflection does not preserve Go parameter names.
func WithParams(names ...string) FuncOption {
	return func(f *Func) { f.paramNames = names }
}

// WithDefault declares a default value for a named parameter, making it
// optional for callers.
func WithDefault(param string, value any) FuncOption {
	return func(f *Func) {
		if f.defaults == nil {
			f.defaults = make(map[string]any)
		}
		f.defaults[param] = value
	}
}

// RegisterFunc exposes fn under name. fn must be a Go func; a trailing
// error result is reported to the caller as a thrown exception.
func (rt *Runtime) RegisterFunc(name string, fn any, opts ...FuncOption) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("RegisterFunc needs a func").Build()
	}

	f := &Func{Name: name, fn: v}
	for _, opt := range opts {
		opt(f)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.funcs[name]; ok {
		return errors.New(errors.PhaseResolve, errors.KindRedefined).
			Detail("function %q already registered", name).Build()
	}
	rt.funcs[name] = f
	return nil
}

// Params returns the declared parameter list.
func (f *Func) Params(rt *Runtime) []Param {
	return paramsOf(rt, f.fn.Type(), f.paramNames, f.defaults)
}

// Meta returns the funcInfo payload.
func (f *Func) Meta(rt *Runtime) FuncMeta {
	return FuncMeta{
		Name:       f.Name,
		Doc:        f.Doc,
		Params:     f.Params(rt),
		ReturnType: returnTypeOf(rt, f.fn.Type()),
	}
}

// Call invokes the function with decoded arguments.
func (f *Func) Call(rt *Runtime, args []any) (any, error) {
	return callReflected(rt, f.Name, f.fn, args, f.Params(rt))
}

func paramsOf(rt *Runtime, ft reflect.Type, names []string, defaults map[string]any) []Param {
	params := make([]Param, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		name := "arg" + strconv.Itoa(i)
		if i < len(names) {
			name = names[i]
		}
		variadic := ft.IsVariadic() && i == ft.NumIn()-1
		in := ft.In(i)
		if variadic {
			in = in.Elem()
		}
		p := Param{
			Name:     name,
			Type:     typeInfoFor(rt, in),
			Variadic: variadic,
		}
		if dv, ok := defaults[name]; ok {
			p.HasDefault = true
			p.Default = dv
		}
		params = append(params, p)
	}
	return params
}

func returnTypeOf(rt *Runtime, ft reflect.Type) *TypeInfo {
	for i := 0; i < ft.NumOut(); i++ {
		if ft.Out(i) == errorType {
			continue
		}
		return typeInfoFor(rt, ft.Out(i))
	}
	return nil
}

var (
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	arrayType  = reflect.TypeOf((*bridge.Array)(nil))
	anyType    = reflect.TypeOf((*any)(nil)).Elem()
	stringType = reflect.TypeOf("")
)

// typeInfoFor maps a Go type onto the bridge's type vocabulary. Registered
// classes are reported by their registered names.
func typeInfoFor(rt *Runtime, t reflect.Type) *TypeInfo {
	if t == nil || t == anyType {
		return nil
	}
	nullable := false
	if t.Kind() == reflect.Pointer && t != arrayType {
		nullable = true
	}
	if c, ok := rt.ClassFor(t); ok {
		return &TypeInfo{Name: c.Name, IsClass: true, Nullable: nullable}
	}

	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case t == arrayType:
		return &TypeInfo{Name: "array"}
	case base.Kind() == reflect.Bool:
		return &TypeInfo{Name: "bool", Nullable: nullable}
	case base.Kind() >= reflect.Int && base.Kind() <= reflect.Uint64:
		return &TypeInfo{Name: "int", Nullable: nullable}
	case base.Kind() == reflect.Float32 || base.Kind() == reflect.Float64:
		return &TypeInfo{Name: "float", Nullable: nullable}
	case base.Kind() == reflect.String:
		return &TypeInfo{Name: "string", Nullable: nullable}
	case base.Kind() == reflect.Slice, base.Kind() == reflect.Map, base.Kind() == reflect.Array:
		return &TypeInfo{Name: "array", Nullable: nullable}
	case base.Kind() == reflect.Func:
		return &TypeInfo{Name: "callable", Nullable: nullable}
	case base.Kind() == reflect.Interface:
		return nil
	default:
		return &TypeInfo{Name: base.String(), Nullable: nullable}
	}
}

// callReflected coerces args against fn's signature, calls it, and maps the
// results: a trailing non-nil error becomes a thrown exception, multiple
// results become a list array.
func callReflected(rt *Runtime, name string, fn reflect.Value, args []any, params []Param) (any, error) {
	ft := fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}

	// Fill omitted trailing arguments from declared defaults.
	for len(args) < fixed {
		i := len(args)
		if i >= len(params) || !params[i].HasDefault {
			break
		}
		args = append(args, params[i].Default)
	}

	if len(args) < fixed || (!ft.IsVariadic() && len(args) > fixed) {
		return nil, errors.ArityMismatch(name, fixed, len(args))
	}

	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		want := ft.In(min(i, ft.NumIn()-1))
		if ft.IsVariadic() && i >= fixed {
			want = ft.In(ft.NumIn() - 1).Elem()
		}
		v, err := coerceValue(rt, want, arg, "args."+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	out := fn.Call(in)

	results := make([]any, 0, len(out))
	for i, o := range out {
		if ft.Out(i) == errorType {
			if !o.IsNil() {
				return nil, thrownFromError(o.Interface().(error))
			}
			continue
		}
		results = append(results, o.Interface())
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return bridge.ListArray(results...), nil
	}
}

// thrownFromError keeps structured bridge errors intact and wraps anything
// else as a generic thrown exception.
func thrownFromError(err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return err
	}
	return errors.Thrown("Exception", err.Error())
}

// coerceValue converts a decoded argument to the type a Go signature wants.
func coerceValue(rt *Runtime, want reflect.Type, got any, path string) (reflect.Value, error) {
	if want == anyType || (want.Kind() == reflect.Interface && want.NumMethod() == 0) {
		if got == nil {
			return reflect.Zero(want), nil
		}
		return reflect.ValueOf(got), nil
	}

	if got == nil {
		switch want.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, errors.TypeMismatch(errors.PhaseCall, []string{path}, "nil", want.String())
	}

	gv := reflect.ValueOf(got)
	gt := gv.Type()

	if gt.AssignableTo(want) {
		return gv, nil
	}
	if want.Kind() == reflect.Interface && gt.Implements(want) {
		return gv, nil
	}

	switch want.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if gt.Kind() == reflect.Int64 {
			return gv.Convert(want), nil
		}
	case reflect.Float32, reflect.Float64:
		switch gt.Kind() {
		case reflect.Int64, reflect.Float64:
			return gv.Convert(want), nil
		}
	case reflect.String:
		if gt.Kind() == reflect.String {
			return gv.Convert(want), nil
		}
	case reflect.Slice:
		if arr, ok := got.(*bridge.Array); ok {
			return arrayToSlice(rt, want, arr, path)
		}
	case reflect.Map:
		if arr, ok := got.(*bridge.Array); ok {
			return arrayToMap(rt, want, arr, path)
		}
	case reflect.Struct:
		if gt.Kind() == reflect.Pointer && gt.Elem() == want {
			return gv.Elem(), nil
		}
	case reflect.Pointer:
		if gt == want {
			return gv, nil
		}
	}

	return reflect.Value{}, errors.TypeMismatch(errors.PhaseCall, []string{path}, gt.String(), want.String())
}

func arrayToSlice(rt *Runtime, want reflect.Type, arr *bridge.Array, path string) (reflect.Value, error) {
	out := reflect.MakeSlice(want, 0, arr.Len())
	for i, p := range arr.Pairs() {
		ev, err := coerceValue(rt, want.Elem(), p.Value, path+"."+strconv.Itoa(i))
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, ev)
	}
	return out, nil
}

func arrayToMap(rt *Runtime, want reflect.Type, arr *bridge.Array, path string) (reflect.Value, error) {
	out := reflect.MakeMapWithSize(want, arr.Len())
	for _, p := range arr.Pairs() {
		kv, err := coerceValue(rt, want.Key(), p.Key.Native(), path+".key")
		if err != nil {
			return reflect.Value{}, err
		}
		vv, err := coerceValue(rt, want.Elem(), p.Value, path+"."+fmt.Sprint(p.Key.Native()))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(kv, vv)
	}
	return out, nil
}
