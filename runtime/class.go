package runtime

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/wippyai/bridge-runtime/errors"
)

// MethodMeta describes one public method for the classInfo command. Static
// is always false in this dialect: Go methods are bound to an instance.
type MethodMeta struct {
	Name       string
	Doc        string
	Static     bool
	Owner      string
	Params     []Param
	ReturnType *TypeInfo
}

// ClassMeta is the reflection payload of the classInfo command.
type ClassMeta struct {
	Name        string
	Doc         string
	Consts      map[string]any
	ConstNames  []string
	Methods     []MethodMeta
	Properties  []string
	Interfaces  []string
	IsAbstract  bool
	IsInterface bool
	Parent      string // empty means none
}

// Class is a registered struct or interface type.
type Class struct {
	Name       string
	Doc        string
	typ        reflect.Type // struct type, or interface type
	ctor       reflect.Value
	ctorParams []string
	consts     map[string]any
	methodDocs map[string]string
	abstract   bool
	isIface    bool
}

// ClassOption configures a class registration.
type ClassOption func(*Class)

// WithClassDoc attaches a documentation string.
func WithClassDoc(doc string) ClassOption {
	return func(c *Class) { c.Doc = doc }
}

// WithConstructor uses fn to build instances instead of a zero value. fn
// must return a pointer to the class type, optionally with an error.
func WithConstructor(fn any, paramNames ...string) ClassOption {
	return func(c *Class) {
		c.ctor = reflect.ValueOf(fn)
		c.ctorParams = paramNames
	}
}

// WithClassConst attaches a public class constant.
func WithClassConst(name string, value any) ClassOption {
	return func(c *Class) {
		if c.consts == nil {
			c.consts = make(map[string]any)
		}
		c.consts[name] = value
	}
}

// WithMethodDoc attaches a documentation string to a method.
func WithMethodDoc(method, doc string) ClassOption {
	return func(c *Class) {
		if c.methodDocs == nil {
			c.methodDocs = make(map[string]string)
		}
		c.methodDocs[method] = doc
	}
}

// AsAbstract marks the class as not instantiable.
func AsAbstract() ClassOption {
	return func(c *Class) { c.abstract = true }
}

// RegisterClass exposes a struct type under name. prototype is any value of
// the type, typically a nil pointer: (*Point)(nil).
func (rt *Runtime) RegisterClass(name string, prototype any, opts ...ClassOption) error {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", prototype)).
			Detail("RegisterClass needs a struct type").Build()
	}
	return rt.addClass(&Class{Name: name, typ: t}, opts)
}

// RegisterInterface exposes an interface type under name. prototype must be
// a nil pointer to the interface: (*fmt.Stringer)(nil).
func (rt *Runtime) RegisterInterface(name string, prototype any, opts ...ClassOption) error {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", prototype)).
			Detail("RegisterInterface needs a pointer to an interface type").Build()
	}
	return rt.addClass(&Class{Name: name, typ: t.Elem(), isIface: true}, opts)
}

func (rt *Runtime) addClass(c *Class, opts []ClassOption) error {
	for _, opt := range opts {
		opt(c)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.classes[c.Name]; ok {
		return errors.New(errors.PhaseResolve, errors.KindRedefined).
			Detail("class %q already registered", c.Name).Build()
	}
	rt.classes[c.Name] = c
	rt.classByType[c.typ] = c
	return nil
}

// Type returns the underlying Go type.
func (c *Class) Type() reflect.Type { return c.typ }

// IsInterface reports whether this is an interface registration.
func (c *Class) IsInterface() bool { return c.isIface }

// IsAbstract reports whether instances can be constructed.
func (c *Class) IsAbstract() bool { return c.abstract }

// New constructs an instance. Without a registered constructor only
// zero-argument construction is possible and yields a pointer to the zero
// value.
func (c *Class) New(rt *Runtime, args []any) (any, error) {
	if c.isIface {
		return nil, errors.New(errors.PhaseCall, errors.KindNotInstantiable).
			Detail("cannot instantiate interface %s", c.Name).Build()
	}
	if c.abstract {
		return nil, errors.New(errors.PhaseCall, errors.KindNotInstantiable).
			Detail("cannot instantiate abstract class %s", c.Name).Build()
	}

	if c.ctor.IsValid() {
		params := paramsOf(rt, c.ctor.Type(), c.ctorParams, nil)
		return callReflected(rt, c.Name+" constructor", c.ctor, args, params)
	}

	if len(args) > 0 {
		return nil, errors.ArityMismatch(c.Name+" constructor", 0, len(args))
	}
	return reflect.New(c.typ).Interface(), nil
}

// Meta returns the classInfo payload.
func (c *Class) Meta(rt *Runtime) ClassMeta {
	meta := ClassMeta{
		Name:        c.Name,
		Doc:         c.Doc,
		Consts:      c.consts,
		ConstNames:  sortedKeys(c.consts),
		IsAbstract:  c.abstract || c.isIface,
		IsInterface: c.isIface,
	}

	recv := c.receiverType()
	meta.Methods = c.methods(rt, recv)

	if !c.isIface {
		for _, f := range reflect.VisibleFields(c.typ) {
			if f.IsExported() && !f.Anonymous {
				meta.Properties = append(meta.Properties, f.Name)
			}
		}
		meta.Parent = c.parentName(rt)
	}

	for _, name := range rt.ClassNames() {
		other, err := rt.Class(name)
		if err != nil || !other.isIface || other.Name == c.Name {
			continue
		}
		if recv.Implements(other.typ) {
			meta.Interfaces = append(meta.Interfaces, other.Name)
		}
	}
	sort.Strings(meta.Interfaces)

	return meta
}

// receiverType is the type whose method set the class exposes: the pointer
// type for structs, the interface itself otherwise.
func (c *Class) receiverType() reflect.Type {
	if c.isIface {
		return c.typ
	}
	return reflect.PointerTo(c.typ)
}

func (c *Class) methods(rt *Runtime, recv reflect.Type) []MethodMeta {
	methods := make([]MethodMeta, 0, recv.NumMethod())
	for i := 0; i < recv.NumMethod(); i++ {
		m := recv.Method(i)
		if !m.IsExported() {
			continue
		}
		ft := m.Type
		params := make([]Param, 0)
		// Skip the receiver for struct methods; interface method types
		// carry no receiver.
		start := 0
		if !c.isIface {
			start = 1
		}
		for j := start; j < ft.NumIn(); j++ {
			variadic := ft.IsVariadic() && j == ft.NumIn()-1
			in := ft.In(j)
			if variadic {
				in = in.Elem()
			}
			params = append(params, Param{
				Name:     "arg" + fmt.Sprint(j-start),
				Type:     typeInfoFor(rt, in),
				Variadic: variadic,
			})
		}
		methods = append(methods, MethodMeta{
			Name:       m.Name,
			Doc:        c.methodDocs[m.Name],
			Owner:      c.Name,
			Params:     params,
			ReturnType: returnTypeOf(rt, ft),
		})
	}
	return methods
}

// parentName reports the registered class of an embedded struct field, the
// closest thing Go has to a parent class.
func (c *Class) parentName(rt *Runtime) string {
	for i := 0; i < c.typ.NumField(); i++ {
		f := c.typ.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if parent, ok := rt.ClassFor(ft); ok && parent.Name != c.Name {
			return parent.Name
		}
	}
	return ""
}
