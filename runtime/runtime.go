package runtime

import (
	"io"
	"os"
	"reflect"
	"sort"
	"sync"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// GlobalsName is the synthetic global holding the collection of all
// globals. Reading it yields every global except itself.
const GlobalsName = "GLOBALS"

// Runtime is the registry of everything one session can see.
type Runtime struct {
	mu          sync.RWMutex
	consts      map[string]any
	globals     map[string]any
	funcs       map[string]*Func
	classes     map[string]*Class
	classByType map[reflect.Type]*Class
	constructs  map[string]Construct
	echo        io.Writer
	includeRoot string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithEcho directs the output constructs (echo, print) to w. The default is
// stderr: the response stream tolerates no stray bytes.
func WithEcho(w io.Writer) Option {
	return func(rt *Runtime) { rt.echo = w }
}

// WithIncludeRoot allows the include/require constructs to load .wasm files
// under dir. Without it they fail.
func WithIncludeRoot(dir string) Option {
	return func(rt *Runtime) { rt.includeRoot = dir }
}

// New returns an empty runtime with the construct proxies installed.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		consts:      make(map[string]any),
		globals:     make(map[string]any),
		funcs:       make(map[string]*Func),
		classes:     make(map[string]*Class),
		classByType: make(map[reflect.Type]*Class),
		echo:        os.Stderr,
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.constructs = builtinConstructs()
	return rt
}

// Echo returns the writer the output constructs print to.
func (rt *Runtime) Echo() io.Writer {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.echo
}

// DefineConst defines a named constant. Redefinition is an error.
func (rt *Runtime) DefineConst(name string, value any) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, ok := rt.consts[name]; ok {
		return errors.New(errors.PhaseResolve, errors.KindRedefined).
			Detail("constant %q already defined", name).Build()
	}
	rt.consts[name] = value
	return nil
}

// Const returns a constant's current value.
func (rt *Runtime) Const(name string) (any, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	v, ok := rt.consts[name]
	if !ok {
		return nil, errors.NameNotFound(errors.PhaseResolve, "constant", name)
	}
	return v, nil
}

// SetGlobal stores a global. The synthetic GLOBALS collection cannot be
// assigned.
func (rt *Runtime) SetGlobal(name string, value any) error {
	if name == GlobalsName {
		return errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
			Detail("%s cannot be assigned", GlobalsName).Build()
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.globals[name] = value
	return nil
}

// Global returns a global's current value. Reading GLOBALS yields an array
// of every global, excluding GLOBALS itself to avoid infinite
// self-reference.
func (rt *Runtime) Global(name string) (any, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if name == GlobalsName {
		all := bridge.NewArray()
		for _, n := range sortedKeys(rt.globals) {
			all.Set(bridge.StringKey(n), rt.globals[n])
		}
		return all, nil
	}

	v, ok := rt.globals[name]
	if !ok {
		return nil, errors.NameNotFound(errors.PhaseResolve, "global", name)
	}
	return v, nil
}

// ConstNames returns the defined constant names, sorted.
func (rt *Runtime) ConstNames() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return sortedKeys(rt.consts)
}

// GlobalNames returns the defined global names, sorted. GLOBALS is not a
// stored global and is not listed.
func (rt *Runtime) GlobalNames() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return sortedKeys(rt.globals)
}

// FuncNames returns every callable name: registered functions plus the
// construct proxies, sorted, without duplicates.
func (rt *Runtime) FuncNames() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	seen := make(map[string]struct{}, len(rt.funcs)+len(rt.constructs))
	for n := range rt.funcs {
		seen[n] = struct{}{}
	}
	for n := range rt.constructs {
		seen[n] = struct{}{}
	}
	return sortedKeys(seen)
}

// ClassNames returns the registered class and interface names, sorted.
func (rt *Runtime) ClassNames() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return sortedKeys(rt.classes)
}

// Func returns a registered function by name.
func (rt *Runtime) Func(name string) (*Func, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	f, ok := rt.funcs[name]
	return f, ok
}

// Construct returns a construct proxy by name.
func (rt *Runtime) Construct(name string) (Construct, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	c, ok := rt.constructs[name]
	return c, ok
}

// Class returns a registered class by name.
func (rt *Runtime) Class(name string) (*Class, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	c, ok := rt.classes[name]
	if !ok {
		return nil, errors.NameNotFound(errors.PhaseResolve, "class", name)
	}
	return c, nil
}

// ClassFor returns the registered class for a Go type, following one level
// of pointer indirection.
func (rt *Runtime) ClassFor(t reflect.Type) (*Class, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if c, ok := rt.classByType[t]; ok {
		return c, true
	}
	if t != nil && t.Kind() == reflect.Pointer {
		if c, ok := rt.classByType[t.Elem()]; ok {
			return c, true
		}
	}
	return nil, false
}

// ObjectClassName returns the display class name for a value: the
// registered name when there is one, the Go type string otherwise.
func (rt *Runtime) ObjectClassName(v any) string {
	t := reflect.TypeOf(v)
	if c, ok := rt.ClassFor(t); ok {
		return c.Name
	}
	if t == nil {
		return "NULL"
	}
	return t.String()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
