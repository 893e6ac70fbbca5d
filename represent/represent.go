// Package represent renders runtime values as human-readable one-line
// summaries for the repr command.
package represent

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/runtime"
)

// DefaultDepth is how many levels of nesting expand before collapsing to
// an opaque summary.
const DefaultDepth = 4

// Representer renders values. ConvertName, when set, rewrites class names
// before display so a consumer can map them into its own naming
// convention.
type Representer struct {
	Runtime     *runtime.Runtime
	Depth       int
	ConvertName func(string) string
}

// New builds a representer with the default depth.
func New(rt *runtime.Runtime) *Representer {
	return &Representer{Runtime: rt, Depth: DefaultDepth}
}

// Render produces the repr string for v.
func (r *Representer) Render(v any) string {
	depth := r.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	return r.render(v, depth)
}

func (r *Representer) render(v any, depth int) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return floatRepr(x)
	case string:
		return strconv.Quote(x)
	case *bridge.Array:
		return r.renderArray(x, depth)
	case bridge.Resource:
		return fmt.Sprintf("<%s resource id #%d>", x.ResourceKind(), x.ResourceID())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return r.renderSlice(rv, depth)
	case reflect.Map:
		return r.renderOpaqueMap(rv)
	}
	return r.renderObject(v, depth)
}

func floatRepr(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (r *Representer) renderArray(a *bridge.Array, depth int) string {
	if depth <= 1 {
		return fmt.Sprintf("[…%d items]", a.Len())
	}
	var b strings.Builder
	b.WriteByte('[')
	if a.Sequential() {
		for i, v := range a.Values() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.render(v, depth-1))
		}
	} else {
		for i, p := range a.Pairs() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.render(p.Key.Native(), depth-1))
			b.WriteString(": ")
			b.WriteString(r.render(p.Value, depth-1))
		}
	}
	b.WriteByte(']')
	return b.String()
}

func (r *Representer) renderSlice(rv reflect.Value, depth int) string {
	if depth <= 1 {
		return fmt.Sprintf("[…%d items]", rv.Len())
	}
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.render(rv.Index(i).Interface(), depth-1))
	}
	b.WriteByte(']')
	return b.String()
}

// renderOpaqueMap keeps maps terse: they have no stable order worth
// spelling out element by element.
func (r *Representer) renderOpaqueMap(rv reflect.Value) string {
	return fmt.Sprintf("<%s (%d entries)>", rv.Type().String(), rv.Len())
}

func (r *Representer) renderObject(v any, depth int) string {
	name := r.className(v)

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	if depth <= 1 || rv.Kind() != reflect.Struct {
		return fmt.Sprintf("<%s %s>", name, identity(v))
	}

	var props []string
	for _, f := range reflect.VisibleFields(rv.Type()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		props = append(props, f.Name+"="+r.render(rv.FieldByIndex(f.Index).Interface(), depth-1))
	}
	if len(props) == 0 {
		return fmt.Sprintf("<%s %s>", name, identity(v))
	}
	return fmt.Sprintf("<%s (%s)>", name, strings.Join(props, ", "))
}

func (r *Representer) className(v any) string {
	name := fmt.Sprintf("%T", v)
	if r.Runtime != nil {
		name = r.Runtime.ObjectClassName(v)
	}
	if r.ConvertName != nil {
		name = r.ConvertName(name)
	}
	return name
}

// identity renders a stable-enough identity marker for an object without
// expanding it.
func identity(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("0x%x", rv.Pointer())
	}
	return "instance"
}
