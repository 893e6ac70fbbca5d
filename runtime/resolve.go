package runtime

// ResolutionKind names which namespace a name resolved into.
type ResolutionKind string

const (
	ResolvedConst    ResolutionKind = "const"
	ResolvedFunction ResolutionKind = "function"
	ResolvedClass    ResolutionKind = "class"
	ResolvedGlobal   ResolutionKind = "global"
	ResolvedNone     ResolutionKind = "none"
)

// Resolution is the result of a name lookup across namespaces. HasValue is
// set when the resolved entity carries a value worth returning directly.
type Resolution struct {
	Kind     ResolutionKind
	Value    any
	HasValue bool
}

// Resolve looks a bare name up across namespaces in fixed precedence:
// constants first, then functions and constructs, then classes, then
// globals.
func (rt *Runtime) Resolve(name string) Resolution {
	if v, err := rt.Const(name); err == nil {
		return Resolution{Kind: ResolvedConst, Value: v, HasValue: true}
	}
	if f, ok := rt.Func(name); ok {
		return Resolution{Kind: ResolvedFunction, Value: f}
	}
	if _, ok := rt.Construct(name); ok {
		return Resolution{Kind: ResolvedFunction}
	}
	if c, err := rt.Class(name); err == nil {
		return Resolution{Kind: ResolvedClass, Value: c}
	}
	if v, err := rt.Global(name); err == nil {
		return Resolution{Kind: ResolvedGlobal, Value: v, HasValue: true}
	}
	return Resolution{Kind: ResolvedNone}
}
