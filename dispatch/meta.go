package dispatch

import (
	"encoding/json"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/wire"
)

// classInfo reports the reflection metadata the proxy layer builds classes
// from. Absent docs and parent are false, not null, matching the wire
// dialect clients expect.
func (s *Session) classInfo(data json.RawMessage) (wire.Value, error) {
	name, err := decodeName(data)
	if err != nil {
		return wire.Value{}, err
	}
	c, err := s.rt.Class(name)
	if err != nil {
		return wire.Value{}, err
	}
	meta := c.Meta(s.rt)

	out := bridge.NewArray()
	out.Set(bridge.StringKey("name"), meta.Name)
	out.Set(bridge.StringKey("doc"), orFalse(meta.Doc))

	consts := bridge.NewArray()
	for _, cn := range meta.ConstNames {
		consts.Set(bridge.StringKey(cn), meta.Consts[cn])
	}
	out.Set(bridge.StringKey("consts"), consts)

	methods := bridge.NewArray()
	for _, m := range meta.Methods {
		methods.Set(bridge.StringKey(m.Name), methodArray(m))
	}
	out.Set(bridge.StringKey("methods"), methods)

	props := bridge.NewArray()
	for _, p := range meta.Properties {
		pa := bridge.NewArray()
		pa.Set(bridge.StringKey("name"), p)
		pa.Set(bridge.StringKey("doc"), false)
		props.Set(bridge.StringKey(p), pa)
	}
	out.Set(bridge.StringKey("properties"), props)

	interfaces := bridge.NewArray()
	for _, in := range meta.Interfaces {
		interfaces.Append(in)
	}
	out.Set(bridge.StringKey("interfaces"), interfaces)

	out.Set(bridge.StringKey("isAbstract"), meta.IsAbstract)
	out.Set(bridge.StringKey("isInterface"), meta.IsInterface)
	out.Set(bridge.StringKey("parent"), orFalse(meta.Parent))

	return s.codec.Encode(out)
}

// funcInfo reports a function's reflection metadata. Construct proxies
// report a single variadic untyped parameter.
func (s *Session) funcInfo(data json.RawMessage) (wire.Value, error) {
	name, err := decodeName(data)
	if err != nil {
		return wire.Value{}, err
	}

	if f, ok := s.rt.Func(name); ok {
		return s.codec.Encode(funcMetaArray(f.Meta(s.rt)))
	}
	if _, ok := s.rt.Construct(name); ok {
		meta := runtime.FuncMeta{
			Name:   name,
			Params: []runtime.Param{{Name: "args", Variadic: true}},
		}
		return s.codec.Encode(funcMetaArray(meta))
	}
	return wire.Value{}, errors.NameNotFound(errors.PhaseResolve, "function", name)
}

func funcMetaArray(meta runtime.FuncMeta) *bridge.Array {
	out := bridge.NewArray()
	out.Set(bridge.StringKey("name"), meta.Name)
	out.Set(bridge.StringKey("doc"), orFalse(meta.Doc))

	params := bridge.NewArray()
	for _, p := range meta.Params {
		params.Append(paramArray(p))
	}
	out.Set(bridge.StringKey("params"), params)
	out.Set(bridge.StringKey("returnType"), typeArray(meta.ReturnType))
	return out
}

func methodArray(m runtime.MethodMeta) *bridge.Array {
	out := bridge.NewArray()
	out.Set(bridge.StringKey("name"), m.Name)
	out.Set(bridge.StringKey("doc"), orFalse(m.Doc))
	out.Set(bridge.StringKey("static"), m.Static)
	out.Set(bridge.StringKey("owner"), m.Owner)

	params := bridge.NewArray()
	for _, p := range m.Params {
		params.Append(paramArray(p))
	}
	out.Set(bridge.StringKey("params"), params)
	out.Set(bridge.StringKey("returnType"), typeArray(m.ReturnType))
	return out
}

func paramArray(p runtime.Param) *bridge.Array {
	out := bridge.NewArray()
	out.Set(bridge.StringKey("name"), p.Name)
	out.Set(bridge.StringKey("type"), typeArray(p.Type))
	out.Set(bridge.StringKey("hasDefault"), p.HasDefault)
	if p.HasDefault {
		out.Set(bridge.StringKey("default"), p.Default)
	} else {
		out.Set(bridge.StringKey("default"), nil)
	}
	out.Set(bridge.StringKey("isOptional"), p.HasDefault || p.Variadic)
	out.Set(bridge.StringKey("variadic"), p.Variadic)
	return out
}

func typeArray(t *runtime.TypeInfo) any {
	if t == nil {
		return nil
	}
	out := bridge.NewArray()
	out.Set(bridge.StringKey("name"), t.Name)
	out.Set(bridge.StringKey("isClass"), t.IsClass)
	out.Set(bridge.StringKey("nullable"), t.Nullable)
	return out
}

// orFalse substitutes false for an absent string, the dialect's marker for
// "no value".
func orFalse(s string) any {
	if s == "" {
		return false
	}
	return s
}
