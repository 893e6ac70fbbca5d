package dispatch

import (
	"context"
	"encoding/json"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/wire"
)

func decodePayload(data json.RawMessage, into any) error {
	if err := json.Unmarshal(data, into); err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Cause(err).Detail("malformed command data").Build()
	}
	return nil
}

func decodeName(data json.RawMessage) (string, error) {
	var name string
	if err := decodePayload(data, &name); err != nil {
		return "", err
	}
	return name, nil
}

// decodeValue parses a raw wire value out of the command data and decodes
// it to its Go form.
func (s *Session) decodeValue(data json.RawMessage) (any, error) {
	var v wire.Value
	if err := decodePayload(data, &v); err != nil {
		return nil, err
	}
	return s.codec.Decode(v)
}

func (s *Session) decodeArgs(args []wire.Value) ([]any, error) {
	out := make([]any, 0, len(args))
	for _, a := range args {
		v, err := s.codec.Decode(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Session) encodeNames(names []string) (wire.Value, error) {
	vals := make([]any, len(names))
	for i, n := range names {
		vals[i] = n
	}
	return s.codec.Encode(bridge.ListArray(vals...))
}

func (s *Session) getConst(data json.RawMessage) (wire.Value, error) {
	name, err := decodeName(data)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.rt.Const(name)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(v)
}

func (s *Session) setConst(data json.RawMessage) (wire.Value, error) {
	var p nameValueData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	v, err := s.codec.Decode(p.Value)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.DefineConst(p.Name, v); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

func (s *Session) getGlobal(data json.RawMessage) (wire.Value, error) {
	name, err := decodeName(data)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.rt.Global(name)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(v)
}

func (s *Session) setGlobal(data json.RawMessage) (wire.Value, error) {
	var p nameValueData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	v, err := s.codec.Decode(p.Value)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.SetGlobal(p.Name, v); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

// callFun runs a registered function, falling back to a construct proxy of
// the same name.
func (s *Session) callFun(ctx context.Context, data json.RawMessage) (wire.Value, error) {
	var p namedCallData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	args, err := s.decodeArgs(p.Args)
	if err != nil {
		return wire.Value{}, err
	}

	if f, ok := s.rt.Func(p.Name); ok {
		result, err := f.Call(s.rt, args)
		if err != nil {
			return wire.Value{}, err
		}
		return s.codec.Encode(result)
	}
	if c, ok := s.rt.Construct(p.Name); ok {
		result, err := c(ctx, s.rt, args)
		if err != nil {
			return wire.Value{}, err
		}
		return s.codec.Encode(result)
	}
	return wire.Value{}, errors.NameNotFound(errors.PhaseResolve, "function", p.Name)
}

func (s *Session) createObject(data json.RawMessage) (wire.Value, error) {
	var p namedCallData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	c, err := s.rt.Class(p.Name)
	if err != nil {
		return wire.Value{}, err
	}
	args, err := s.decodeArgs(p.Args)
	if err != nil {
		return wire.Value{}, err
	}
	obj, err := c.New(s.rt, args)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(obj)
}

func (s *Session) callObj(data json.RawMessage) (wire.Value, error) {
	var p objCallData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	obj, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	args, err := s.decodeArgs(p.Args)
	if err != nil {
		return wire.Value{}, err
	}
	result, err := s.rt.CallValue(obj, args)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(result)
}

func (s *Session) callMethod(data json.RawMessage) (wire.Value, error) {
	var p methodCallData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	obj, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	args, err := s.decodeArgs(p.Args)
	if err != nil {
		return wire.Value{}, err
	}
	result, err := s.rt.CallMethod(obj, p.Name, args)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(result)
}

func (s *Session) hasItem(data json.RawMessage) (wire.Value, error) {
	container, key, err := s.decodeItemPair(data)
	if err != nil {
		return wire.Value{}, err
	}
	ok, err := s.rt.HasItem(container, key)
	if err != nil {
		return wire.Value{}, err
	}
	return wire.Boolean(ok), nil
}

func (s *Session) getItem(data json.RawMessage) (wire.Value, error) {
	container, key, err := s.decodeItemPair(data)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.rt.GetItem(container, key)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(v)
}

func (s *Session) setItem(data json.RawMessage) (wire.Value, error) {
	var p itemValueData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	container, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	key, err := s.codec.Decode(p.Offset)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.codec.Decode(p.Value)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.SetItem(container, key, v); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

func (s *Session) delItem(data json.RawMessage) (wire.Value, error) {
	container, key, err := s.decodeItemPair(data)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.DelItem(container, key); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

func (s *Session) decodeItemPair(data json.RawMessage) (container any, key any, err error) {
	var p itemData
	if err := decodePayload(data, &p); err != nil {
		return nil, nil, err
	}
	container, err = s.codec.Decode(p.Obj)
	if err != nil {
		return nil, nil, err
	}
	key, err = s.codec.Decode(p.Offset)
	if err != nil {
		return nil, nil, err
	}
	return container, key, nil
}

func (s *Session) getProperty(data json.RawMessage) (wire.Value, error) {
	var p propertyData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	obj, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.rt.GetProperty(obj, p.Name)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(v)
}

func (s *Session) setProperty(data json.RawMessage) (wire.Value, error) {
	var p propertyValueData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	obj, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	v, err := s.codec.Decode(p.Value)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.SetProperty(obj, p.Name, v); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

func (s *Session) unsetProperty(data json.RawMessage) (wire.Value, error) {
	var p propertyData
	if err := decodePayload(data, &p); err != nil {
		return wire.Value{}, err
	}
	obj, err := s.codec.Decode(p.Obj)
	if err != nil {
		return wire.Value{}, err
	}
	if err := s.rt.UnsetProperty(obj, p.Name); err != nil {
		return wire.Value{}, err
	}
	return wire.Null(), nil
}

func (s *Session) listProperties(data json.RawMessage) (wire.Value, error) {
	obj, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	return s.encodeNames(s.rt.Properties(obj))
}

func (s *Session) listNonDefaultProperties(data json.RawMessage) (wire.Value, error) {
	obj, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	return s.encodeNames(s.rt.NonDefaultProperties(obj))
}

func (s *Session) resolveName(data json.RawMessage) (wire.Value, error) {
	name, err := decodeName(data)
	if err != nil {
		return wire.Value{}, err
	}
	res := s.rt.Resolve(name)
	out := bridge.NewArray()
	out.Set(bridge.StringKey("kind"), string(res.Kind))
	if res.HasValue {
		out.Set(bridge.StringKey("value"), res.Value)
	}
	return s.codec.Encode(out)
}

func (s *Session) reprValue(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	return wire.String(s.repr.Render(v)), nil
}

func (s *Session) strValue(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	return wire.String(s.rt.Str(v)), nil
}

func (s *Session) count(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	n, err := s.rt.Count(v)
	if err != nil {
		return wire.Value{}, err
	}
	return wire.Integer(int64(n)), nil
}

// startIteration opens a cursor over a container and hands back its
// handle. The cursor lives in the object store like any other object.
func (s *Session) startIteration(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	cur, err := s.rt.NewCursor(v)
	if err != nil {
		return wire.Value{}, err
	}
	return s.codec.Encode(cur)
}

// nextIteration advances a cursor and returns [hasMore, key, value].
// Exhausted cursors keep answering [false, null, null].
func (s *Session) nextIteration(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	cur, ok := v.(*runtime.Cursor)
	if !ok {
		return wire.Value{}, errors.InvalidCursor(v)
	}
	key, value, more := cur.Next()
	if !more {
		return wire.List(wire.Boolean(false), wire.Null(), wire.Null()), nil
	}
	kv, err := s.codec.Encode(key)
	if err != nil {
		return wire.Value{}, err
	}
	vv, err := s.codec.Encode(value)
	if err != nil {
		return wire.Value{}, err
	}
	return wire.List(wire.Boolean(true), kv, vv), nil
}

// throw raises a value as an exception: a decoded error value is raised
// as itself, anything else becomes a generic exception carrying its
// string form.
func (s *Session) throw(data json.RawMessage) (wire.Value, error) {
	v, err := s.decodeValue(data)
	if err != nil {
		return wire.Value{}, err
	}
	if e, ok := v.(error); ok {
		return wire.Value{}, e
	}
	return wire.Value{}, errors.Thrown("Exception", s.rt.Str(v))
}
