// Package codec converts between Go values and their wire form, allocating
// object and resource handles through the store on the way out and
// resolving them on the way in.
package codec

import (
	"fmt"
	"reflect"
	"sort"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/store"
	"github.com/wippyai/bridge-runtime/wire"
)

// Codec encodes runtime values for the wire and decodes wire values back.
// Encoding an object or resource allocates a handle as a side effect.
type Codec struct {
	Store   *store.Store
	Runtime *runtime.Runtime
}

// New builds a codec over a store and a runtime.
func New(st *store.Store, rt *runtime.Runtime) *Codec {
	return &Codec{Store: st, Runtime: rt}
}

// Encode converts a Go value to its wire form.
func (c *Codec) Encode(v any) (wire.Value, error) {
	switch x := v.(type) {
	case nil:
		return wire.Null(), nil
	case bool:
		return wire.Boolean(x), nil
	case int64:
		return wire.Integer(x), nil
	case int:
		return wire.Integer(int64(x)), nil
	case int8:
		return wire.Integer(int64(x)), nil
	case int16:
		return wire.Integer(int64(x)), nil
	case int32:
		return wire.Integer(int64(x)), nil
	case uint:
		return wire.Integer(int64(x)), nil
	case uint8:
		return wire.Integer(int64(x)), nil
	case uint16:
		return wire.Integer(int64(x)), nil
	case uint32:
		return wire.Integer(int64(x)), nil
	case uint64:
		return wire.Integer(int64(x)), nil
	case float64:
		return wire.Double(x), nil
	case float32:
		return wire.Double(float64(x)), nil
	case string:
		return wire.String(x), nil
	case []byte:
		return wire.String(string(x)), nil
	case *bridge.Array:
		return c.encodeArray(x)
	case bridge.Resource:
		return wire.ResourceRef(c.Store.EncodeResource(x)), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		entries := make([]wire.Entry, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := c.Encode(rv.Index(i).Interface())
			if err != nil {
				return wire.Value{}, err
			}
			entries = append(entries, wire.Entry{Key: bridge.IntKey(int64(i)), Value: ev})
		}
		return wire.Array(entries), nil
	case reflect.Map:
		return c.encodeMap(rv)
	case reflect.Pointer, reflect.Struct, reflect.Func, reflect.Interface:
		return wire.Object(c.Store.EncodeObject(v)), nil
	}
	return wire.Value{}, errors.Unencodable(fmt.Sprintf("%T", v), v)
}

// EncodeError converts an error into the thrownException wire form.
func (c *Codec) EncodeError(err error) wire.Value {
	return wire.Thrown(errors.ExceptionName(err), errors.Message(err))
}

func (c *Codec) encodeArray(a *bridge.Array) (wire.Value, error) {
	pairs := a.Pairs()
	entries := make([]wire.Entry, 0, len(pairs))
	for _, p := range pairs {
		ev, err := c.Encode(p.Value)
		if err != nil {
			return wire.Value{}, err
		}
		entries = append(entries, wire.Entry{Key: p.Key, Value: ev})
	}
	return wire.Array(entries), nil
}

// encodeMap renders a Go map as an ordered array. Maps have no iteration
// order of their own, so keys are sorted for a stable wire form.
func (c *Codec) encodeMap(rv reflect.Value) (wire.Value, error) {
	type kv struct {
		key bridge.Key
		val reflect.Value
	}
	items := make([]kv, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return wire.Value{}, err
		}
		items = append(items, kv{key: k, val: iter.Value()})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].key, items[j].key
		if a.IsInt != b.IsInt {
			return a.IsInt
		}
		if a.IsInt {
			return a.Int < b.Int
		}
		return a.Str < b.Str
	})

	entries := make([]wire.Entry, 0, len(items))
	for _, it := range items {
		ev, err := c.Encode(it.val.Interface())
		if err != nil {
			return wire.Value{}, err
		}
		entries = append(entries, wire.Entry{Key: it.key, Value: ev})
	}
	return wire.Array(entries), nil
}

func mapKey(kv reflect.Value) (bridge.Key, error) {
	switch kv.Kind() {
	case reflect.String:
		return bridge.StringKey(kv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return bridge.IntKey(kv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return bridge.IntKey(int64(kv.Uint())), nil
	case reflect.Interface:
		return mapKey(kv.Elem())
	}
	return bridge.Key{}, errors.Unencodable(kv.Type().String(), kv.Interface())
}

// Decode converts a wire value back to its Go form. Handles resolve
// through the store; unknown handles and unknown tags fail.
func (c *Codec) Decode(v wire.Value) (any, error) {
	switch v.Tag {
	case wire.TagInteger:
		return v.Int, nil
	case wire.TagDouble:
		return v.Float, nil
	case wire.TagString:
		return v.Str, nil
	case wire.TagBoolean:
		return v.Bool, nil
	case wire.TagNull:
		return nil, nil
	case wire.TagArray:
		out := bridge.NewArray()
		for _, e := range v.Entries {
			dv, err := c.Decode(e.Value)
			if err != nil {
				return nil, err
			}
			out.Set(e.Key, dv)
		}
		return out, nil
	case wire.TagObject:
		return c.Store.DecodeObject(v.Handle)
	case wire.TagResource:
		return c.Store.DecodeResource(v.Resource)
	case wire.TagException:
		// Older clients smuggle exceptions inside values instead of
		// raising them; surface that as an error here.
		if v.Exception == nil {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("thrownException without a payload").Build()
		}
		return nil, errors.Thrown(v.Exception.Class, v.Exception.Message)
	}
	return nil, errors.UnknownTag(string(v.Tag))
}

// DecodeList decodes a wire array into a positional argument slice,
// ignoring keys.
func (c *Codec) DecodeList(v wire.Value) ([]any, error) {
	if v.Tag == wire.TagNull {
		return nil, nil
	}
	if v.Tag != wire.TagArray {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("expected an array, got %s", v.Tag).Build()
	}
	out := make([]any, 0, len(v.Entries))
	for _, e := range v.Entries {
		dv, err := c.Decode(e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, dv)
	}
	return out, nil
}
