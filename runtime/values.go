package runtime

import (
	"fmt"
	"reflect"
	"sort"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// HasItem reports whether a container holds the given key.
func (rt *Runtime) HasItem(container any, key any) (bool, error) {
	switch c := container.(type) {
	case *bridge.Array:
		k, err := arrayKey(key)
		if err != nil {
			return false, err
		}
		return c.Has(k), nil
	case bridge.Indexable:
		return c.HasItem(key), nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		kv, err := coerceValue(rt, rv.Type().Key(), key, "key")
		if err != nil {
			return false, err
		}
		return rv.MapIndex(kv).IsValid(), nil
	case reflect.Slice, reflect.String:
		i, ok := key.(int64)
		if !ok {
			return false, nil
		}
		return i >= 0 && int(i) < rv.Len(), nil
	}
	return false, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		GoType(rt.ObjectClassName(container)).
		Detail("value does not support item access").Build()
}

// GetItem reads one element of a container.
func (rt *Runtime) GetItem(container any, key any) (any, error) {
	switch c := container.(type) {
	case *bridge.Array:
		k, err := arrayKey(key)
		if err != nil {
			return nil, err
		}
		v, ok := c.Get(k)
		if !ok {
			return nil, missingKey(key)
		}
		return v, nil
	case bridge.Indexable:
		return c.GetItem(key)
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		kv, err := coerceValue(rt, rv.Type().Key(), key, "key")
		if err != nil {
			return nil, err
		}
		ev := rv.MapIndex(kv)
		if !ev.IsValid() {
			return nil, missingKey(key)
		}
		return ev.Interface(), nil
	case reflect.Slice:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) >= rv.Len() {
			return nil, missingKey(key)
		}
		return rv.Index(int(i)).Interface(), nil
	case reflect.String:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) >= rv.Len() {
			return nil, missingKey(key)
		}
		return rv.String()[i : i+1], nil
	}
	return nil, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		GoType(rt.ObjectClassName(container)).
		Detail("value does not support item access").Build()
}

// SetItem writes one element of a container.
func (rt *Runtime) SetItem(container any, key any, value any) error {
	switch c := container.(type) {
	case *bridge.Array:
		k, err := arrayKey(key)
		if err != nil {
			return err
		}
		c.Set(k, value)
		return nil
	case bridge.Indexable:
		return c.SetItem(key, value)
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		kv, err := coerceValue(rt, rv.Type().Key(), key, "key")
		if err != nil {
			return err
		}
		ev, err := coerceValue(rt, rv.Type().Elem(), value, "value")
		if err != nil {
			return err
		}
		rv.SetMapIndex(kv, ev)
		return nil
	case reflect.Slice:
		i, ok := key.(int64)
		if !ok || i < 0 || int(i) >= rv.Len() {
			return missingKey(key)
		}
		ev, err := coerceValue(rt, rv.Type().Elem(), value, "value")
		if err != nil {
			return err
		}
		rv.Index(int(i)).Set(ev)
		return nil
	}
	return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		GoType(rt.ObjectClassName(container)).
		Detail("value does not support item assignment").Build()
}

// DelItem removes one element of a container.
func (rt *Runtime) DelItem(container any, key any) error {
	switch c := container.(type) {
	case *bridge.Array:
		k, err := arrayKey(key)
		if err != nil {
			return err
		}
		if !c.Delete(k) {
			return missingKey(key)
		}
		return nil
	case bridge.Indexable:
		return c.DelItem(key)
	}
	rv := reflect.ValueOf(container)
	if rv.Kind() == reflect.Map {
		kv, err := coerceValue(rt, rv.Type().Key(), key, "key")
		if err != nil {
			return err
		}
		if !rv.MapIndex(kv).IsValid() {
			return missingKey(key)
		}
		rv.SetMapIndex(kv, reflect.Value{})
		return nil
	}
	return errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		GoType(rt.ObjectClassName(container)).
		Detail("value does not support item deletion").Build()
}

// Count reports the element count of a value.
func (rt *Runtime) Count(v any) (int, error) {
	switch c := v.(type) {
	case *bridge.Array:
		return c.Len(), nil
	case bridge.Countable:
		return c.Count(), nil
	case string:
		return len(c), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	}
	return 0, errors.NotCountable(rt.ObjectClassName(v))
}

// Str renders a value the way string conversion does: fmt.Stringer wins,
// scalars use their canonical text form, everything else goes through
// fmt.Sprintf %v.
func (rt *Runtime) Str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "1"
		}
		return ""
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}
	return fmt.Sprintf("%v", v)
}

// Cursor walks a container one element at a time. Cursors are single-pass
// and are owned by the session that started them.
type Cursor struct {
	next bridge.Iterator
}

// Next yields the following key/value pair, or ok=false once the cursor is
// exhausted.
func (c *Cursor) Next() (key any, value any, ok bool) {
	return c.next()
}

// NewCursor starts iteration over a container. Arrays iterate in insertion
// order, maps in sorted key order, slices by index.
func (rt *Runtime) NewCursor(container any) (*Cursor, error) {
	switch c := container.(type) {
	case *bridge.Array:
		pairs := c.Pairs()
		i := 0
		return &Cursor{next: func() (any, any, bool) {
			if i >= len(pairs) {
				return nil, nil, false
			}
			p := pairs[i]
			i++
			return p.Key.Native(), p.Value, true
		}}, nil
	case bridge.Iterable:
		return &Cursor{next: c.Iterate()}, nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Slice:
		i := 0
		return &Cursor{next: func() (any, any, bool) {
			if i >= rv.Len() {
				return nil, nil, false
			}
			k, v := int64(i), rv.Index(i).Interface()
			i++
			return k, v, true
		}}, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(a, b int) bool {
			return fmt.Sprint(keys[a].Interface()) < fmt.Sprint(keys[b].Interface())
		})
		i := 0
		return &Cursor{next: func() (any, any, bool) {
			for i < len(keys) {
				k := keys[i]
				i++
				ev := rv.MapIndex(k)
				if !ev.IsValid() {
					continue
				}
				return k.Interface(), ev.Interface(), true
			}
			return nil, nil, false
		}}, nil
	case reflect.String:
		s := rv.String()
		i := 0
		return &Cursor{next: func() (any, any, bool) {
			if i >= len(s) {
				return nil, nil, false
			}
			k, v := int64(i), s[i:i+1]
			i++
			return k, v, true
		}}, nil
	}
	return nil, errors.NotIterable(rt.ObjectClassName(container))
}

func arrayKey(key any) (bridge.Key, error) {
	switch k := key.(type) {
	case int64:
		return bridge.IntKey(k), nil
	case int:
		return bridge.IntKey(int64(k)), nil
	case string:
		return bridge.StringKey(k), nil
	case bool:
		if k {
			return bridge.IntKey(1), nil
		}
		return bridge.IntKey(0), nil
	case nil:
		return bridge.StringKey(""), nil
	case float64:
		return bridge.IntKey(int64(k)), nil
	}
	return bridge.Key{}, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		Detail("%T cannot be used as an array key", key).Build()
}

func missingKey(key any) error {
	return errors.New(errors.PhaseCall, errors.KindNameNotFound).
		Class("KeyError").
		Detail("no such key: %v", key).Build()
}
