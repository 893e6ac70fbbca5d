package runtime

import (
	"math"
	"strings"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// RegisterBuiltins installs the stock function set: the string and array
// helpers clients lean on before registering anything of their own.
func (rt *Runtime) RegisterBuiltins() error {
	regs := []struct {
		name string
		fn   any
		opts []FuncOption
	}{
		{"strlen", func(s string) int64 { return int64(len(s)) },
			[]FuncOption{WithDoc("Get string length"), WithParams("str")}},
		{"strtoupper", func(s string) string { return strings.ToUpper(s) },
			[]FuncOption{WithDoc("Make a string uppercase"), WithParams("str")}},
		{"strtolower", func(s string) string { return strings.ToLower(s) },
			[]FuncOption{WithDoc("Make a string lowercase"), WithParams("str")}},
		{"str_repeat", builtinStrRepeat,
			[]FuncOption{WithDoc("Repeat a string"), WithParams("str", "times")}},
		{"substr", builtinSubstr,
			[]FuncOption{WithDoc("Return part of a string"), WithParams("str", "offset", "length"), WithDefault("length", int64(-1))}},
		{"array_flip", builtinArrayFlip,
			[]FuncOption{WithDoc("Exchange all keys with their values"), WithParams("array")}},
		{"array_keys", func(a *bridge.Array) *bridge.Array { return bridge.ListArray(a.Keys()...) },
			[]FuncOption{WithDoc("Return all the keys of an array"), WithParams("array")}},
		{"array_values", func(a *bridge.Array) *bridge.Array { return bridge.ListArray(a.Values()...) },
			[]FuncOption{WithDoc("Return all the values of an array"), WithParams("array")}},
		{"array_reverse", builtinArrayReverse,
			[]FuncOption{WithDoc("Return an array with elements in reverse order"), WithParams("array")}},
		{"abs", builtinAbs,
			[]FuncOption{WithDoc("Absolute value"), WithParams("num")}},
		{"max", builtinMax,
			[]FuncOption{WithDoc("Find highest value"), WithParams("values")}},
		{"min", builtinMin,
			[]FuncOption{WithDoc("Find lowest value"), WithParams("values")}},
		{"sqrt", func(x float64) float64 { return math.Sqrt(x) },
			[]FuncOption{WithDoc("Square root"), WithParams("num")}},
		{"pow", func(base, exp float64) float64 { return math.Pow(base, exp) },
			[]FuncOption{WithDoc("Exponential expression"), WithParams("base", "exp")}},
	}
	for _, r := range regs {
		if err := rt.RegisterFunc(r.name, r.fn, r.opts...); err != nil {
			return err
		}
	}
	return nil
}

func builtinStrRepeat(s string, times int64) (string, error) {
	if times < 0 {
		return "", errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			Detail("str_repeat: times must be non-negative").Build()
	}
	return strings.Repeat(s, int(times)), nil
}

func builtinSubstr(s string, offset, length int64) string {
	n := int64(len(s))
	if offset < 0 {
		offset = n + offset
		if offset < 0 {
			offset = 0
		}
	}
	if offset >= n {
		return ""
	}
	end := n
	if length >= 0 && offset+length < n {
		end = offset + length
	}
	return s[offset:end]
}

func builtinArrayFlip(a *bridge.Array) (*bridge.Array, error) {
	out := bridge.NewArray()
	for _, p := range a.Pairs() {
		switch v := p.Value.(type) {
		case int64:
			out.Set(bridge.IntKey(v), p.Key.Native())
		case string:
			out.Set(bridge.StringKey(v), p.Key.Native())
		default:
			return nil, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
				Detail("array_flip: can only flip string and integer values").Build()
		}
	}
	return out, nil
}

func builtinArrayReverse(a *bridge.Array) *bridge.Array {
	pairs := a.Pairs()
	out := bridge.NewArray()
	for i := len(pairs) - 1; i >= 0; i-- {
		p := pairs[i]
		if p.Key.IsInt {
			out.Append(p.Value)
		} else {
			out.Set(p.Key, p.Value)
		}
	}
	return out
}

func builtinAbs(num any) (any, error) {
	switch x := num.(type) {
	case int64:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case float64:
		return math.Abs(x), nil
	}
	return nil, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
		Detail("abs: expected a number").Build()
}

func builtinMax(values ...any) (any, error) {
	return extreme("max", values, func(cmp float64) bool { return cmp > 0 })
}

func builtinMin(values ...any) (any, error) {
	return extreme("min", values, func(cmp float64) bool { return cmp < 0 })
}

// extreme scans for the winning value under take. A single array argument
// is scanned element-wise, matching the PHP calling convention.
func extreme(name string, values []any, take func(cmp float64) bool) (any, error) {
	if len(values) == 1 {
		if a, ok := values[0].(*bridge.Array); ok {
			values = a.Values()
		}
	}
	if len(values) == 0 {
		return nil, errors.ArityMismatch(name, 1, 0)
	}
	best := values[0]
	for _, v := range values[1:] {
		if take(numCompare(v, best)) {
			best = v
		}
	}
	return best, nil
}

func numCompare(a, b any) float64 {
	return numValue(a) - numValue(b)
}

func numValue(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return leadingFloat(x)
	}
	return 0
}
