package runtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// Construct is a pseudo-function standing in for a language construct.
// Constructs are listed and called like functions but bypass reflection.
type Construct func(ctx context.Context, rt *Runtime, args []any) (any, error)

// ExitError is returned by the exit and die constructs. The session sends
// the response for the current command and then stops.
type ExitError struct {
	Status int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit(%d)", e.Status)
}

func builtinConstructs() map[string]Construct {
	return map[string]Construct{
		"echo":       constructEcho,
		"print":      constructPrint,
		"exit":       constructExit,
		"die":        constructExit,
		"eval":       constructEval,
		"include":    includeConstruct(false),
		"require":    includeConstruct(true),
		"intCast":    castConstruct("intCast", toInt),
		"floatCast":  castConstruct("floatCast", toFloat),
		"stringCast": castConstruct("stringCast", toString),
		"boolCast":   castConstruct("boolCast", toBool),
		"arrayCast":  castConstruct("arrayCast", toArray),
	}
}

func constructEcho(_ context.Context, rt *Runtime, args []any) (any, error) {
	for _, a := range args {
		if _, err := fmt.Fprint(rt.Echo(), rt.Str(a)); err != nil {
			return nil, errors.New(errors.PhaseCall, errors.KindConstruct).
				Cause(err).Detail("echo sink write failed").Build()
		}
	}
	return nil, nil
}

func constructPrint(ctx context.Context, rt *Runtime, args []any) (any, error) {
	if len(args) != 1 {
		return nil, errors.ArityMismatch("print", 1, len(args))
	}
	if _, err := constructEcho(ctx, rt, args); err != nil {
		return nil, err
	}
	return int64(1), nil
}

func constructExit(_ context.Context, rt *Runtime, args []any) (any, error) {
	status := 0
	if len(args) > 0 {
		switch s := args[0].(type) {
		case int64:
			status = int(s)
		case string:
			// exit("message") echoes the message and exits 0
			fmt.Fprint(rt.Echo(), s)
		}
	}
	return nil, &ExitError{Status: status}
}

func constructEval(ctx context.Context, rt *Runtime, args []any) (any, error) {
	if len(args) != 1 {
		return nil, errors.ArityMismatch("eval", 1, len(args))
	}
	src, ok := args[0].(string)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseCall, []string{"code"}, fmt.Sprintf("%T", args[0]), "string")
	}
	bin, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		return nil, errors.New(errors.PhaseCall, errors.KindConstruct).
			Cause(err).Detail("eval argument is not base64 wasm").Build()
	}
	return runWasm(ctx, bin)
}

func includeConstruct(required bool) Construct {
	name := "include"
	if required {
		name = "require"
	}
	return func(ctx context.Context, rt *Runtime, args []any) (any, error) {
		if len(args) != 1 {
			return nil, errors.ArityMismatch(name, 1, len(args))
		}
		rel, ok := args[0].(string)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseCall, []string{"path"}, fmt.Sprintf("%T", args[0]), "string")
		}
		path, err := rt.includePath(rel)
		if err != nil {
			return nil, err
		}
		bin, err := os.ReadFile(path)
		if err != nil {
			if !required && os.IsNotExist(err) {
				return false, nil
			}
			return nil, errors.New(errors.PhaseCall, errors.KindConstruct).
				Cause(err).Detail("%s: cannot read %q", name, rel).Build()
		}
		return runWasm(ctx, bin)
	}
}

// includePath resolves a module path against the include root, refusing
// escapes above it.
func (rt *Runtime) includePath(rel string) (string, error) {
	root := rt.includeRoot
	if root == "" {
		return "", errors.New(errors.PhaseCall, errors.KindConstruct).
			Detail("no include root configured").Build()
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(path, filepath.Clean(root)+string(filepath.Separator)) {
		return "", errors.New(errors.PhaseCall, errors.KindConstruct).
			Detail("path %q escapes the include root", rel).Build()
	}
	return path, nil
}

func castConstruct(name string, cast func(rt *Runtime, v any) (any, error)) Construct {
	return func(_ context.Context, rt *Runtime, args []any) (any, error) {
		if len(args) != 1 {
			return nil, errors.ArityMismatch(name, 1, len(args))
		}
		return cast(rt, args[0])
	}
}

func toInt(_ *Runtime, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return int64(0), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return int64(0), nil
		}
		return int64(x), nil
	case string:
		return leadingInt(x), nil
	case *bridge.Array:
		if x.Len() == 0 {
			return int64(0), nil
		}
		return int64(1), nil
	}
	return int64(1), nil
}

func toFloat(rt *Runtime, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return float64(0), nil
	case bool:
		if x {
			return float64(1), nil
		}
		return float64(0), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		return leadingFloat(x), nil
	}
	i, err := toInt(rt, v)
	if err != nil {
		return nil, err
	}
	return float64(i.(int64)), nil
}

func toString(rt *Runtime, v any) (any, error) {
	if _, ok := v.(*bridge.Array); ok {
		return "Array", nil
	}
	if f, ok := v.(float64); ok {
		return floatText(f), nil
	}
	return rt.Str(v), nil
}

func toBool(_ *Runtime, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		return x != "" && x != "0", nil
	case *bridge.Array:
		return x.Len() != 0, nil
	}
	return true, nil
}

func toArray(rt *Runtime, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return bridge.NewArray(), nil
	case *bridge.Array:
		return x, nil
	}
	if a, ok := rt.arrayOf(v); ok {
		return a, nil
	}
	return bridge.ListArray(v), nil
}

// leadingInt parses the numeric prefix of a string, PHP-style.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func leadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == 'e' || s[end] == 'E') {
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return 0
}

// floatText renders a float the way string conversion does: integral values
// lose the fraction.
func floatText(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}
