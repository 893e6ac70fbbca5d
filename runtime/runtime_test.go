package runtime

import (
	"bytes"
	"context"
	"testing"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

func TestConstDefineAndRedefine(t *testing.T) {
	rt := New()
	if err := rt.DefineConst("ANSWER", int64(42)); err != nil {
		t.Fatalf("DefineConst: %v", err)
	}
	v, err := rt.Const("ANSWER")
	if err != nil {
		t.Fatalf("Const: %v", err)
	}
	if v != int64(42) {
		t.Fatalf("Const = %v, want 42", v)
	}
	if err := rt.DefineConst("ANSWER", int64(7)); err == nil {
		t.Fatal("redefining a constant should fail")
	}
	if _, err := rt.Const("MISSING"); err == nil {
		t.Fatal("missing constant should fail")
	}
}

func TestGlobalsCollection(t *testing.T) {
	rt := New()
	if err := rt.SetGlobal("b", int64(2)); err != nil {
		t.Fatal(err)
	}
	if err := rt.SetGlobal("a", int64(1)); err != nil {
		t.Fatal(err)
	}

	if err := rt.SetGlobal(GlobalsName, int64(0)); err == nil {
		t.Fatal("GLOBALS should not be assignable")
	}

	v, err := rt.Global(GlobalsName)
	if err != nil {
		t.Fatalf("Global(GLOBALS): %v", err)
	}
	arr, ok := v.(*bridge.Array)
	if !ok {
		t.Fatalf("GLOBALS should be an array, got %T", v)
	}
	keys := arr.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("GLOBALS keys = %v", keys)
	}
	for _, k := range keys {
		if k == GlobalsName {
			t.Fatal("GLOBALS must not contain itself")
		}
	}
}

func TestRegisterFuncAndCall(t *testing.T) {
	rt := New()
	err := rt.RegisterFunc("add", func(a, b int64) int64 { return a + b },
		WithParams("a", "b"))
	if err != nil {
		t.Fatal(err)
	}

	f, ok := rt.Func("add")
	if !ok {
		t.Fatal("add not found")
	}
	got, err := f.Call(rt, []any{int64(2), int64(3)})
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(5) {
		t.Fatalf("add = %v, want 5", got)
	}

	if _, err := f.Call(rt, []any{int64(1)}); err == nil {
		t.Fatal("arity mismatch should fail")
	}

	if err := rt.RegisterFunc("add", func() {}); err == nil {
		t.Fatal("redefining a function should fail")
	}
}

func TestFuncErrorBecomesThrown(t *testing.T) {
	rt := New()
	if err := rt.RegisterFunc("boom", func() (int64, error) {
		return 0, errors.Thrown("DomainException", "nope")
	}); err != nil {
		t.Fatal(err)
	}
	f, _ := rt.Func("boom")
	_, err := f.Call(rt, nil)
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindThrown {
		t.Fatalf("want thrown error, got %v", err)
	}
	if e.Class != "DomainException" {
		t.Fatalf("class = %q", e.Class)
	}
}

func TestFuncDefaults(t *testing.T) {
	rt := New()
	err := rt.RegisterFunc("greet", func(name, greeting string) string {
		return greeting + ", " + name
	}, WithParams("name", "greeting"), WithDefault("greeting", "hello"))
	if err != nil {
		t.Fatal(err)
	}
	f, _ := rt.Func("greet")
	got, err := f.Call(rt, []any{"world"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello, world" {
		t.Fatalf("got %q", got)
	}
}

func TestResolvePrecedence(t *testing.T) {
	rt := New()
	if err := rt.RegisterBuiltins(); err != nil {
		t.Fatal(err)
	}
	rt.DefineConst("strlen", int64(1))
	rt.SetGlobal("gv", "g")

	cases := []struct {
		name string
		kind ResolutionKind
	}{
		{"strlen", ResolvedConst},
		{"substr", ResolvedFunction},
		{"echo", ResolvedFunction},
		{"gv", ResolvedGlobal},
		{"nothing", ResolvedNone},
	}
	for _, tc := range cases {
		if got := rt.Resolve(tc.name).Kind; got != tc.kind {
			t.Errorf("Resolve(%q) = %s, want %s", tc.name, got, tc.kind)
		}
	}
}

func TestFuncNamesIncludeConstructs(t *testing.T) {
	rt := New()
	rt.RegisterFunc("zeta", func() {})
	names := rt.FuncNames()
	var hasEcho, hasZeta bool
	for _, n := range names {
		if n == "echo" {
			hasEcho = true
		}
		if n == "zeta" {
			hasZeta = true
		}
	}
	if !hasEcho || !hasZeta {
		t.Fatalf("FuncNames = %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestEchoAndPrintConstructs(t *testing.T) {
	var sink bytes.Buffer
	rt := New(WithEcho(&sink))

	echo, ok := rt.Construct("echo")
	if !ok {
		t.Fatal("echo construct missing")
	}
	if _, err := echo(context.Background(), rt, []any{"a", int64(1), true}); err != nil {
		t.Fatal(err)
	}
	if sink.String() != "a11" {
		t.Fatalf("echo wrote %q", sink.String())
	}

	sink.Reset()
	print, _ := rt.Construct("print")
	got, err := print(context.Background(), rt, []any{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(1) || sink.String() != "x" {
		t.Fatalf("print = %v, wrote %q", got, sink.String())
	}
}

func TestExitConstruct(t *testing.T) {
	rt := New(WithEcho(&bytes.Buffer{}))
	exit, _ := rt.Construct("exit")
	_, err := exit(context.Background(), rt, []any{int64(3)})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("want ExitError, got %v", err)
	}
	if ee.Status != 3 {
		t.Fatalf("status = %d", ee.Status)
	}

	die, _ := rt.Construct("die")
	_, err = die(context.Background(), rt, nil)
	if !errors.As(err, &ee) || ee.Status != 0 {
		t.Fatalf("die: %v", err)
	}
}

func TestCastConstructs(t *testing.T) {
	rt := New()
	ctx := context.Background()

	call := func(name string, arg any) any {
		t.Helper()
		c, ok := rt.Construct(name)
		if !ok {
			t.Fatalf("construct %q missing", name)
		}
		v, err := c(ctx, rt, []any{arg})
		if err != nil {
			t.Fatalf("%s(%v): %v", name, arg, err)
		}
		return v
	}

	if got := call("intCast", "42abc"); got != int64(42) {
		t.Errorf("intCast(42abc) = %v", got)
	}
	if got := call("intCast", true); got != int64(1) {
		t.Errorf("intCast(true) = %v", got)
	}
	if got := call("intCast", 3.9); got != int64(3) {
		t.Errorf("intCast(3.9) = %v", got)
	}
	if got := call("floatCast", "1.5rest"); got != 1.5 {
		t.Errorf("floatCast(1.5rest) = %v", got)
	}
	if got := call("boolCast", "0"); got != false {
		t.Errorf("boolCast(\"0\") = %v", got)
	}
	if got := call("boolCast", ""); got != false {
		t.Errorf("boolCast(\"\") = %v", got)
	}
	if got := call("boolCast", "false"); got != true {
		t.Errorf("boolCast(\"false\") = %v", got)
	}
	if got := call("stringCast", 2.0); got != "2" {
		t.Errorf("stringCast(2.0) = %v", got)
	}
	if got := call("stringCast", bridge.ListArray(int64(1))); got != "Array" {
		t.Errorf("stringCast(array) = %v", got)
	}

	arr := call("arrayCast", "solo")
	a, ok := arr.(*bridge.Array)
	if !ok || a.Len() != 1 {
		t.Fatalf("arrayCast(solo) = %v", arr)
	}
}

func TestBuiltins(t *testing.T) {
	rt := New()
	if err := rt.RegisterBuiltins(); err != nil {
		t.Fatal(err)
	}
	call := func(name string, args ...any) any {
		t.Helper()
		f, ok := rt.Func(name)
		if !ok {
			t.Fatalf("builtin %q missing", name)
		}
		v, err := f.Call(rt, args)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return v
	}

	if got := call("strlen", "hello"); got != int64(5) {
		t.Errorf("strlen = %v", got)
	}
	if got := call("strtoupper", "abc"); got != "ABC" {
		t.Errorf("strtoupper = %v", got)
	}
	if got := call("str_repeat", "ab", int64(3)); got != "ababab" {
		t.Errorf("str_repeat = %v", got)
	}
	if got := call("substr", "abcdef", int64(-2)); got != "ef" {
		t.Errorf("substr = %v", got)
	}
	if got := call("substr", "abcdef", int64(1), int64(2)); got != "bc" {
		t.Errorf("substr with length = %v", got)
	}
	if got := call("max", int64(3), int64(9), int64(4)); got != int64(9) {
		t.Errorf("max = %v", got)
	}
	if got := call("min", bridge.ListArray(int64(4), int64(2), int64(8))); got != int64(2) {
		t.Errorf("min over array = %v", got)
	}
	if got := call("abs", int64(-7)); got != int64(7) {
		t.Errorf("abs = %v", got)
	}
	if got := call("pow", float64(2), float64(10)); got != float64(1024) {
		t.Errorf("pow = %v", got)
	}

	flip := call("array_flip", func() *bridge.Array {
		a := bridge.NewArray()
		a.Set(bridge.StringKey("first"), int64(10))
		a.Set(bridge.StringKey("second"), "x")
		return a
	}()).(*bridge.Array)
	if v, _ := flip.Get(bridge.IntKey(10)); v != "first" {
		t.Errorf("flip[10] = %v", v)
	}
	if v, _ := flip.Get(bridge.StringKey("x")); v != "second" {
		t.Errorf("flip[x] = %v", v)
	}

	rev := call("array_reverse", bridge.ListArray("a", "b", "c")).(*bridge.Array)
	if vals := rev.Values(); vals[0] != "c" || vals[2] != "a" {
		t.Errorf("array_reverse = %v", vals)
	}
}

func TestStr(t *testing.T) {
	rt := New()
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "1"},
		{false, ""},
		{int64(12), "12"},
	}
	for _, tc := range cases {
		if got := rt.Str(tc.in); got != tc.want {
			t.Errorf("Str(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
