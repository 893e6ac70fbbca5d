// Package testbed holds end-to-end tests that drive a full session over an
// in-memory transport: a client goroutine speaking the wire protocol against
// a server goroutine running the dispatch loop.
package testbed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/wippyai/bridge-runtime/dispatch"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/transport"
	"github.com/wippyai/bridge-runtime/wire"
)

// gauge is a small stateful class exposed to sessions under test.
type gauge struct {
	Level int64
	Label string
}

func (g *gauge) Raise(by int64) int64 {
	g.Level += by
	return g.Level
}

func (g *gauge) Describe() string {
	return fmt.Sprintf("%s=%d", g.Label, g.Level)
}

// testClient is the controlling half of a session.
type testClient struct {
	t      *testing.T
	tr     *transport.Line
	cancel context.CancelFunc
	done   chan error
}

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt := runtime.New(runtime.WithEcho(io.Discard))
	if err := rt.RegisterBuiltins(); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	err := rt.RegisterClass("Gauge", (*gauge)(nil),
		runtime.WithConstructor(func(label string) *gauge {
			return &gauge{Label: label}
		}, "label"))
	if err != nil {
		t.Fatalf("register class: %v", err)
	}
	return rt
}

func startSession(t *testing.T) *testClient {
	t.Helper()
	rt := newRuntime(t)

	server, local := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		defer server.Close()
		done <- dispatch.NewSession(server, rt).Run(ctx)
	}()

	c := &testClient{t: t, tr: local, cancel: cancel, done: done}
	t.Cleanup(c.close)
	return c
}

func (c *testClient) close() {
	c.tr.Close()
	c.cancel()
}

// roundTrip sends one command and decodes the response line.
func (c *testClient) roundTrip(cmd string, data any) wire.Value {
	c.t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("marshal payload: %v", err)
	}
	line, err := json.Marshal(wire.Request{Cmd: cmd, Data: raw})
	if err != nil {
		c.t.Fatalf("marshal request: %v", err)
	}
	if err := c.tr.Send(line); err != nil {
		c.t.Fatalf("send: %v", err)
	}
	resp, err := c.tr.Receive()
	if err != nil {
		c.t.Fatalf("receive: %v", err)
	}
	var v wire.Value
	if err := json.Unmarshal(resp, &v); err != nil {
		c.t.Fatalf("malformed response %q: %v", resp, err)
	}
	return v
}

// call invokes a named function and fails the test on an exception response.
func (c *testClient) call(name string, args ...any) wire.Value {
	c.t.Helper()
	v := c.roundTrip("callFun", map[string]any{"name": name, "args": encodeArgs(args)})
	if v.Tag == wire.TagException {
		c.t.Fatalf("%s raised %s: %s", name, v.Exception.Class, v.Exception.Message)
	}
	return v
}

func encodeArgs(args []any) []map[string]any {
	out := make([]map[string]any, len(args))
	for i, a := range args {
		out[i] = encodeScalar(a)
	}
	return out
}

func encodeScalar(v any) map[string]any {
	switch v := v.(type) {
	case nil:
		return map[string]any{"type": "NULL", "value": nil}
	case bool:
		return map[string]any{"type": "boolean", "value": v}
	case int:
		return map[string]any{"type": "integer", "value": v}
	case int64:
		return map[string]any{"type": "integer", "value": v}
	case float64:
		return map[string]any{"type": "double", "value": v}
	case string:
		return map[string]any{"type": "string", "value": v}
	default:
		panic(fmt.Sprintf("unsupported scalar %T", v))
	}
}

func TestSessionCallBuiltin(t *testing.T) {
	c := startSession(t)

	v := c.call("strtoupper", "bridge")
	if v.Tag != wire.TagString || v.Str != "BRIDGE" {
		t.Errorf("strtoupper = %+v, want BRIDGE", v)
	}

	v = c.call("str_repeat", "ab", 3)
	if v.Str != "ababab" {
		t.Errorf("str_repeat = %q, want ababab", v.Str)
	}
}

func TestSessionConstRoundTrip(t *testing.T) {
	c := startSession(t)

	v := c.roundTrip("setConst", map[string]any{
		"name":  "LIMIT",
		"value": encodeScalar(int64(10)),
	})
	if v.Tag == wire.TagException {
		t.Fatalf("setConst raised %s", v.Exception.Class)
	}

	v = c.roundTrip("getConst", "LIMIT")
	if v.Tag != wire.TagInteger || v.Int != 10 {
		t.Errorf("getConst = %+v, want 10", v)
	}

	v = c.roundTrip("getConst", "MISSING")
	if v.Tag != wire.TagException || v.Exception.Class != "NameError" {
		t.Errorf("missing constant = %+v, want NameError", v)
	}
}

func TestSessionObjectAcrossRequests(t *testing.T) {
	c := startSession(t)

	obj := c.roundTrip("createObject", map[string]any{
		"name": "Gauge",
		"args": encodeArgs([]any{"load"}),
	})
	if obj.Tag != wire.TagObject {
		t.Fatalf("createObject = %+v, want object handle", obj)
	}

	objVal := map[string]any{"type": "object", "value": obj.Handle}
	v := c.roundTrip("callMethod", map[string]any{
		"obj":  objVal,
		"name": "Raise",
		"args": encodeArgs([]any{int64(4)}),
	})
	if v.Tag != wire.TagInteger || v.Int != 4 {
		t.Fatalf("Raise(4) = %+v, want 4", v)
	}

	// State persists on the handle between requests.
	v = c.roundTrip("callMethod", map[string]any{
		"obj":  objVal,
		"name": "Raise",
		"args": encodeArgs([]any{int64(3)}),
	})
	if v.Int != 7 {
		t.Errorf("second Raise = %+v, want 7", v)
	}

	v = c.roundTrip("getProperty", map[string]any{"obj": objVal, "name": "Label"})
	if v.Str != "load" {
		t.Errorf("Label = %+v, want load", v)
	}

	v = c.roundTrip("str", objVal)
	if v.Tag == wire.TagException {
		t.Errorf("str raised %s: %s", v.Exception.Class, v.Exception.Message)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a := startSession(t)
	b := startSession(t)

	obj := a.roundTrip("createObject", map[string]any{
		"name": "Gauge",
		"args": encodeArgs([]any{"a"}),
	})
	if obj.Tag != wire.TagObject {
		t.Fatalf("createObject = %+v", obj)
	}

	// The handle belongs to session a's store only.
	v := b.roundTrip("str", map[string]any{"type": "object", "value": obj.Handle})
	if v.Tag != wire.TagException || v.Exception.Class != "HandleNotFoundError" {
		t.Errorf("foreign handle = %+v, want HandleNotFoundError", v)
	}
}

func TestSessionSurvivesExceptions(t *testing.T) {
	c := startSession(t)

	v := c.roundTrip("callFun", map[string]any{"name": "no_such_fn", "args": []any{}})
	if v.Tag != wire.TagException {
		t.Fatalf("unknown function = %+v, want exception", v)
	}

	v = c.roundTrip("throw", encodeScalar("boom"))
	if v.Tag != wire.TagException {
		t.Fatalf("throw = %+v, want exception", v)
	}

	// The loop keeps serving after both failures.
	v = c.call("strlen", "four")
	if v.Int != 4 {
		t.Errorf("strlen after errors = %+v, want 4", v)
	}
}

func TestSessionExit(t *testing.T) {
	c := startSession(t)

	v := c.roundTrip("callFun", map[string]any{
		"name": "exit",
		"args": encodeArgs([]any{int64(0)}),
	})
	if v.Tag != wire.TagNull {
		t.Errorf("exit response = %+v, want NULL", v)
	}

	if err := <-c.done; err != nil {
		t.Errorf("session ended with %v, want nil", err)
	}
}

func TestSessionClientDisconnect(t *testing.T) {
	c := startSession(t)

	c.tr.Close()
	if err := <-c.done; err != nil {
		t.Errorf("session ended with %v after disconnect, want nil", err)
	}
}

func TestConcurrentSessions(t *testing.T) {
	const sessions = 5
	const callsPerSession = 20

	var wg sync.WaitGroup
	errs := make(chan error, sessions)

	for s := 0; s < sessions; s++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			rt := runtime.New(runtime.WithEcho(io.Discard))
			if err := rt.RegisterBuiltins(); err != nil {
				errs <- err
				return
			}
			server, local := transport.Pipe()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				defer server.Close()
				dispatch.NewSession(server, rt).Run(ctx)
			}()
			defer local.Close()

			for i := 0; i < callsPerSession; i++ {
				line, _ := json.Marshal(map[string]any{
					"cmd": "callFun",
					"data": map[string]any{
						"name": "abs",
						"args": encodeArgs([]any{int64(-(id + i))}),
					},
				})
				if err := local.Send(line); err != nil {
					errs <- err
					return
				}
				resp, err := local.Receive()
				if err != nil {
					errs <- err
					return
				}
				var v wire.Value
				if err := json.Unmarshal(resp, &v); err != nil {
					errs <- err
					return
				}
				if v.Tag != wire.TagInteger || v.Int != int64(id+i) {
					errs <- fmt.Errorf("abs(-%d) = %+v", id+i, v)
					return
				}
			}
		}(s)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent session: %v", err)
	}
}

func TestEvalWasm(t *testing.T) {
	bin, err := os.ReadFile("hello.wasm")
	if err != nil {
		t.Skipf("hello.wasm not found: %v", err)
	}

	c := startSession(t)
	v := c.call("eval", base64.StdEncoding.EncodeToString(bin))
	if v.Tag != wire.TagString {
		t.Errorf("eval = %+v, want captured stdout string", v)
	}
}

func BenchmarkSessionCall(b *testing.B) {
	rt := runtime.New(runtime.WithEcho(io.Discard))
	if err := rt.RegisterBuiltins(); err != nil {
		b.Fatal(err)
	}
	server, local := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer server.Close()
		dispatch.NewSession(server, rt).Run(ctx)
	}()
	defer local.Close()

	line, _ := json.Marshal(map[string]any{
		"cmd": "callFun",
		"data": map[string]any{
			"name": "strtoupper",
			"args": []map[string]any{{"type": "string", "value": "bench"}},
		},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := local.Send(line); err != nil {
			b.Fatal(err)
		}
		if _, err := local.Receive(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSessionRepr(b *testing.B) {
	rt := runtime.New(runtime.WithEcho(io.Discard))
	if err := rt.RegisterBuiltins(); err != nil {
		b.Fatal(err)
	}
	server, local := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer server.Close()
		dispatch.NewSession(server, rt).Run(ctx)
	}()
	defer local.Close()

	line, _ := json.Marshal(map[string]any{
		"cmd":  "repr",
		"data": map[string]any{"type": "double", "value": 2.5},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := local.Send(line); err != nil {
			b.Fatal(err)
		}
		if _, err := local.Receive(); err != nil {
			b.Fatal(err)
		}
	}
}
