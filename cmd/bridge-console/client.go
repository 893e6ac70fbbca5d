package main

import (
	"encoding/json"
	"fmt"

	"github.com/wippyai/bridge-runtime/wire"
)

// client is the controlling side of a bridge session: one request out, one
// response back, in strict alternation.
type client struct {
	tr interface {
		Receive() ([]byte, error)
		Send(line []byte) error
	}
}

func (c *client) send(cmd string, data any) (wire.Value, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return wire.Value{}, err
	}
	line, err := json.Marshal(struct {
		Cmd  string          `json:"cmd"`
		Data json.RawMessage `json:"data"`
	}{Cmd: cmd, Data: raw})
	if err != nil {
		return wire.Value{}, err
	}
	if err := c.tr.Send(line); err != nil {
		return wire.Value{}, err
	}
	resp, err := c.tr.Receive()
	if err != nil {
		return wire.Value{}, err
	}
	var v wire.Value
	if err := json.Unmarshal(resp, &v); err != nil {
		return wire.Value{}, fmt.Errorf("malformed response %q: %w", resp, err)
	}
	if v.Tag == wire.TagException {
		return wire.Value{}, fmt.Errorf("%s: %s", v.Exception.Class, v.Exception.Message)
	}
	return v, nil
}

// funcNames fetches the callable names the session exposes.
func (c *client) funcNames() ([]string, error) {
	v, err := c.send("listFuns", nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		names = append(names, e.Value.Str)
	}
	return names, nil
}

// funcMeta is the slice of funcInfo the console renders.
type funcMeta struct {
	name       string
	doc        string
	returnType string
	params     []paramMeta
}

type paramMeta struct {
	name     string
	typeName string
	variadic bool
}

func (c *client) funcInfo(name string) (funcMeta, error) {
	v, err := c.send("funcInfo", name)
	if err != nil {
		return funcMeta{}, err
	}
	meta := funcMeta{name: name}
	for _, e := range v.Entries {
		switch e.Key.Str {
		case "doc":
			if e.Value.Tag == wire.TagString {
				meta.doc = e.Value.Str
			}
		case "returnType":
			meta.returnType = typeName(e.Value)
		case "params":
			for _, pe := range e.Value.Entries {
				meta.params = append(meta.params, parseParam(pe.Value))
			}
		}
	}
	return meta, nil
}

func parseParam(v wire.Value) paramMeta {
	p := paramMeta{typeName: "mixed"}
	for _, e := range v.Entries {
		switch e.Key.Str {
		case "name":
			p.name = e.Value.Str
		case "type":
			if t := typeName(e.Value); t != "" {
				p.typeName = t
			}
		case "variadic":
			p.variadic = e.Value.Bool
		}
	}
	return p
}

func typeName(v wire.Value) string {
	if v.Tag != wire.TagArray {
		return ""
	}
	for _, e := range v.Entries {
		if e.Key.Str == "name" {
			return e.Value.Str
		}
	}
	return ""
}

// callFun invokes a function with raw console input, converting each
// argument by the declared parameter type.
func (c *client) callFun(meta funcMeta, raw []string) (wire.Value, error) {
	args := make([]any, 0, len(raw))
	for i, text := range raw {
		typeName := "mixed"
		if i < len(meta.params) {
			typeName = meta.params[i].typeName
		}
		args = append(args, convertArg(text, typeName))
	}
	return c.send("callFun", map[string]any{"name": meta.name, "args": args})
}

// repr asks the session to render a value for display.
func (c *client) repr(v wire.Value) (string, error) {
	out, err := c.send("repr", v)
	if err != nil {
		return "", err
	}
	return out.Str, nil
}

// convertArg builds the wire form of one console argument.
func convertArg(value, typeName string) map[string]any {
	switch typeName {
	case "int":
		var n int64
		fmt.Sscanf(value, "%d", &n)
		return map[string]any{"type": "integer", "value": n}
	case "float":
		var f float64
		fmt.Sscanf(value, "%g", &f)
		return map[string]any{"type": "double", "value": f}
	case "bool":
		return map[string]any{"type": "boolean", "value": value == "true" || value == "1"}
	default:
		return map[string]any{"type": "string", "value": value}
	}
}
