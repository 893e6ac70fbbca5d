package wire

import (
	"encoding/json"

	bridge "github.com/wippyai/bridge-runtime"
)

// Tag discriminates the wire value union.
type Tag string

const (
	TagInteger   Tag = "integer"
	TagDouble    Tag = "double"
	TagString    Tag = "string"
	TagBoolean   Tag = "boolean"
	TagNull      Tag = "NULL"
	TagArray     Tag = "array"
	TagObject    Tag = "object"
	TagResource  Tag = "resource"
	TagException Tag = "thrownException"
)

// Entry is one key/value element of an array value.
type Entry struct {
	Key   bridge.Key
	Value Value
}

// Exception is the payload of a thrownException value.
type Exception struct {
	Class   string `json:"type"`
	Message string `json:"message"`
}

// Value is the tagged union sent over the transport. Exactly the field
// selected by Tag is meaningful.
type Value struct {
	Tag       Tag
	Int       int64
	Float     float64
	Str       string
	Bool      bool
	Entries   []Entry
	Handle    string // object handle
	Resource  int    // resource handle
	Exception *Exception
}

// Integer returns an integer value.
func Integer(i int64) Value { return Value{Tag: TagInteger, Int: i} }

// Double returns a double value. Non-finite floats are legal and serialize
// as their dedicated string forms.
func Double(f float64) Value { return Value{Tag: TagDouble, Float: f} }

// String returns a string value.
func String(s string) Value { return Value{Tag: TagString, Str: s} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Tag: TagBoolean, Bool: b} }

// Null returns the NULL value.
func Null() Value { return Value{Tag: TagNull} }

// Array returns an array value with the given entries.
func Array(entries []Entry) Value { return Value{Tag: TagArray, Entries: entries} }

// List returns an array value with values under keys 0..n-1.
func List(values ...Value) Value {
	entries := make([]Entry, len(values))
	for i, v := range values {
		entries[i] = Entry{Key: bridge.IntKey(int64(i)), Value: v}
	}
	return Array(entries)
}

// Object returns an object value referencing a store handle.
func Object(handle string) Value { return Value{Tag: TagObject, Handle: handle} }

// ResourceRef returns a resource value referencing a store handle.
func ResourceRef(id int) Value { return Value{Tag: TagResource, Resource: id} }

// Thrown returns a thrownException value.
func Thrown(class, message string) Value {
	return Value{Tag: TagException, Exception: &Exception{Class: class, Message: message}}
}

// Sequential reports whether an array value's keys are exactly 0..n-1.
func (v Value) Sequential() bool {
	for i, e := range v.Entries {
		if !e.Key.IsInt || e.Key.Int != int64(i) {
			return false
		}
	}
	return true
}

// Request is the envelope of one command: {"cmd": name, "data": payload}.
// Data stays raw; each command decodes it against its own declared shape.
type Request struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}
