package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := New(PhaseEncode, KindUnencodable).
		Path("args", "0").
		GoType("chan int").
		Detail("no wire representation").
		Build()

	msg := err.Error()
	for _, want := range []string{"[encode]", "unencodable", "args.0", "chan int", "no wire representation"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := New(PhaseCall, KindThrown).Cause(cause).Build()
	if err.Unwrap() != cause {
		t.Fatal("Unwrap lost the cause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Fatalf("Error() = %q, missing cause", err.Error())
	}
}

func TestExceptionName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Unencodable("chan int", nil), "EncodingError"},
		{UnknownTag("blob"), "DecodingError"},
		{New(PhaseEncode, KindInvalidData).Build(), "EncodingError"},
		{HandleNotFound("deadbeef"), "HandleNotFoundError"},
		{NameNotFound(PhaseResolve, "constant", "X"), "NameError"},
		{AttributeMissing("Point", "z"), "AttributeError"},
		{NotCountable("int64"), "TypeError"},
		{NotIterable("bool"), "TypeError"},
		{InvalidCursor(7), "TypeError"},
		{Thrown("ValueError", "bad input"), "ValueError"},
		{fmt.Errorf("plain"), "RuntimeError"},
	}

	for _, tt := range tests {
		if got := ExceptionName(tt.err); got != tt.want {
			t.Errorf("ExceptionName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	if got := Message(Thrown("ValueError", "bad input")); got != "bad input" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(fmt.Errorf("plain")); got != "plain" {
		t.Fatalf("Message = %q", got)
	}
	wrapped := New(PhaseCall, KindThrown).Detail("call failed").Cause(fmt.Errorf("boom")).Build()
	if got := Message(wrapped); got != "call failed: boom" {
		t.Fatalf("Message = %q", got)
	}
}

func TestIsConnectionLost(t *testing.T) {
	if !IsConnectionLost(ConnectionLost(nil)) {
		t.Fatal("ConnectionLost not detected")
	}
	if IsConnectionLost(UnknownTag("x")) {
		t.Fatal("UnknownTag should not end the session")
	}
	wrapped := fmt.Errorf("receive: %w", ConnectionLost(nil))
	if !IsConnectionLost(wrapped) {
		t.Fatal("wrapped ConnectionLost not detected")
	}
}
