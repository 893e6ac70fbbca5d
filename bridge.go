package bridgeruntime

// Transport carries newline-framed request and response lines between the
// controlling process and the runtime side. Receive blocks until a full line
// is available and reports stream closure with an error satisfying
// errors.IsConnectionLost.
type Transport interface {
	Receive() ([]byte, error)
	Send(line []byte) error
}

// Resource is a heap value addressed by an integer identity, kept in an
// identity space disjoint from object handles. Open files and sockets are
// typical implementations.
type Resource interface {
	ResourceKind() string
	ResourceID() int
}

// Iterator yields one key/value pair per call and reports ok=false once
// exhausted. Implementations must keep returning ok=false after exhaustion.
type Iterator func() (key any, value any, ok bool)

// Iterable lets a registered type drive the startIteration/nextIteration
// command pair with its own traversal order.
type Iterable interface {
	Iterate() Iterator
}

// Indexable lets a registered type implement the item access commands
// directly instead of going through reflection on maps and slices.
type Indexable interface {
	HasItem(key any) bool
	GetItem(key any) (any, error)
	SetItem(key, value any) error
	DelItem(key any) error
}

// Countable overrides the count command for a registered type.
type Countable interface {
	Count() int
}
