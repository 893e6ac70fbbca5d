// Package store implements the session-lifetime handle tables that keep
// heap values alive and addressable from the other side of the bridge.
//
// Objects and resources live in two disjoint identity spaces: objects get
// opaque string handles, resources are keyed by their own integer identity.
// The two tables are never merged, so an object and an unrelated resource
// can never alias the same handle by coincidence.
//
// Encoding is idempotent per identity: encoding the same comparable value
// twice returns the same handle without growing the table. A handle always
// resolves to exactly the value that produced it until the session ends.
//
// Nothing is removed automatically. Remove exists for explicit release, but
// the bridge never calls it; a long session's tables grow without bound.
// That is a deliberate trade-off, not a leak: collecting handles behind the
// caller's back would change observable identity semantics.
package store
