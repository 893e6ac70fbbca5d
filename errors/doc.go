// Package errors provides structured error types for the bridge.
//
// Every error carries a Phase (where in processing it occurred) and a Kind
// (what went wrong), plus optional detail, path, offending value, and cause.
// The dispatcher turns any error raised while decoding a request, executing
// a command, or encoding its result into a thrownException response;
// ExceptionName and Message derive the wire exception class and message.
//
// Only connection-lost errors escape the dispatch loop, because a closed
// stream leaves no channel to respond on.
package errors
