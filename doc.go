// Package bridgeruntime implements the runtime side of a line-oriented JSON
// object bridge: a controlling process drives this Go process over a pair of
// pipes, calling registered functions, constructing and mutating objects,
// iterating collections, and receiving structured exceptions.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bridgeruntime/       Root package with core interfaces and the Array type
//	├── dispatch/        Command dispatcher and the command catalogue
//	├── runtime/         The exposed surface: constants, globals, functions,
//	│                    classes, and construct proxies
//	├── codec/           Encoding between native Go values and wire values
//	├── wire/            The tagged {type, value} wire representation
//	├── store/           Handle tables keeping heap values alive and addressable
//	├── represent/       Depth-limited human-readable value rendering
//	├── transport/       Newline-delimited framing over byte streams
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Expose a function and serve the bridge on a transport:
//
//	rt := runtime.New()
//	rt.RegisterFunc("greet", func(name string) string {
//	    return "Hello, " + name + "!"
//	}, runtime.WithParams("name"))
//
//	sess := dispatch.NewSession(transport.Stdio(), rt)
//	if err := sess.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Protocol
//
// Each request is one newline-terminated JSON line naming a command and its
// payload; each response is one line carrying either the encoded result or a
// thrownException value. The protocol is strictly half-duplex: exactly one
// command is in flight at a time, and the session ends when the request
// stream closes.
//
// # Handles
//
// Values that cannot be copied onto the wire (objects, resources, iteration
// cursors) are assigned opaque handles. A handle always resolves to the value
// that produced it for the lifetime of the session. Handles are never
// released automatically, so long sessions grow without bound.
//
// # Thread Safety
//
// A Session is driven by a single goroutine. The handle tables are internally
// synchronized, but no component of this library supports concurrent
// in-flight commands.
package bridgeruntime
