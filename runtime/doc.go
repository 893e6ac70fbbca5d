// Package runtime is the surface the bridge exposes to the controlling
// process: named constants, mutable globals, callable functions, classes,
// and a fixed set of construct proxies.
//
// Go has no enumerable global scope, so the surface is an explicit
// registry. The embedding program registers what it wants to expose before
// serving; the command set only ever reads and writes process state through
// this registry and never caches values across calls.
//
// # Functions and classes
//
// Registered functions are ordinary Go funcs called through reflection,
// with wire arguments coerced to the parameter types. A trailing error
// return is translated into a thrown exception. Classes are registered Go
// struct types; exported fields are their properties and the pointer method
// set supplies their methods. Interface registrations are reported as
// interfaces and cannot be instantiated.
//
// # Construct proxies
//
// Some operations of the bridge dialect are not ordinary callables: output
// (echo, print), session exit, foreign code execution (eval, include,
// require, all taking WebAssembly since the runtime side is compiled Go),
// and type casts. They are exposed as a fixed, enumerable set of pseudo-functions so
// the call and reflection commands can treat them uniformly. A registered
// function always shadows a construct of the same name.
package runtime
