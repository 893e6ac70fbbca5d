// Package wire defines the tagged {type, value} representation every value
// takes while crossing the transport, and its JSON form.
//
// Scalars travel by value. Arrays travel as ordered key/value sequences: a
// JSON list when the keys are exactly 0..n-1, a JSON object otherwise, with
// key order preserved in both directions. Objects and resources travel as
// opaque handles issued by the store. Exceptions travel as a value tagged
// thrownException.
//
// Two JSON-level rules matter for framing and fidelity. The encoder never
// emits an unescaped newline, because a line boundary is the only framing
// signal on the stream. Doubles always carry a fraction or exponent in
// their JSON text, and the non-finite values are spelled as the strings
// "NAN", "INF" and "-INF", so a round-tripped 2.0 stays a double and NaN
// survives a format that cannot represent it numerically.
package wire
