// Package clpl implements CLPL parsing and serializing.
//
// CLPL is a human-writable configuration language for hierarchical,
// annotated data. A document is an ordered set of pairs; every value can
// carry annotations, and keys may be reopened to add to a list or to a nested
// set of pairs.
//
//	# a basic CLPL document
//	name = "clpl"
//	@deprecated
//	port = 8080
//	tags [
//	  "config"
//	  "format"
//	]
//	tags + "lang"
//	server (
//	  host = 'localhost'
//	)
//	server > tls = yes <
//
// [Parse] reads a document into the model ([*Pairs] of annotated [Entry]
// values) and [Stringify] writes it back; the two are exact inverses for any
// indent between 0 and 6.
//
// Like the builtin json package, CLPL can automatically convert between Go types and CLPL values.
//
// For example, you could parse the above document into a struct defined in Go as:
//
//	type Example struct {
//	  Name string `clpl:"name"`
//	  Port int `clpl:"port"`
//	  Tags []string `clpl:"tags"`
//	  Server map[string]any `clpl:"server"`
//	}
//
//	example := Example{}
//	clpl.Unmarshal(data, &example)
//
// If your type implements the [encoding.TextMarshaler] and [encoding.TextUnmarshaler] then CLPL
// will use that to convert between text and your type.
//
// For finer control, [Transform] maps a document onto plain Go values with a
// [Transformer] of your choice, and [Gen] builds a document from Go values
// with a [Generator]. Integers that a double cannot hold exactly become
// bigints (written `123n`) in both directions.
package clpl
