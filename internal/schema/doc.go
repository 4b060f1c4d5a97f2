// Package schema validates node state against the per-type schema declared in
// a node manifest.
//
// A schema is a cty object type with per-attribute defaults and optionality.
// Conform converts an incoming state value to that type, filling defaults and
// rejecting unknown or missing attributes, so that a node's behavior can rely
// on its state having exactly the declared shape.
//
// The package also converts between cty values and plain Go values
// (map[string]any, []any, string, float64, bool), which is the form state
// takes on the wire and in YAML/JSON scene files.
package schema
