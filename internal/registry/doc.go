// Package registry provides the central "glue" for the module system.
//
// The Registry maps the behavior names used in node manifests (e.g., "Axis")
// to the compiled Go behaviors that implement them, and holds the parsed,
// format-agnostic type definitions from the manifests themselves.
//
// During application startup, the registry is populated and then validated to
// ensure that the Go code and the manifests are in sync: every referenced
// behavior exists, and every declared state attribute has a `cty`-tagged
// field of a compatible type in the behavior's state struct. After that the
// registry serves node type lookups to the tree.
package registry
