package node

import (
	"fmt"
	"maps"

	"github.com/zclconf/go-cty/cty"
)

// Context is the pass-scoped channel through which a node reads values
// published by its ancestors and publishes values for its descendants.
//
// A fresh Context is built right before each hook runs. Its inherited values
// are a shallow copy of what the node's ancestors published; values set on it
// are visible only to the node's descendants, never to the node itself, its
// siblings or its ancestors.
type Context struct {
	inherited map[string]any
	published map[string]any
	changed   bool
}

// NewContext builds a Context over the given inherited values. The map is
// copied.
func NewContext(inherited map[string]any) *Context {
	return &Context{
		inherited: maps.Clone(inherited),
		published: make(map[string]any),
	}
}

// Get returns the inherited value for key, or ErrMissingContextValue.
func (c *Context) Get(key string) (any, error) {
	v, ok := c.inherited[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingContextValue, key)
	}
	return v, nil
}

// GetOptional returns the inherited value for key and whether it exists.
func (c *Context) GetOptional(key string) (any, bool) {
	v, ok := c.inherited[key]
	return v, ok
}

// Has reports whether an ancestor published key. Values the node itself
// sets are not included.
func (c *Context) Has(key string) bool {
	_, ok := c.inherited[key]
	return ok
}

// Set publishes a value to the node's descendants and marks the context as
// changed, so descendants re-run with the new value.
func (c *Context) Set(key string, value any) {
	c.published[key] = value
	c.changed = true
}

// SetQuiet publishes a value without triggering a re-run of descendants.
// They observe it the next time they update for another reason.
func (c *Context) SetQuiet(key string, value any) {
	c.published[key] = value
}

// SetPreviously reports whether the node set key during this hook.
func (c *Context) SetPreviously(key string) bool {
	_, ok := c.published[key]
	return ok
}

// Changed reports whether any value was published with Set.
func (c *Context) Changed() bool { return c.changed }

// Published returns the values set during this hook.
func (c *Context) Published() map[string]any { return c.published }

// ChildValues returns the values a child of this node inherits: the node's
// inherited values overlaid with what it published.
func (c *Context) ChildValues() map[string]any {
	return Overlay(c.inherited, c.published)
}

// Overlay returns a new map holding base overlaid with top.
func Overlay(base, top map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(top))
	maps.Copy(out, base)
	maps.Copy(out, top)
	return out
}

// StateSetterKey is the context key under which the tree publishes its
// StateSetter to every node.
const StateSetterKey = "tree.state"

// StateSetter replaces a node's own state from inside the engine. The new
// state is validated against the node's schema and reported to the UI side.
type StateSetter interface {
	SetState(n *Node, state cty.Value) error
}

// SetOwnState replaces n's state through the StateSetter published in c.
func SetOwnState(c *Context, n *Node, state cty.Value) error {
	s, err := ContextValue[StateSetter](c, StateSetterKey)
	if err != nil {
		return err
	}
	return s.SetState(n, state)
}

// ContextValue returns the inherited value for key as a T.
func ContextValue[T any](c *Context, key string) (T, error) {
	var zero T
	v, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrContextValueType, key, v, zero)
	}
	return tv, nil
}

// OptionalContextValue returns the inherited value for key as a T, and false
// if it is absent or of another type.
func OptionalContextValue[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.GetOptional(key)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}
