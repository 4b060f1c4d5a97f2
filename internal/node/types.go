package node

import (
	"context"
	"slices"

	"github.com/vk/aether/internal/schema"
)

// Kind distinguishes nodes that can own children from those that cannot.
type Kind int

const (
	// Leaf nodes have no children.
	Leaf Kind = iota
	// Composite nodes own a set of typed children.
	Composite
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a node.
type Status int

const (
	// Uninitialized nodes have been allocated but have not completed their
	// first successful update.
	Uninitialized Status = iota
	// Live nodes are attached to the tree and receive updates.
	Live
	// Deleted is terminal. A deleted node performs no further work.
	Deleted
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Live:
		return "live"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// AnyChild is the capability entry that allows every child type.
const AnyChild = "*"

// Behavior implements the lifecycle hooks of one node type. Every node owns
// its own Behavior value, which holds all of the node's private working
// state.
type Behavior interface {
	// Update runs after the node's state was replaced, and after any update
	// to one of its descendants. It may read inherited context values,
	// publish values for descendants and request renders.
	Update(ctx context.Context, n *Node, c *Context) error
	// Delete runs once, after the node was marked deleted and all of its
	// descendants were deleted. It releases resources the node owns.
	Delete(ctx context.Context, n *Node, c *Context) error
}

// TypeInfo is everything the tree needs to know about a node type in order
// to create and validate nodes of that type.
type TypeInfo struct {
	Name     string
	Kind     Kind
	Children []string
	Schema   *schema.Object
	New      func() Behavior
}

// Allows reports whether a composite of this type may own a child of the
// given type.
func (ti *TypeInfo) Allows(childType string) bool {
	if ti.Kind != Composite {
		return false
	}
	return slices.Contains(ti.Children, AnyChild) || slices.Contains(ti.Children, childType)
}

// NopBehavior is a Behavior whose hooks do nothing.
type NopBehavior struct{}

func (NopBehavior) Update(context.Context, *Node, *Context) error { return nil }
func (NopBehavior) Delete(context.Context, *Node, *Context) error { return nil }
