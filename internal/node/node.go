package node

import (
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Node is a single vertex of the tree.
type Node struct {
	// Key identifies the node among its siblings.
	Key string
	// Type names the TypeInfo governing this node. It never changes.
	Type string
	// Behavior holds the node's hooks and private working state.
	Behavior Behavior
	// Logger is tagged with the node's type and path.
	Logger *slog.Logger

	info      *TypeInfo
	id        ID
	parent    ID
	path      nodepath.Path
	state     cty.Value
	prevState cty.Value
	status    Status
	children  map[string]ID
	published map[string]any
	resolver  Resolver
}

// New allocates an uninitialized node of the given type. It is not part of
// any tree until a store binds it.
func New(info *TypeInfo, path nodepath.Path, parent ID, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Node{
		Key:       path.Last(),
		Type:      info.Name,
		info:      info,
		parent:    parent,
		path:      slices.Clone(path),
		state:     cty.NullVal(cty.DynamicPseudoType),
		prevState: cty.NullVal(cty.DynamicPseudoType),
		Logger:    logger.With("node", info.Name+"("+path.String()+")"),
	}
	if info.New != nil {
		n.Behavior = info.New()
	}
	if n.Behavior == nil {
		n.Behavior = NopBehavior{}
	}
	if info.Kind == Composite {
		n.children = make(map[string]ID)
	}
	return n
}

// Bind records the ID the store assigned to the node and the resolver used
// to look up its children.
func (n *Node) Bind(id ID, r Resolver) {
	n.id = id
	n.resolver = r
}

// ID returns the node's handle in the store.
func (n *Node) ID() ID { return n.id }

// Parent returns the ID of the owning composite; the root has the zero ID.
func (n *Node) Parent() ID { return n.parent }

// Path returns the path from the root to this node.
func (n *Node) Path() nodepath.Path { return n.path }

// RenderKey is the key under which the node submits render requests. The
// tree cancels requests under this key when the node is deleted.
func (n *Node) RenderKey() string { return n.path.String() }

// Info returns the node's type information.
func (n *Node) Info() *TypeInfo { return n.info }

// Kind returns whether the node is a Leaf or a Composite.
func (n *Node) Kind() Kind { return n.info.Kind }

// IsLeaf reports whether the node cannot own children.
func (n *Node) IsLeaf() bool { return n.info.Kind == Leaf }

// IsDeleted reports whether the node has been deleted.
func (n *Node) IsDeleted() bool { return n.status == Deleted }

// Status returns the node's lifecycle status.
func (n *Node) Status() Status { return n.status }

// State returns the node's current validated state.
func (n *Node) State() cty.Value { return n.state }

// PrevState returns the state before the most recent update. After the first
// update it equals State.
func (n *Node) PrevState() cty.Value { return n.prevState }

// SetState replaces the state, keeping the old value as the previous state.
// The returned function restores both.
func (n *Node) SetState(next cty.Value) (restore func()) {
	oldState, oldPrev := n.state, n.prevState
	if n.status == Uninitialized {
		n.prevState = next
	} else {
		n.prevState = n.state
	}
	n.state = next
	return func() {
		n.state, n.prevState = oldState, oldPrev
	}
}

// MarkLive transitions an uninitialized node to Live.
func (n *Node) MarkLive() {
	if n.status == Uninitialized {
		n.status = Live
	}
}

// MarkDeleted transitions the node to Deleted. It returns false if the node
// was already deleted.
func (n *Node) MarkDeleted() bool {
	if n.status == Deleted {
		return false
	}
	n.status = Deleted
	return true
}

// Attach adds a child ID under the given key.
func (n *Node) Attach(key string, id ID) {
	n.children[key] = id
}

// Detach removes the child with the given key.
func (n *Node) Detach(key string) {
	delete(n.children, key)
}

// Child returns the ID of the child with the given key.
func (n *Node) Child(key string) (ID, bool) {
	id, ok := n.children[key]
	return id, ok
}

// ChildKeys returns the keys of the node's children in sorted order.
func (n *Node) ChildKeys() []string {
	return slices.Sorted(maps.Keys(n.children))
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Children returns a lazy view of the node's children, ordered by key. When
// types are given, only children of those types are yielded. The sequence
// may be ranged over any number of times and always reflects the current
// children.
func (n *Node) Children(types ...string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n.resolver == nil {
			return
		}
		for _, key := range n.ChildKeys() {
			c, ok := n.resolver.Get(n.children[key])
			if !ok || c.IsDeleted() {
				continue
			}
			if len(types) > 0 && !slices.Contains(types, c.Type) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// ChildBehaviors yields the children of n whose Behavior has the Go type B,
// together with that behavior.
func ChildBehaviors[B Behavior](n *Node) iter.Seq2[*Node, B] {
	return func(yield func(*Node, B) bool) {
		for c := range n.Children() {
			b, ok := c.Behavior.(B)
			if !ok {
				continue
			}
			if !yield(c, b) {
				return
			}
		}
	}
}

// Published returns the values the node published during its most recent
// update hook.
func (n *Node) Published() map[string]any { return n.published }

// Publish replaces the node's published values.
func (n *Node) Publish(values map[string]any) { n.published = values }

// Decode decodes the node's state into target, which must be a pointer to a
// struct whose fields carry `cty` tags matching the state's attributes.
func (n *Node) Decode(target any) error {
	return gocty.FromCtyValue(n.state, target)
}

// DecodePrev decodes the previous state into target.
func (n *Node) DecodePrev(target any) error {
	return gocty.FromCtyValue(n.prevState, target)
}
