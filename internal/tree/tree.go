package tree

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
	"github.com/vk/aether/internal/nodestore"
	"github.com/zclconf/go-cty/cty"
)

// Tree is a scene graph rooted at a single composite node.
type Tree struct {
	store    nodestore.Store
	types    Types
	opts     Options
	observer Observer
	logger   *slog.Logger
	root     *node.Node
}

// New creates a tree and its root node. The root's update hook runs once
// with the seed context; if it fails, New fails.
func New(ctx context.Context, store nodestore.Store, types Types, opts Options) (*Tree, error) {
	if opts.RootKey == "" {
		opts.RootKey = DefaultRootKey
	}
	if opts.RootType == "" {
		opts.RootType = DefaultRootType
	}
	t := &Tree{}
	opts.Seed = node.Overlay(opts.Seed, map[string]any{node.StateSetterKey: node.StateSetter(t)})
	*t = Tree{
		store:    store,
		types:    types,
		opts:     opts,
		observer: opts.Observer,
		logger:   ctxlog.FromContext(ctx),
	}
	if t.observer == nil {
		t.observer = nopObserver{}
	}

	info, err := types.Lookup(opts.RootType)
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	if info.Kind != node.Composite {
		return nil, fmt.Errorf("root: type %q is not a composite", info.Name)
	}
	state, err := conformState(info, cty.NullVal(cty.DynamicPseudoType))
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}

	root := node.New(info, nodepath.Path{opts.RootKey}, node.ID{}, t.logger)
	root.SetState(state)
	id := store.Insert(root)
	if _, err := t.update(ctx, newPass(), root, opts.Seed); err != nil {
		store.Release(id)
		return nil, fmt.Errorf("root: %w", err)
	}
	root.MarkLive()
	t.root = root
	t.logger.Debug("Tree created.", "root", root.Key, "type", root.Type, "mode", opts.Mode)
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *node.Node { return t.root }

// Mode returns the failure mode the tree was created with.
func (t *Tree) Mode() Mode { return t.opts.Mode }

// Len returns the number of nodes in the tree, the root included.
func (t *Tree) Len() int { return t.store.Len() }

// Lookup resolves an ID to a live node.
func (t *Tree) Lookup(id node.ID) (*node.Node, bool) {
	n, ok := t.store.Get(id)
	if !ok || n.IsDeleted() {
		return nil, false
	}
	return n, true
}

// Get resolves a path to an existing node.
func (t *Tree) Get(path nodepath.Path) (*node.Node, error) {
	_, target, err := t.resolve(path)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", node.ErrNoSuchChild, path)
	}
	return target, nil
}

// ChildrenOfType returns a lazy view of the children of the composite with
// the given ID, filtered by type and ordered by key. An unknown ID yields an
// empty sequence.
func (t *Tree) ChildrenOfType(id node.ID, types ...string) iter.Seq[*node.Node] {
	n, ok := t.Lookup(id)
	if !ok {
		return func(func(*node.Node) bool) {}
	}
	return n.Children(types...)
}

// Walk visits every node depth-first, parents before children and siblings
// in key order.
func (t *Tree) Walk(fn func(n *node.Node) bool) {
	var walk func(n *node.Node) bool
	walk = func(n *node.Node) bool {
		if !fn(n) {
			return false
		}
		for c := range n.Children() {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(t.root)
}

// resolve walks path from the root. It returns the existing nodes above the
// final segment and the addressed node, which is nil when only the final
// segment is missing.
func (t *Tree) resolve(path nodepath.Path) ([]*node.Node, *node.Node, error) {
	if err := path.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", node.ErrInvalidPath, err)
	}
	if path.Head() != t.root.Key {
		return nil, nil, fmt.Errorf("%w: %q is not the root", node.ErrNoSuchChild, path.Head())
	}
	ancestors := make([]*node.Node, 0, len(path)-1)
	cur := t.root
	for i := 1; i < len(path); i++ {
		child, ok := t.child(cur, path[i])
		if !ok {
			if i < len(path)-1 {
				return nil, nil, fmt.Errorf("%w: %q under %s", node.ErrNoSuchChild, path[i], cur.Path())
			}
			return append(ancestors, cur), nil, nil
		}
		ancestors = append(ancestors, cur)
		cur = child
	}
	return ancestors, cur, nil
}

func (t *Tree) child(parent *node.Node, key string) (*node.Node, bool) {
	id, ok := parent.Child(key)
	if !ok {
		return nil, false
	}
	return t.Lookup(id)
}

// ancestorsOf returns the chain from the root down to n's parent.
func (t *Tree) ancestorsOf(n *node.Node) []*node.Node {
	var chain []*node.Node
	for id := n.Parent(); id.Valid(); {
		p, ok := t.store.Get(id)
		if !ok {
			break
		}
		chain = append(chain, p)
		id = p.Parent()
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// inherited folds the seed and the latest publications of ancestors, root
// first, into the values visible below them.
func (t *Tree) inherited(ancestors []*node.Node) map[string]any {
	vals := t.opts.Seed
	for _, a := range ancestors {
		vals = node.Overlay(vals, a.Published())
	}
	return vals
}

func conformState(info *node.TypeInfo, state cty.Value) (cty.Value, error) {
	if info.Schema != nil {
		return info.Schema.Conform(state)
	}
	if state == cty.NilVal || state.IsNull() {
		return cty.EmptyObjectVal, nil
	}
	return state, nil
}
