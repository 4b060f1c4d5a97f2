package tree

import (
	"context"
	"fmt"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

// ApplyUpdate applies an update command. The addressed node is created if
// only the final path segment is missing. Its state is replaced by state,
// validated against the schema of typeName, and its update hook runs,
// followed by the hooks of every ancestor on the path, deepest first.
//
// Structural problems are reported before anything changes. Hook failures
// are returned in Development mode and logged in Production mode; in both
// the failing node keeps its last good state.
func (t *Tree) ApplyUpdate(ctx context.Context, path nodepath.Path, typeName string, state cty.Value) error {
	if err := t.applyUpdate(ctx, path, typeName, state); err != nil {
		return &CommandError{Op: OpUpdate, Path: path.String(), Err: err}
	}
	return nil
}

func (t *Tree) applyUpdate(ctx context.Context, path nodepath.Path, typeName string, state cty.Value) error {
	ancestors, target, err := t.resolve(path)
	if err != nil {
		return err
	}
	p := newPass()

	if target == nil {
		parent := ancestors[len(ancestors)-1]
		info, conformed, err := t.prepareChild(parent, typeName, state)
		if err != nil {
			return err
		}
		if _, err := t.create(ctx, p, parent, path.Last(), info, conformed, t.inherited(ancestors)); err != nil {
			if err := t.fail(parent, err); err != nil {
				return err
			}
		}
		return t.bubble(ctx, p, ancestors)
	}

	if target.Type != typeName {
		return fmt.Errorf("%w: %s is %q, not %q", node.ErrTypeMismatch, path, target.Type, typeName)
	}
	conformed, err := conformState(target.Info(), state)
	if err != nil {
		return err
	}

	inherited := t.inherited(ancestors)
	restore := target.SetState(conformed)
	changed, err := t.update(ctx, p, target, inherited)
	switch {
	case err != nil:
		restore()
		if err := t.fail(target, err); err != nil {
			return err
		}
	case changed:
		if err := t.cascade(ctx, p, target, inherited); err != nil {
			return err
		}
	}
	return t.bubble(ctx, p, ancestors)
}

// CreateChild creates a node under the composite with the given ID and runs
// its first update hook with the parent's published context. Unlike
// ApplyUpdate, the parent's hooks are not re-run and a failing hook is
// always returned.
func (t *Tree) CreateChild(ctx context.Context, parentID node.ID, key, typeName string, state cty.Value) (node.ID, error) {
	parent, ok := t.Lookup(parentID)
	if !ok {
		return node.ID{}, &CommandError{Op: OpCreate, Path: key, Err: fmt.Errorf("%w: parent %s", node.ErrNoSuchChild, parentID)}
	}
	path := parent.Path().Child(key)
	cmdErr := func(err error) error {
		return &CommandError{Op: OpCreate, Path: path.String(), Err: err}
	}
	if err := path.Validate(); err != nil {
		return node.ID{}, cmdErr(fmt.Errorf("%w: %w", node.ErrInvalidPath, err))
	}
	if _, exists := t.child(parent, key); exists {
		return node.ID{}, cmdErr(node.ErrChildExists)
	}
	info, conformed, err := t.prepareChild(parent, typeName, state)
	if err != nil {
		return node.ID{}, cmdErr(err)
	}
	n, err := t.create(ctx, newPass(), parent, key, info, conformed, t.inherited(t.ancestorsOf(parent)))
	if err != nil {
		return node.ID{}, cmdErr(err)
	}
	return n.ID(), nil
}

// prepareChild checks that a child of typeName may be created under parent
// and conforms its initial state.
func (t *Tree) prepareChild(parent *node.Node, typeName string, state cty.Value) (*node.TypeInfo, cty.Value, error) {
	info, err := t.types.Lookup(typeName)
	if err != nil {
		return nil, cty.NilVal, err
	}
	if !parent.Info().Allows(typeName) {
		return nil, cty.NilVal, fmt.Errorf("%w: %s(%s) does not accept %q children",
			node.ErrIllegalChildType, parent.Type, parent.Path(), typeName)
	}
	conformed, err := conformState(info, state)
	if err != nil {
		return nil, cty.NilVal, err
	}
	return info, conformed, nil
}

// create allocates a node, runs its first update hook and attaches it to
// parent. parentInherited is what parent itself inherits. A node whose first
// hook fails is released without ever being attached.
func (t *Tree) create(ctx context.Context, p *pass, parent *node.Node, key string, info *node.TypeInfo, state cty.Value, parentInherited map[string]any) (*node.Node, error) {
	n := node.New(info, parent.Path().Child(key), parent.ID(), t.logger)
	n.SetState(state)
	id := t.store.Insert(n)
	if _, err := t.update(ctx, p, n, node.Overlay(parentInherited, parent.Published())); err != nil {
		t.store.Release(id)
		return nil, err
	}
	n.MarkLive()
	parent.Attach(key, id)
	n.Logger.Debug("Node created.")
	return n, nil
}
