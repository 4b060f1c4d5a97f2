package tree

import (
	"context"
	"errors"
	"slices"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
)

// ApplyDelete applies a delete command. The addressed node and all of its
// descendants are deleted bottom-up, each running its delete hook exactly
// once, and the ancestors on the path re-run their update hooks.
//
// A missing final segment is not an error. Deleting the root path deletes
// every node below the root but keeps the root itself.
func (t *Tree) ApplyDelete(ctx context.Context, path nodepath.Path) error {
	if err := t.applyDelete(ctx, path); err != nil {
		return &CommandError{Op: OpDelete, Path: path.String(), Err: err}
	}
	return nil
}

func (t *Tree) applyDelete(ctx context.Context, path nodepath.Path) error {
	ancestors, target, err := t.resolve(path)
	if err != nil {
		return err
	}
	if target == nil {
		t.logger.Debug("Delete of missing node ignored.", "path", path.String())
		return nil
	}

	var errs []error
	inherited := t.inherited(ancestors)
	if target == t.root {
		vals := node.Overlay(inherited, target.Published())
		for _, c := range slices.Collect(target.Children()) {
			errs = append(errs, t.deleteSubtree(ctx, target, c, vals)...)
		}
		ancestors = []*node.Node{t.root}
	} else {
		errs = t.deleteSubtree(ctx, ancestors[len(ancestors)-1], target, inherited)
	}

	errs = append(errs, t.bubble(ctx, newPass(), ancestors))
	return errors.Join(errs...)
}

// deleteSubtree deletes n's descendants, then n. Deletion always completes;
// hook failures are collected according to the failure mode.
func (t *Tree) deleteSubtree(ctx context.Context, parent, n *node.Node, inherited map[string]any) []error {
	var errs []error
	vals := node.Overlay(inherited, n.Published())
	for _, c := range slices.Collect(n.Children()) {
		errs = append(errs, t.deleteSubtree(ctx, n, c, vals)...)
	}
	if !n.MarkDeleted() {
		return errs
	}
	if _, err := t.runHook(ctx, n, HookDelete, inherited); err != nil {
		if err := t.fail(n, err); err != nil {
			errs = append(errs, err)
		}
	}
	if t.opts.Renders != nil {
		t.opts.Renders.Cancel(n.RenderKey())
	}
	parent.Detach(n.Key)
	t.store.Release(n.ID())
	n.Logger.Debug("Node deleted.")
	return errs
}
