package tree

import (
	"context"
	"fmt"

	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/node"
)

// pass tracks the hooks run while applying one command.
type pass struct {
	visited map[node.ID]struct{}
}

func newPass() *pass {
	return &pass{visited: make(map[node.ID]struct{})}
}

func (p *pass) seen(n *node.Node) bool {
	_, ok := p.visited[n.ID()]
	return ok
}

// runHook invokes one hook of n with a fresh Context over inherited.
// Panics are recovered into errors wrapping ErrHookPanic.
func (t *Tree) runHook(ctx context.Context, n *node.Node, hook Hook, inherited map[string]any) (c *node.Context, err error) {
	c = node.NewContext(inherited)
	ctx = ctxlog.WithLogger(ctx, n.Logger)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
		if err != nil {
			err = &HookError{Hook: hook, Path: n.Path().String(), Type: n.Type, Err: err}
		}
		t.observer.HookRan(n.Type, hook, err)
	}()
	switch hook {
	case HookDelete:
		err = n.Behavior.Delete(ctx, n, c)
	default:
		err = n.Behavior.Update(ctx, n, c)
	}
	return c, err
}

// update runs n's update hook and records its publications. A failed hook
// leaves the previous publications and render work in place.
func (t *Tree) update(ctx context.Context, p *pass, n *node.Node, inherited map[string]any) (changed bool, err error) {
	p.visited[n.ID()] = struct{}{}
	rollback := func() {}
	if t.opts.Renders != nil {
		rollback = t.opts.Renders.Checkpoint(n.RenderKey())
	}
	c, err := t.runHook(ctx, n, HookUpdate, inherited)
	if err != nil {
		rollback()
		return false, err
	}
	n.Publish(c.Published())
	return c.Changed(), nil
}

// fail applies the failure mode to a hook error. In development mode it
// returns the error; in production mode it logs it and returns nil.
func (t *Tree) fail(n *node.Node, err error) error {
	if t.opts.Mode == Development {
		return err
	}
	n.Logger.Warn("Hook failed, keeping last good state.", "error", err)
	return nil
}

// cascade re-runs the update hook of every descendant of parent that has not
// run in this pass, top-down, so they observe parent's new publications. A
// descendant whose hook fails is skipped together with its subtree.
func (t *Tree) cascade(ctx context.Context, p *pass, parent *node.Node, inherited map[string]any) error {
	vals := node.Overlay(inherited, parent.Published())
	for c := range parent.Children() {
		if p.seen(c) {
			continue
		}
		if _, err := t.update(ctx, p, c, vals); err != nil {
			if err := t.fail(c, err); err != nil {
				return err
			}
			continue
		}
		if err := t.cascade(ctx, p, c, vals); err != nil {
			return err
		}
	}
	return nil
}

// bubble re-runs the update hooks of ancestors, deepest first. When an
// ancestor publishes a changed value, the descendants that have not run yet
// are refreshed.
func (t *Tree) bubble(ctx context.Context, p *pass, ancestors []*node.Node) error {
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		if p.seen(a) {
			continue
		}
		inherited := t.inherited(ancestors[:i])
		changed, err := t.update(ctx, p, a, inherited)
		if err != nil {
			if err := t.fail(a, err); err != nil {
				return err
			}
			continue
		}
		if changed {
			if err := t.cascade(ctx, p, a, inherited); err != nil {
				return err
			}
		}
	}
	return nil
}
