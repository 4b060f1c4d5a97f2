package tree

import (
	"fmt"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/node"
	"github.com/zclconf/go-cty/cty"
)

var _ node.StateSetter = (*Tree)(nil)

// SetState replaces the state of n from inside the engine, the way an update
// command would, but without running any hooks. The state is validated
// against n's schema, the old state becomes the previous state, and the new
// one is reported to the UI side as a state notification.
//
// Hooks reach it through node.SetOwnState.
func (t *Tree) SetState(n *node.Node, state cty.Value) error {
	if n == nil {
		return &CommandError{Op: OpSet, Err: node.ErrNoSuchChild}
	}
	if n.IsDeleted() {
		return &CommandError{Op: OpSet, Path: n.Path().String(), Err: fmt.Errorf("%w: node was deleted", node.ErrNoSuchChild)}
	}
	conformed, err := conformState(n.Info(), state)
	if err != nil {
		return &CommandError{Op: OpSet, Path: n.Path().String(), Err: err}
	}
	n.SetState(conformed)
	n.Logger.Debug("State set from engine side.")
	if t.opts.Notifier != nil {
		t.opts.Notifier.Send(comms.StateChanged(n.RenderKey(), conformed))
	}
	return nil
}
