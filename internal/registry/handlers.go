package registry

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/aether/internal/node"
)

// RegisteredBehavior holds the compiled Go parts of a node type.
type RegisteredBehavior struct {
	// New returns a fresh Behavior for one node.
	New func() node.Behavior
	// StateType is the struct the behavior decodes its state into. Nil
	// means the behavior takes no state.
	StateType reflect.Type
}

// Behavior is a convenience constructor for a RegisteredBehavior whose
// state decodes into S.
func Behavior[S any](newFn func() node.Behavior) *RegisteredBehavior {
	return &RegisteredBehavior{New: newFn, StateType: reflect.TypeFor[S]()}
}

// RegisterBehavior registers the Go behavior for a manifest behavior name.
func (r *Registry) RegisterBehavior(name string, b *RegisteredBehavior) {
	if _, exists := r.BehaviorRegistry[name]; exists {
		panic(fmt.Sprintf("behavior with name '%s' already registered", name))
	}
	if b == nil || b.New == nil {
		panic(fmt.Sprintf("behavior '%s' has no constructor", name))
	}
	if b.StateType != nil && b.StateType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("behavior '%s': state type %s is not a struct", name, b.StateType))
	}
	slog.Debug("Registering node behavior.", "name", name)
	r.BehaviorRegistry[name] = b
}
