package comms

import (
	"fmt"

	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

// Variant distinguishes update commands from delete commands.
type Variant string

const (
	VariantUpdate Variant = "update"
	VariantDelete Variant = "delete"
)

// ParseVariant parses a command variant.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantUpdate, VariantDelete:
		return v, nil
	default:
		return "", fmt.Errorf("unknown command variant %q", s)
	}
}

// Command is a path-addressed mutation of the tree. Type and State are
// only meaningful for updates.
type Command struct {
	Variant Variant
	Path    nodepath.Path
	Type    string
	State   cty.Value
}

// Update builds an update command.
func Update(path nodepath.Path, typeName string, state cty.Value) Command {
	return Command{Variant: VariantUpdate, Path: path, Type: typeName, State: state}
}

// Delete builds a delete command.
func Delete(path nodepath.Path) Command {
	return Command{Variant: VariantDelete, Path: path}
}

func (c Command) String() string {
	if c.Variant == VariantUpdate {
		return fmt.Sprintf("update %s (%s)", c.Path, c.Type)
	}
	return fmt.Sprintf("%s %s", c.Variant, c.Path)
}

// Kind is the outcome a Notification reports.
type Kind string

const (
	KindRendered Kind = "rendered"
	KindError    Kind = "error"
	KindState    Kind = "state"
)

// Notification tells the UI side that something happened to a key: a frame
// was drawn for it, a command or draw addressed to it failed, or the node
// replaced its own state. State is only set for KindState.
type Notification struct {
	Key    string
	Kind   Kind
	Detail string
	State  cty.Value
}

// Rendered reports a successful draw.
func Rendered(key string) Notification {
	return Notification{Key: key, Kind: KindRendered}
}

// Failed reports an error against key.
func Failed(key string, err error) Notification {
	return Notification{Key: key, Kind: KindError, Detail: err.Error()}
}

// StateChanged reports a state the node at key set on itself.
func StateChanged(key string, state cty.Value) Notification {
	return Notification{Key: key, Kind: KindState, State: state}
}

func (n Notification) String() string {
	if n.Detail == "" {
		return fmt.Sprintf("%s %s", n.Kind, n.Key)
	}
	return fmt.Sprintf("%s %s: %s", n.Kind, n.Key, n.Detail)
}
