package tree

import (
	"fmt"
	"strings"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/node"
)

// DefaultRootKey and DefaultRootType name the root node when Options leaves
// them empty.
const (
	DefaultRootKey  = "root"
	DefaultRootType = "root"
)

// Types looks up the definition of a node type by name. Lookup returns an
// error wrapping node.ErrUnknownType for unregistered names.
type Types interface {
	Lookup(typeName string) (*node.TypeInfo, error)
}

// TypeMap is a Types backed by a plain map.
type TypeMap map[string]*node.TypeInfo

// Lookup implements Types.
func (m TypeMap) Lookup(typeName string) (*node.TypeInfo, error) {
	info, ok := m[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", node.ErrUnknownType, typeName)
	}
	return info, nil
}

// RenderQueue is the tree's view of the render scheduler, which implements
// it.
type RenderQueue interface {
	// Cancel drops pending render work for a key.
	Cancel(key string)
	// Checkpoint captures the render work held for key. The returned
	// function discards whatever a failed hook queued or cancelled since.
	Checkpoint(key string) (rollback func())
}

// Hook names a lifecycle hook.
type Hook string

const (
	HookUpdate Hook = "update"
	HookDelete Hook = "delete"
)

// Observer is notified after every hook invocation.
type Observer interface {
	HookRan(nodeType string, hook Hook, err error)
}

type nopObserver struct{}

func (nopObserver) HookRan(string, Hook, error) {}

// Mode selects how hook failures are handled.
type Mode int

const (
	// Development returns hook failures to the command's origin.
	Development Mode = iota
	// Production logs hook failures and carries on with the pass.
	Production
)

func (m Mode) String() string {
	switch m {
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

// ParseMode parses "development" (or "dev") and "production" (or "prod").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Options configures a Tree.
type Options struct {
	// RootKey is path[0] of every command. Defaults to DefaultRootKey.
	RootKey string
	// RootType is the type of the root node. Defaults to DefaultRootType.
	RootType string
	// Seed holds context values visible to the root and every node below it.
	Seed map[string]any
	// Renders is told about every deleted node's render key, and restores a
	// node's render work when its update hook fails.
	Renders RenderQueue
	// Notifier receives a state notification whenever a node sets its own
	// state.
	Notifier comms.Sender[comms.Notification]
	Mode     Mode
	Observer Observer
}
