package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of everything loaded from manifests
// and scene files.
type Model struct {
	Types map[string]*TypeDefinition
	Scene []*Command
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Types: make(map[string]*TypeDefinition)}
}

// Merge adds other's definitions and appends its scene. Defining the same
// type twice is an error.
func (m *Model) Merge(other *Model) error {
	for _, name := range slices.Sorted(maps.Keys(other.Types)) {
		def := other.Types[name]
		if prev, exists := m.Types[name]; exists {
			return fmt.Errorf("node type %q defined twice (%s and %s)", name, prev.Source, def.Source)
		}
		m.Types[name] = def
	}
	m.Scene = append(m.Scene, other.Scene...)
	return nil
}

// Commands converts the scene into engine commands, in order.
func (m *Model) Commands() ([]comms.Command, error) {
	out := make([]comms.Command, 0, len(m.Scene))
	for i, c := range m.Scene {
		cmd, err := c.ToCommand()
		if err != nil {
			return nil, fmt.Errorf("scene command %d (%s): %w", i, c.Source, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// --- Node Type Manifest Models ---

// TypeDefinition is the format-agnostic representation of a `node` block.
type TypeDefinition struct {
	Name        string
	Description string
	// Kind is "leaf" or "composite".
	Kind string
	// Children lists the types a composite accepts; "*" accepts any.
	Children []string
	// Behavior names the registered Go behavior. Empty means the node has
	// no hooks.
	Behavior string
	State    map[string]*StateDefinition
	Source   string
}

// StateDefinition defines a single state attribute of a node type.
type StateDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// --- Scene Models ---

// Command is one entry of a scene.
type Command struct {
	Variant string
	Path    string
	Type    string
	State   cty.Value
	Source  string
}

// ToCommand validates the entry and converts it to an engine command.
func (c *Command) ToCommand() (comms.Command, error) {
	variant, err := comms.ParseVariant(c.Variant)
	if err != nil {
		return comms.Command{}, err
	}
	path, err := nodepath.Parse(c.Path)
	if err != nil {
		return comms.Command{}, err
	}
	if variant == comms.VariantDelete {
		return comms.Delete(path), nil
	}
	if c.Type == "" {
		return comms.Command{}, fmt.Errorf("update %s: type is required", path)
	}
	return comms.Update(path, c.Type, c.State), nil
}
