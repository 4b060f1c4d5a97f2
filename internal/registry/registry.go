package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/aether/internal/config"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/schema"
)

// Module is the interface that all node type modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered behaviors and type definitions for a
// single application instance.
type Registry struct {
	BehaviorRegistry   map[string]*RegisteredBehavior
	DefinitionRegistry map[string]*config.TypeDefinition

	manifests []manifest
	infos     map[string]*node.TypeInfo
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		BehaviorRegistry:   make(map[string]*RegisteredBehavior),
		DefinitionRegistry: make(map[string]*config.TypeDefinition),
		infos:              make(map[string]*node.TypeInfo),
	}
}

// PopulateDefinitionsFromModel copies the loaded type definitions from the
// config model into the registry.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Types {
		r.DefinitionRegistry[key] = val
		delete(r.infos, key)
	}
}

// TypeNames returns the names of all defined node types, sorted.
func (r *Registry) TypeNames() []string {
	return slices.Sorted(maps.Keys(r.DefinitionRegistry))
}

// Lookup returns the tree-facing description of a node type. Results are
// cached; the registry must not be modified after the engine starts.
func (r *Registry) Lookup(typeName string) (*node.TypeInfo, error) {
	if info, ok := r.infos[typeName]; ok {
		return info, nil
	}
	def, ok := r.DefinitionRegistry[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", node.ErrUnknownType, typeName)
	}

	info := &node.TypeInfo{
		Name:     def.Name,
		Kind:     node.Leaf,
		Children: def.Children,
		New:      func() node.Behavior { return node.NopBehavior{} },
	}
	if def.Kind == "composite" {
		info.Kind = node.Composite
	}
	if def.Behavior != "" {
		b, ok := r.BehaviorRegistry[def.Behavior]
		if !ok {
			return nil, fmt.Errorf("%w: %q: behavior %q is not registered", node.ErrUnknownType, typeName, def.Behavior)
		}
		info.New = b.New
	}

	fields := make([]schema.Field, 0, len(def.State))
	for _, name := range slices.Sorted(maps.Keys(def.State)) {
		sd := def.State[name]
		fields = append(fields, schema.Field{Name: sd.Name, Type: sd.Type, Default: sd.Default, Optional: sd.Optional})
	}
	obj, err := schema.NewObject(typeName, fields...)
	if err != nil {
		return nil, err
	}
	info.Schema = obj

	r.infos[typeName] = info
	return info, nil
}
