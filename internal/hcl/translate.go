package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/aether/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// translateNode converts a `node` block into the agnostic model.
func (l *Loader) translateNode(ctx context.Context, b *nodeBlock) (*config.TypeDefinition, error) {
	kind := b.Kind
	if kind == "" {
		kind = "leaf"
		if len(b.Children) > 0 {
			kind = "composite"
		}
	}
	switch kind {
	case "leaf":
		if len(b.Children) > 0 {
			return nil, fmt.Errorf("%s: node %q: a leaf cannot declare children", b.DeclRange, b.Name)
		}
	case "composite":
	default:
		return nil, fmt.Errorf("%s: node %q: kind must be \"leaf\" or \"composite\", got %q", b.DeclRange, b.Name, kind)
	}

	def := &config.TypeDefinition{
		Name:        b.Name,
		Description: b.Description,
		Kind:        kind,
		Children:    b.Children,
		Behavior:    b.Behavior,
		State:       make(map[string]*config.StateDefinition, len(b.States)),
		Source:      b.DeclRange.String(),
	}
	for _, s := range b.States {
		if _, dup := def.State[s.Name]; dup {
			return nil, fmt.Errorf("%s: node %q: state %q declared twice", s.DeclRange, b.Name, s.Name)
		}
		sd, err := l.translateState(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("%s: node %q: state %q: %w", s.DeclRange, b.Name, s.Name, err)
		}
		def.State[s.Name] = sd
	}
	return def, nil
}

func (l *Loader) translateState(ctx context.Context, s *stateBlock) (*config.StateDefinition, error) {
	ty, err := stateType(ctx, s.Type)
	if err != nil {
		return nil, err
	}

	sd := &config.StateDefinition{
		Name:        s.Name,
		Type:        ty,
		Description: s.Description,
		Optional:    s.Optional != nil && *s.Optional,
	}
	if s.Default != nil {
		val, diags := s.Default.Value(evalContext())
		if diags.HasErrors() {
			return nil, diags
		}
		// A null default is the same as no default.
		if !val.IsNull() {
			sd.Default = &val
			sd.Optional = true
		}
	}
	return sd, nil
}

// translateCommand converts a `command` block into a scene entry.
func (l *Loader) translateCommand(b *commandBlock) (*config.Command, error) {
	c := &config.Command{
		Variant: b.Variant,
		Path:    b.Path,
		Type:    b.Type,
		State:   cty.NullVal(cty.DynamicPseudoType),
		Source:  b.DeclRange.String(),
	}
	if b.State != nil {
		val, diags := b.State.Value(evalContext())
		if diags.HasErrors() {
			return nil, diags
		}
		c.State = val
	}
	if c.Variant == "delete" && (c.Type != "" || !c.State.IsNull()) {
		return nil, fmt.Errorf("%s: delete %s takes neither type nor state", b.DeclRange, b.Path)
	}
	return c, nil
}

func decodeFile(file *hcl.File) (*fileRoot, error) {
	var root fileRoot
	if diags := gohclDecode(file.Body, &root); diags.HasErrors() {
		return nil, diags
	}
	return &root, nil
}
