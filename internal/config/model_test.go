package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

func TestModel_Merge(t *testing.T) {
	a := NewModel()
	a.Types["axis"] = &TypeDefinition{Name: "axis", Source: "a.hcl"}
	a.Scene = []*Command{{Variant: "update", Path: "root.a", Type: "axis"}}

	b := NewModel()
	b.Types["line"] = &TypeDefinition{Name: "line", Source: "b.hcl"}
	b.Scene = []*Command{{Variant: "delete", Path: "root.a"}}

	require.NoError(t, a.Merge(b))
	assert.Len(t, a.Types, 2)
	require.Len(t, a.Scene, 2)
	assert.Equal(t, "delete", a.Scene[1].Variant)

	dup := NewModel()
	dup.Types["axis"] = &TypeDefinition{Name: "axis", Source: "c.hcl"}
	err := a.Merge(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.hcl")
	assert.Contains(t, err.Error(), "c.hcl")
}

func TestModel_Commands(t *testing.T) {
	m := NewModel()
	m.Scene = []*Command{
		{Variant: "update", Path: "root.a", Type: "axis", State: cty.EmptyObjectVal},
		{Variant: "delete", Path: "root.a"},
	}
	cmds, err := m.Commands()
	require.NoError(t, err)
	assert.Equal(t, []comms.Command{
		comms.Update(nodepath.MustParse("root.a"), "axis", cty.EmptyObjectVal),
		comms.Delete(nodepath.MustParse("root.a")),
	}, cmds)
}

func TestCommand_ToCommandRejects(t *testing.T) {
	for _, c := range []*Command{
		{Variant: "patch", Path: "root"},
		{Variant: "update", Path: "root..a", Type: "x"},
		{Variant: "update", Path: "root.a"},
	} {
		_, err := c.ToCommand()
		assert.Error(t, err, "%+v", c)
	}
}
