package tree

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

func TestUpdate_CreatesAxisUnderRoot(t *testing.T) {
	f := newFixture(t).start(Options{})

	f.mustUpdate("root.axis1", "axis", bounds(0, 10))

	axis, err := f.get("root.axis1")
	require.NoError(t, err)
	assert.Equal(t, "axis", axis.Type)
	assert.Equal(t, node.Live, axis.Status())

	var axes []string
	for n := range f.tree.ChildrenOfType(f.tree.Root().ID(), "axis") {
		axes = append(axes, n.Key)
	}
	assert.Equal(t, []string{"axis1"}, axes)
	assert.Equal(t, []string{"update root.axis1", "update root"}, f.events)
}

func TestUpdate_RootOnlyLeavesDescendants(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.axis1", "axis", bounds(0, 10))
	axis, err := f.get("root.axis1")
	require.NoError(t, err)
	prev := axis.PrevState()
	f.reset()

	f.mustUpdate("root", "root", cty.EmptyObjectVal)

	again, err := f.get("root.axis1")
	require.NoError(t, err)
	assert.Same(t, axis, again)
	assert.True(t, again.PrevState().RawEquals(prev))
	assert.Equal(t, []string{"update root"}, f.events)
}

func TestUpdate_IllegalChildLeavesTreeUnchanged(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.axis1", "axis", bounds(0, 10))
	before := f.paths()
	f.reset()

	err := f.update("root.axis1.line1", "line", width(2))
	require.ErrorIs(t, err, node.ErrIllegalChildType)

	if diff := cmp.Diff(before, f.paths()); diff != "" {
		t.Errorf("tree changed (-before +after):\n%s", diff)
	}
	assert.Empty(t, f.events)
}

func TestUpdate_UnderDeletedParent(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.axis1", "axis", bounds(0, 10))

	require.NoError(t, f.delete("root.axis1"))

	err := f.update("root.axis1.line1", "line", width(2))
	require.ErrorIs(t, err, node.ErrNoSuchChild)
	assert.Equal(t, []string{"root"}, f.paths())
}

func TestPathCreation_CreatesExactlyOneNode(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.g", "group", empty)
	f.mustUpdate("root.g.h", "group", empty)
	f.mustUpdate("root.other", "tick", empty)
	before := f.paths()

	f.mustUpdate("root.g.h.l", "line", width(3))

	want := append(slices.Clone(before), "root.g.h.l")
	slices.Sort(want)
	got := slices.Sorted(slices.Values(f.paths()))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected paths (-want +got):\n%s", diff)
	}
	assert.Equal(t, len(before)+1, f.tree.Len())
}

func TestReapply_IsIdempotentButRunsHooks(t *testing.T) {
	f := newFixture(t).start(Options{})

	f.mustUpdate("root.l", "line", width(2))
	n, err := f.get("root.l")
	require.NoError(t, err)
	state, paths := n.State(), f.paths()

	f.mustUpdate("root.l", "line", width(2))

	assert.True(t, n.State().RawEquals(state))
	assert.True(t, n.PrevState().RawEquals(state))
	assert.Equal(t, paths, f.paths())
	assert.Equal(t, []string{
		"update root.l", "update root",
		"update root.l", "update root",
	}, f.events)
}

func TestUpdate_SchemaDefaultsApplied(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.l", "line", cty.NullVal(cty.DynamicPseudoType))

	n, err := f.get("root.l")
	require.NoError(t, err)
	var st struct {
		Width float64 `cty:"width"`
	}
	require.NoError(t, n.Decode(&st))
	assert.Equal(t, 1.0, st.Width)
}

func TestUpdate_StructuralErrors(t *testing.T) {
	testCases := []struct {
		name    string
		path    nodepath.Path
		typ     string
		state   cty.Value
		wantErr error
	}{
		{"empty path", nodepath.Path{}, "line", empty, node.ErrInvalidPath},
		{"empty segment", nodepath.Path{"root", ""}, "line", empty, node.ErrInvalidPath},
		{"wrong root", nodepath.Path{"other", "x"}, "line", empty, node.ErrNoSuchChild},
		{"missing intermediate", nodepath.Path{"root", "nope", "x"}, "line", empty, node.ErrNoSuchChild},
		{"unknown type", nodepath.Path{"root", "x"}, "nope", empty, node.ErrUnknownType},
		{"schema violation on create", nodepath.Path{"root", "x"}, "axis", width(1), node.ErrSchemaViolation},
		{"type mismatch", nodepath.Path{"root", "axis1"}, "group", empty, node.ErrTypeMismatch},
		{"child of leaf", nodepath.Path{"root", "l", "x"}, "tick", empty, node.ErrIllegalChildType},
		{"root type mismatch", nodepath.Path{"root"}, "group", empty, node.ErrTypeMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t).start(Options{})
			f.mustUpdate("root.axis1", "axis", bounds(0, 10))
			f.mustUpdate("root.l", "line", width(1))
			before := f.paths()
			f.reset()

			err := f.tree.ApplyUpdate(f.ctx, tc.path, tc.typ, tc.state)
			require.ErrorIs(t, err, tc.wantErr)

			var cmdErr *CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, OpUpdate, cmdErr.Op)
			assert.Equal(t, tc.path.String(), cmdErr.Path)

			assert.Equal(t, before, f.paths())
			assert.Empty(t, f.events, "no hook may run for a rejected command")
		})
	}
}

func TestUpdate_SchemaViolationKeepsState(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.axis1", "axis", bounds(0, 10))
	n, err := f.get("root.axis1")
	require.NoError(t, err)
	state, prev := n.State(), n.PrevState()

	bad := cty.ObjectVal(map[string]cty.Value{"bounds": cty.StringVal("wide")})
	err = f.update("root.axis1", "axis", bad)
	require.ErrorIs(t, err, node.ErrSchemaViolation)

	assert.True(t, n.State().RawEquals(state))
	assert.True(t, n.PrevState().RawEquals(prev))
}

func TestUpdate_PrevStateTracksLastUpdate(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.axis1", "axis", bounds(0, 10))
	f.mustUpdate("root.axis1", "axis", bounds(0, 20))

	n, err := f.get("root.axis1")
	require.NoError(t, err)
	assert.True(t, n.PrevState().RawEquals(mustConform(t, f, "axis", bounds(0, 10))))
	assert.True(t, n.State().RawEquals(mustConform(t, f, "axis", bounds(0, 20))))
}

func mustConform(t *testing.T, f *fixture, typ string, v cty.Value) cty.Value {
	t.Helper()
	out, err := f.types()[typ].Schema.Conform(v)
	require.NoError(t, err)
	return out
}

func TestUpdate_AncestorsRerunBottomUp(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.g", "group", empty)
	f.mustUpdate("root.g.h", "group", empty)
	f.mustUpdate("root.g.h.l", "line", width(1))
	f.reset()

	f.mustUpdate("root.g.h.l", "line", width(2))

	assert.Equal(t, []string{
		"update root.g.h.l",
		"update root.g.h",
		"update root.g",
		"update root",
	}, f.events)
}

func TestUpdate_HookRunsAtMostOncePerPass(t *testing.T) {
	f := newFixture(t)
	gen := 0
	f.onUpdate["root"] = func(_ *node.Node, c *node.Context) error {
		gen++
		c.Set("gen", gen)
		return nil
	}
	f.onUpdate["group"] = func(_ *node.Node, c *node.Context) error {
		v, _ := c.GetOptional("gen")
		c.Set("seen", v)
		return nil
	}
	f.start(Options{})
	f.mustUpdate("root.a", "group", empty)
	f.mustUpdate("root.a.l", "line", width(1))
	f.mustUpdate("root.b", "group", empty)
	f.mustUpdate("root.b.l", "line", width(1))
	f.reset()

	f.mustUpdate("root.a.l", "line", width(2))

	assert.Equal(t, []string{
		"update root.a.l",
		"update root.a",
		"update root",
		"update root.b",
		"update root.b.l",
	}, f.events)
}

func TestContext_ChangedValueCascadesToDescendants(t *testing.T) {
	f := newFixture(t)
	seen := map[string]any{}
	f.onUpdate["root"] = func(n *node.Node, c *node.Context) error {
		if n.State().Type().HasAttribute("scale") {
			c.Set("scale", n.State().GetAttr("scale"))
		}
		return nil
	}
	f.onUpdate["line"] = func(n *node.Node, c *node.Context) error {
		seen[n.Path().String()], _ = c.GetOptional("scale")
		return nil
	}
	f.start(Options{})
	f.mustUpdate("root.g", "group", empty)
	f.mustUpdate("root.g.l", "line", width(1))
	f.mustUpdate("root.m", "line", width(1))
	f.reset()

	scale := cty.NumberIntVal(4)
	f.mustUpdate("root", "root", cty.ObjectVal(map[string]cty.Value{"scale": scale}))

	assert.Equal(t, []string{
		"update root",
		"update root.g",
		"update root.g.l",
		"update root.m",
	}, f.events)
	assert.Equal(t, map[string]any{"root.g.l": scale, "root.m": scale}, seen)
}

func TestContext_QuietPublishDoesNotCascade(t *testing.T) {
	f := newFixture(t)
	f.onUpdate["root"] = func(_ *node.Node, c *node.Context) error {
		c.SetQuiet("q", 1)
		return nil
	}
	f.start(Options{})
	f.mustUpdate("root.l", "line", width(1))
	f.reset()

	f.mustUpdate("root", "root", empty)
	assert.Equal(t, []string{"update root"}, f.events)
}

func TestContext_TopDownOnly(t *testing.T) {
	f := newFixture(t)
	type lookup struct {
		value any
		err   error
	}
	got := map[string]lookup{}
	f.onUpdate["group"] = func(n *node.Node, c *node.Context) error {
		if n.Key == "a" {
			c.Set("x", 1)
		}
		return nil
	}
	f.onUpdate["tick"] = func(n *node.Node, c *node.Context) error {
		v, err := c.Get("x")
		got[n.Path().String()] = lookup{v, err}
		return nil
	}
	f.start(Options{})

	f.mustUpdate("root.a", "group", empty)
	f.mustUpdate("root.b", "tick", empty)
	f.mustUpdate("root.a.c", "tick", empty)

	require.ErrorIs(t, got["root.b"].err, node.ErrMissingContextValue)
	require.NoError(t, got["root.a.c"].err)
	assert.Equal(t, 1, got["root.a.c"].value)

	a, err := f.get("root.a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, a.Published())
}

func TestContext_PublicationsAreNotRetained(t *testing.T) {
	f := newFixture(t)
	publish := true
	f.onUpdate["group"] = func(_ *node.Node, c *node.Context) error {
		if publish {
			c.Set("x", 1)
		}
		return nil
	}
	var last any
	f.onUpdate["tick"] = func(_ *node.Node, c *node.Context) error {
		last, _ = c.GetOptional("x")
		return nil
	}
	f.start(Options{})
	f.mustUpdate("root.a", "group", empty)
	f.mustUpdate("root.a.c", "tick", empty)
	assert.Equal(t, 1, last)

	publish = false
	f.mustUpdate("root.a", "group", empty)
	f.mustUpdate("root.a.c", "tick", empty)
	assert.Nil(t, last)
}

func TestContext_SeedVisibleEverywhere(t *testing.T) {
	f := newFixture(t)
	var seen any
	f.onUpdate["line"] = func(_ *node.Node, c *node.Context) error {
		seen, _ = c.GetOptional("scheduler")
		return nil
	}
	f.start(Options{Seed: map[string]any{"scheduler": "s"}})
	f.mustUpdate("root.g", "group", empty)
	f.mustUpdate("root.g.l", "line", empty)
	assert.Equal(t, "s", seen)
}

var errBoom = errors.New("boom")

func TestHookFailure_Development(t *testing.T) {
	f := newFixture(t).start(Options{Mode: Development})
	f.mustUpdate("root.l", "line", width(1))
	n, err := f.get("root.l")
	require.NoError(t, err)
	state := n.State()
	f.reset()

	f.onUpdate["line"] = func(*node.Node, *node.Context) error { return errBoom }
	err = f.update("root.l", "line", width(5))
	require.ErrorIs(t, err, errBoom)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, HookUpdate, hookErr.Hook)
	assert.Equal(t, "root.l", hookErr.Path)

	assert.True(t, n.State().RawEquals(state), "last good state is kept")
	assert.True(t, n.PrevState().RawEquals(state))
	assert.Equal(t, []string{"update root.l"}, f.events)
}

func TestHookFailure_Production(t *testing.T) {
	f := newFixture(t).start(Options{Mode: Production})
	f.mustUpdate("root.l", "line", width(1))
	n, err := f.get("root.l")
	require.NoError(t, err)
	state := n.State()
	f.reset()

	f.onUpdate["line"] = func(*node.Node, *node.Context) error { return errBoom }
	require.NoError(t, f.update("root.l", "line", width(5)))

	assert.True(t, n.State().RawEquals(state))
	assert.Equal(t, []string{"update root.l", "update root"}, f.events)
}

func TestHookFailure_NewNodeIsNotAttached(t *testing.T) {
	for _, mode := range []Mode{Development, Production} {
		t.Run(mode.String(), func(t *testing.T) {
			f := newFixture(t)
			f.onUpdate["line"] = func(*node.Node, *node.Context) error { return errBoom }
			f.start(Options{Mode: mode})

			err := f.update("root.l", "line", width(1))
			if mode == Development {
				require.ErrorIs(t, err, errBoom)
			} else {
				require.NoError(t, err)
			}

			_, err = f.get("root.l")
			require.ErrorIs(t, err, node.ErrNoSuchChild)
			assert.Equal(t, 1, f.tree.Len())
		})
	}
}

func TestHookFailure_MissingContextValue(t *testing.T) {
	f := newFixture(t)
	f.onUpdate["line"] = func(_ *node.Node, c *node.Context) error {
		_, err := node.ContextValue[int](c, "absent")
		return err
	}
	f.start(Options{})

	err := f.update("root.l", "line", width(1))
	require.ErrorIs(t, err, node.ErrMissingContextValue)
}

func TestHookFailure_PanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.onUpdate["line"] = func(*node.Node, *node.Context) error { panic("kaboom") }
	f.start(Options{})

	err := f.update("root.l", "line", width(1))
	require.ErrorIs(t, err, ErrHookPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

type countingObserver map[string]int

func (o countingObserver) HookRan(nodeType string, hook Hook, err error) {
	key := nodeType + "/" + string(hook)
	if err != nil {
		key += "/failed"
	}
	o[key]++
}

func TestObserver(t *testing.T) {
	obs := countingObserver{}
	f := newFixture(t).start(Options{Observer: obs})
	f.mustUpdate("root.l", "line", width(1))
	require.NoError(t, f.delete("root.l"))

	assert.Equal(t, countingObserver{
		"root/update": 3,
		"line/update": 1,
		"line/delete": 1,
	}, obs)
}

func TestCreateChild(t *testing.T) {
	f := newFixture(t)
	var seen any
	f.onUpdate["group"] = func(_ *node.Node, c *node.Context) error {
		c.Set("g", "from-group")
		return nil
	}
	f.onUpdate["tick"] = func(_ *node.Node, c *node.Context) error {
		seen, _ = c.GetOptional("g")
		return nil
	}
	f.start(Options{})
	f.mustUpdate("root.g", "group", empty)
	g, err := f.get("root.g")
	require.NoError(t, err)
	f.reset()

	id, err := f.tree.CreateChild(f.ctx, g.ID(), "t", "tick", empty)
	require.NoError(t, err)
	assert.Equal(t, "from-group", seen)
	assert.Equal(t, []string{"update root.g.t"}, f.events)

	n, ok := f.tree.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "root.g.t", n.Path().String())

	_, err = f.tree.CreateChild(f.ctx, g.ID(), "t", "tick", empty)
	require.ErrorIs(t, err, node.ErrChildExists)

	_, err = f.tree.CreateChild(f.ctx, g.ID(), "u", "nope", empty)
	require.ErrorIs(t, err, node.ErrUnknownType)

	_, err = f.tree.CreateChild(f.ctx, id, "u", "tick", empty)
	require.ErrorIs(t, err, node.ErrIllegalChildType)

	_, err = f.tree.CreateChild(f.ctx, node.ID{Index: 99, Generation: 1}, "u", "tick", empty)
	require.ErrorIs(t, err, node.ErrNoSuchChild)
}

func TestChildrenOfType_RestartableView(t *testing.T) {
	f := newFixture(t).start(Options{})
	f.mustUpdate("root.b", "line", width(1))
	f.mustUpdate("root.a", "line", width(1))
	f.mustUpdate("root.t", "tick", empty)

	view := f.tree.ChildrenOfType(f.tree.Root().ID(), "line")
	collect := func() []string {
		var keys []string
		for n := range view {
			keys = append(keys, n.Key)
		}
		return keys
	}
	assert.Equal(t, []string{"a", "b"}, collect())
	assert.Equal(t, []string{"a", "b"}, collect())

	require.NoError(t, f.delete("root.a"))
	assert.Equal(t, []string{"b"}, collect())

	assert.Empty(t, slices.Collect(f.tree.ChildrenOfType(node.ID{}, "line")))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("prod")
	require.NoError(t, err)
	assert.Equal(t, Production, m)
	m, err = ParseMode("Development")
	require.NoError(t, err)
	assert.Equal(t, Development, m)
	_, err = ParseMode("staging")
	require.Error(t, err)
}

func TestNew_RootMustBeComposite(t *testing.T) {
	f := newFixture(t)
	_, err := New(f.ctx, nil, f.types(), Options{RootType: "tick"})
	require.Error(t, err)

	_, err = New(f.ctx, nil, f.types(), Options{RootType: "nope"})
	require.ErrorIs(t, err, node.ErrUnknownType)
}
