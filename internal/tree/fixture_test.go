package tree

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/aether/internal/comms"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/inmemorystore"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/nodepath"
	"github.com/vk/aether/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

type hookFunc func(n *node.Node, c *node.Context) error

// fixture builds a tree whose node types record every hook invocation.
// Hook bodies can be swapped per type at any time.
type fixture struct {
	t        *testing.T
	ctx      context.Context
	tree     *Tree
	events   []string
	canceled []string
	notes    []comms.Notification
	onUpdate map[string]hookFunc
	onDelete map[string]hookFunc
}

type recorder struct{ f *fixture }

func (p *recorder) Update(_ context.Context, n *node.Node, c *node.Context) error {
	p.f.events = append(p.f.events, "update "+n.Path().String())
	if fn := p.f.onUpdate[n.Type]; fn != nil {
		return fn(n, c)
	}
	return nil
}

func (p *recorder) Delete(_ context.Context, n *node.Node, c *node.Context) error {
	p.f.events = append(p.f.events, "delete "+n.Path().String())
	if fn := p.f.onDelete[n.Type]; fn != nil {
		return fn(n, c)
	}
	return nil
}

func (f *fixture) Cancel(key string) { f.canceled = append(f.canceled, key) }

func (f *fixture) Checkpoint(string) func() { return func() {} }

func (f *fixture) Send(n comms.Notification) bool {
	f.notes = append(f.notes, n)
	return true
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		t:        t,
		ctx:      ctxlog.WithLogger(context.Background(), logger),
		onUpdate: make(map[string]hookFunc),
		onDelete: make(map[string]hookFunc),
	}
}

func mustSchema(t *testing.T, name string, fields ...schema.Field) *schema.Object {
	t.Helper()
	o, err := schema.NewObject(name, fields...)
	require.NoError(t, err)
	return o
}

// types returns the fixture's node types:
//
//	root  composite, any child
//	group composite, any child
//	axis  composite, only "tick" children, state {bounds: list(number)}
//	tick  leaf
//	line  leaf, state {width: number = 1}
func (f *fixture) types() TypeMap {
	newRecorder := func() node.Behavior { return &recorder{f: f} }
	one := cty.NumberIntVal(1)
	return TypeMap{
		"root":  {Name: "root", Kind: node.Composite, Children: []string{node.AnyChild}, New: newRecorder},
		"group": {Name: "group", Kind: node.Composite, Children: []string{node.AnyChild}, New: newRecorder},
		"axis": {
			Name: "axis", Kind: node.Composite, Children: []string{"tick"}, New: newRecorder,
			Schema: mustSchema(f.t, "axis", schema.Field{Name: "bounds", Type: cty.List(cty.Number)}),
		},
		"tick": {Name: "tick", Kind: node.Leaf, New: newRecorder},
		"line": {
			Name: "line", Kind: node.Leaf, New: newRecorder,
			Schema: mustSchema(f.t, "line", schema.Field{Name: "width", Type: cty.Number, Default: &one}),
		},
	}
}

func (f *fixture) start(opts Options) *fixture {
	f.t.Helper()
	if opts.Renders == nil {
		opts.Renders = f
	}
	if opts.Notifier == nil {
		opts.Notifier = f
	}
	tr, err := New(f.ctx, inmemorystore.New(), f.types(), opts)
	require.NoError(f.t, err)
	f.tree = tr
	f.events = nil
	return f
}

func (f *fixture) update(path, typeName string, state cty.Value) error {
	return f.tree.ApplyUpdate(f.ctx, nodepath.MustParse(path), typeName, state)
}

func (f *fixture) mustUpdate(path, typeName string, state cty.Value) {
	f.t.Helper()
	require.NoError(f.t, f.update(path, typeName, state))
}

func (f *fixture) delete(path string) error {
	return f.tree.ApplyDelete(f.ctx, nodepath.MustParse(path))
}

func (f *fixture) get(path string) (*node.Node, error) {
	return f.tree.Get(nodepath.MustParse(path))
}

// paths lists every node path in walk order.
func (f *fixture) paths() []string {
	var out []string
	f.tree.Walk(func(n *node.Node) bool {
		out = append(out, n.Path().String())
		return true
	})
	return out
}

func (f *fixture) reset() { f.events = nil }

func bounds(lo, hi int64) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"bounds": cty.TupleVal([]cty.Value{cty.NumberIntVal(lo), cty.NumberIntVal(hi)}),
	})
}

func width(w int64) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{"width": cty.NumberIntVal(w)})
}

var empty = cty.EmptyObjectVal
