// Package label provides the "label" node type.
package label

import (
	"context"
	_ "embed"
	"unicode/utf8"

	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/modules/axis"
	"github.com/vk/aether/modules/root"
)

//go:embed manifest.hcl
var manifest []byte

// Approximate glyph box used to size the erase region.
const (
	glyphWidth  = 7
	glyphHeight = 12
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// State is the label state.
type State struct {
	Text  string  `cty:"text"`
	X     float64 `cty:"x"`
	Y     float64 `cty:"y"`
	Color string  `cty:"color"`
}

// Behavior draws the text.
type Behavior struct{}

// Origin returns the point labels are positioned from: the band of the
// enclosing axis if there is one, the viewport otherwise.
func Origin(c *node.Context) (surface.Point, error) {
	if scale, ok := node.OptionalContextValue[axis.Scale](c, axis.ScaleKey); ok {
		return surface.Point{X: scale.Band.X, Y: scale.Band.Y}, nil
	}
	viewport, err := node.ContextValue[surface.Region](c, root.ViewportKey)
	if err != nil {
		return surface.Point{}, err
	}
	return surface.Point{X: viewport.X, Y: viewport.Y}, nil
}

// Update implements node.Behavior.
func (Behavior) Update(ctx context.Context, n *node.Node, c *node.Context) error {
	var s State
	if err := n.Decode(&s); err != nil {
		return err
	}
	origin, err := Origin(c)
	if err != nil {
		return err
	}
	fill, err := surface.ParseColor(s.Color)
	if err != nil {
		return err
	}
	r, err := scheduler.FromContext(c)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Label updated.", "text", s.Text)

	at := surface.Point{X: origin.X + s.X, Y: origin.Y + s.Y}
	box := surface.Region{X: at.X, Y: at.Y, Width: float64(utf8.RuneCountInString(s.Text) * glyphWidth), Height: glyphHeight}
	r.RequestRender(scheduler.Request{
		Key:      n.RenderKey(),
		Priority: scheduler.Low,
		Draw: func(_ context.Context, surf surface.Surface) (scheduler.Cleanup, error) {
			surface.WithScissor(surf, box, func() {
				surf.Text(at, s.Text, surface.Style{Fill: fill})
			})
			return func(surf surface.Surface) { surf.Erase(box) }, nil
		},
	})
	return nil
}

// Delete implements node.Behavior.
func (Behavior) Delete(context.Context, *node.Node, *node.Context) error { return nil }

// Register registers the behavior and manifest with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBehavior("Label", registry.Behavior[State](func() node.Behavior { return Behavior{} }))
	r.RegisterManifest("label/manifest.hcl", manifest)
}
