// Package root provides the behavior of the tree's root node.
package root

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
)

//go:embed manifest.hcl
var manifest []byte

const (
	// BoundsKey is the seed context key holding the surface bounds.
	BoundsKey = "surface.bounds"
	// ViewportKey is the context key under which the root publishes the
	// region its descendants draw into.
	ViewportKey = "viewport"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// State is the root's state.
type State struct {
	Padding    float64 `cty:"padding"`
	Background *string `cty:"background"`
}

// Behavior publishes the viewport and paints the optional background.
type Behavior struct {
	viewport  surface.Region
	published bool
}

// Update implements node.Behavior.
func (b *Behavior) Update(_ context.Context, n *node.Node, c *node.Context) error {
	var s State
	if err := n.Decode(&s); err != nil {
		return err
	}
	bounds, err := node.ContextValue[surface.Region](c, BoundsKey)
	if err != nil {
		return err
	}
	if s.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %g", s.Padding)
	}

	viewport := bounds.Inset(s.Padding)
	if !b.published || viewport != b.viewport {
		c.Set(ViewportKey, viewport)
	} else {
		c.SetQuiet(ViewportKey, viewport)
	}
	b.viewport, b.published = viewport, true

	r, err := scheduler.FromContext(c)
	if err != nil {
		return err
	}
	if s.Background == nil {
		r.Cancel(n.RenderKey())
		return nil
	}
	fill, err := surface.ParseColor(*s.Background)
	if err != nil {
		return err
	}
	r.RequestRender(scheduler.Request{
		Key:      n.RenderKey(),
		Priority: scheduler.High,
		Draw: func(_ context.Context, surf surface.Surface) (scheduler.Cleanup, error) {
			surface.WithScissor(surf, viewport, func() {
				surf.FillPath(corners(viewport), surface.Style{Fill: fill})
			})
			return func(surf surface.Surface) { surf.Erase(viewport) }, nil
		},
	})
	return nil
}

// Delete implements node.Behavior. The root is never deleted.
func (b *Behavior) Delete(context.Context, *node.Node, *node.Context) error { return nil }

func corners(r surface.Region) []surface.Point {
	m := r.Max()
	return []surface.Point{{X: r.X, Y: r.Y}, {X: m.X, Y: r.Y}, {X: m.X, Y: m.Y}, {X: r.X, Y: m.Y}}
}

// Register registers the behavior and manifest with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBehavior("Root", registry.Behavior[State](func() node.Behavior { return &Behavior{} }))
	r.RegisterManifest("root/manifest.hcl", manifest)
}
