// Package axis provides the "axis" node type: a linear scale that owns the
// series drawn against it.
package axis

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/modules/root"
)

//go:embed manifest.hcl
var manifest []byte

// ScaleKey is the context key under which an axis publishes its Scale.
const ScaleKey = "axis.scale"

const tickLength = 5

// Module implements the registry.Module interface for this package.
type Module struct{}

// State is the axis state.
type State struct {
	Bounds   []float64 `cty:"bounds"`
	Location string    `cty:"location"`
	Size     float64   `cty:"size"`
	Ticks    float64   `cty:"ticks"`
	Color    string    `cty:"color"`
}

// Behavior publishes the scale and draws the axis band.
type Behavior struct {
	scale     Scale
	published bool
}

// Update implements node.Behavior.
func (b *Behavior) Update(ctx context.Context, n *node.Node, c *node.Context) error {
	var s State
	if err := n.Decode(&s); err != nil {
		return err
	}
	if len(s.Bounds) != 2 {
		return fmt.Errorf("bounds must hold [lower, upper], got %d values", len(s.Bounds))
	}
	viewport, err := node.ContextValue[surface.Region](c, root.ViewportKey)
	if err != nil {
		return err
	}
	scale, err := NewScale(s.Bounds[0], s.Bounds[1], Location(s.Location), s.Size, viewport)
	if err != nil {
		return err
	}
	if limit := scale.MaxTicks(); s.Ticks < 0 || s.Ticks > float64(limit) {
		return fmt.Errorf("ticks must be between 0 and %d, got %g", limit, s.Ticks)
	}
	stroke, err := surface.ParseColor(s.Color)
	if err != nil {
		return err
	}

	if !b.published || scale != b.scale {
		c.Set(ScaleKey, scale)
	} else {
		c.SetQuiet(ScaleKey, scale)
	}
	b.scale, b.published = scale, true

	r, err := scheduler.FromContext(c)
	if err != nil {
		return err
	}
	ticks := scale.Ticks(int(s.Ticks))
	r.RequestRender(scheduler.Request{
		Key:      n.RenderKey(),
		Priority: scheduler.High,
		Draw: func(_ context.Context, surf surface.Surface) (scheduler.Cleanup, error) {
			style := surface.Style{Stroke: stroke, Width: 1}
			surface.WithScissor(surf, scale.Band, func() {
				drawAxis(surf, scale, ticks, style)
			})
			return func(surf surface.Surface) { surf.Erase(scale.Band) }, nil
		},
	})
	return nil
}

// Delete implements node.Behavior.
func (b *Behavior) Delete(context.Context, *node.Node, *node.Context) error {
	b.published = false
	return nil
}

func drawAxis(surf surface.Surface, s Scale, ticks []float64, style surface.Style) {
	band := s.Band
	if s.Location == Left {
		x := band.Max().X
		surf.StrokePath([]surface.Point{{X: x, Y: band.Y}, {X: x, Y: band.Max().Y}}, style)
		for _, v := range ticks {
			y := s.Pos(v)
			surf.StrokePath([]surface.Point{{X: x - tickLength, Y: y}, {X: x, Y: y}}, style)
			surf.Text(surface.Point{X: band.X, Y: y}, format(v), style)
		}
		return
	}
	y := band.Y
	surf.StrokePath([]surface.Point{{X: band.X, Y: y}, {X: band.Max().X, Y: y}}, style)
	for _, v := range ticks {
		x := s.Pos(v)
		surf.StrokePath([]surface.Point{{X: x, Y: y}, {X: x, Y: y + tickLength}}, style)
		surf.Text(surface.Point{X: x, Y: y + 2*tickLength}, format(v), style)
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// Register registers the behavior and manifest with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBehavior("Axis", registry.Behavior[State](func() node.Behavior { return &Behavior{} }))
	r.RegisterManifest("axis/manifest.hcl", manifest)
}
