// Package line provides the "line" node type.
package line

import (
	"context"
	_ "embed"
	"fmt"
	"slices"

	"github.com/vk/aether/internal/node"
	"github.com/vk/aether/internal/registry"
	"github.com/vk/aether/internal/scheduler"
	"github.com/vk/aether/internal/surface"
	"github.com/vk/aether/modules/axis"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// State is the line state.
type State struct {
	Values []float64  `cty:"values"`
	Range  *[]float64 `cty:"range"`
	Width  float64    `cty:"width"`
	Color  string     `cty:"color"`
}

// Behavior strokes the series inside the axis plot area.
type Behavior struct{}

// Update implements node.Behavior.
func (Behavior) Update(_ context.Context, n *node.Node, c *node.Context) error {
	var s State
	if err := n.Decode(&s); err != nil {
		return err
	}
	scale, err := node.ContextValue[axis.Scale](c, axis.ScaleKey)
	if err != nil {
		return err
	}
	stroke, err := surface.ParseColor(s.Color)
	if err != nil {
		return err
	}
	lo, hi, err := valueRange(s)
	if err != nil {
		return err
	}

	points := Project(scale, s.Values, lo, hi)
	r, err := scheduler.FromContext(c)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		r.Cancel(n.RenderKey())
		return nil
	}
	plot := scale.Plot
	r.RequestRender(scheduler.Request{
		Key:      n.RenderKey(),
		Priority: scheduler.Low,
		Draw: func(_ context.Context, surf surface.Surface) (scheduler.Cleanup, error) {
			surface.WithScissor(surf, plot, func() {
				surf.StrokePath(points, surface.Style{Stroke: stroke, Width: s.Width})
			})
			dirty := extent(points, s.Width).Intersect(plot)
			return func(surf surface.Surface) { surf.Erase(dirty) }, nil
		},
	})
	return nil
}

// Delete implements node.Behavior.
func (Behavior) Delete(context.Context, *node.Node, *node.Context) error { return nil }

func valueRange(s State) (lo, hi float64, err error) {
	if s.Range != nil {
		r := *s.Range
		if len(r) != 2 || r[0] == r[1] {
			return 0, 0, fmt.Errorf("range must hold two distinct values, got %v", r)
		}
		return r[0], r[1], nil
	}
	if len(s.Values) == 0 {
		return 0, 1, nil
	}
	lo, hi = slices.Min(s.Values), slices.Max(s.Values)
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi, nil
}

// Project places the samples in the plot area of scale, mapping values in
// [lo, hi] across the plot.
func Project(scale axis.Scale, values []float64, lo, hi float64) []surface.Point {
	points := make([]surface.Point, len(values))
	for i, v := range values {
		points[i] = scale.Point(float64(i), (v-lo)/(hi-lo))
	}
	return points
}

// extent is the bounding box of points grown by half the stroke width.
func extent(points []surface.Point, width float64) surface.Region {
	x0, y0 := points[0].X, points[0].Y
	x1, y1 := x0, y0
	for _, p := range points[1:] {
		x0, y0 = min(x0, p.X), min(y0, p.Y)
		x1, y1 = max(x1, p.X), max(y1, p.Y)
	}
	return surface.Rect(x0, y0, x1, y1).Inset(-width / 2)
}

// Register registers the behavior and manifest with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBehavior("Line", registry.Behavior[State](func() node.Behavior { return Behavior{} }))
	r.RegisterManifest("line/manifest.hcl", manifest)
}
