package axis

import (
	"fmt"

	"github.com/vk/aether/internal/surface"
)

// Location is the viewport edge an axis is attached to.
type Location string

const (
	Bottom Location = "bottom"
	Left   Location = "left"
)

// Scale maps domain values to pixels along an axis.
type Scale struct {
	Lower, Upper float64
	Location     Location
	// Band is the strip the axis itself draws into.
	Band surface.Region
	// Plot is the rest of the viewport, where series draw.
	Plot surface.Region
}

// NewScale splits viewport into the axis band and the plot area.
func NewScale(lower, upper float64, loc Location, size float64, viewport surface.Region) (Scale, error) {
	if lower == upper {
		return Scale{}, fmt.Errorf("empty domain [%g, %g]", lower, upper)
	}
	size = min(max(size, 0), viewport.Width, viewport.Height)
	s := Scale{Lower: lower, Upper: upper, Location: loc}
	switch loc {
	case Bottom:
		s.Band = surface.Region{X: viewport.X, Y: viewport.Max().Y - size, Width: viewport.Width, Height: size}
		s.Plot = surface.Region{X: viewport.X, Y: viewport.Y, Width: viewport.Width, Height: viewport.Height - size}
	case Left:
		s.Band = surface.Region{X: viewport.X, Y: viewport.Y, Width: size, Height: viewport.Height}
		s.Plot = surface.Region{X: viewport.X + size, Y: viewport.Y, Width: viewport.Width - size, Height: viewport.Height}
	default:
		return Scale{}, fmt.Errorf("unknown location %q", loc)
	}
	return s, nil
}

// Pos returns the pixel coordinate of v along the axis: an x coordinate for
// bottom axes, a y coordinate (growing upwards) for left axes.
func (s Scale) Pos(v float64) float64 {
	t := (v - s.Lower) / (s.Upper - s.Lower)
	if s.Location == Left {
		return s.Plot.Max().Y - t*s.Plot.Height
	}
	return s.Plot.X + t*s.Plot.Width
}

// Point places a sample: along is a domain value on this axis, across is a
// fraction in [0, 1] of the plot's other dimension.
func (s Scale) Point(along, across float64) surface.Point {
	if s.Location == Left {
		return surface.Point{X: s.Plot.X + across*s.Plot.Width, Y: s.Pos(along)}
	}
	return surface.Point{X: s.Pos(along), Y: s.Plot.Max().Y - across*s.Plot.Height}
}

// MaxTicks is the most ticks the axis can place, one per pixel of the plot
// along the axis.
func (s Scale) MaxTicks() int {
	length := s.Plot.Width
	if s.Location == Left {
		length = s.Plot.Height
	}
	return int(max(length, 0)) + 1
}

// Ticks returns n evenly spaced domain values from Lower to Upper.
func (s Scale) Ticks(n int) []float64 {
	if n < 2 {
		return []float64{s.Lower}
	}
	out := make([]float64, n)
	step := (s.Upper - s.Lower) / float64(n-1)
	for i := range out {
		out[i] = s.Lower + float64(i)*step
	}
	return out
}
