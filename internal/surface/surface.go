package surface

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a position on the surface, in pixels.
type Point struct {
	X float64 `cbor:"x"`
	Y float64 `cbor:"y"`
}

// Region is an axis-aligned rectangle on the surface.
type Region struct {
	X      float64 `cbor:"x"`
	Y      float64 `cbor:"y"`
	Width  float64 `cbor:"w"`
	Height float64 `cbor:"h"`
}

// Rect builds a region from two opposite corners.
func Rect(x0, y0, x1, y1 float64) Region {
	return Region{X: min(x0, x1), Y: min(y0, y1), Width: abs(x1 - x0), Height: abs(y1 - y0)}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Max returns the bottom-right corner.
func (r Region) Max() Point { return Point{X: r.X + r.Width, Y: r.Y + r.Height} }

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Point) bool {
	m := r.Max()
	return p.X >= r.X && p.X < m.X && p.Y >= r.Y && p.Y < m.Y
}

// Intersect returns the overlap of r and o, which is empty when they do not
// overlap.
func (r Region) Intersect(o Region) Region {
	rm, om := r.Max(), o.Max()
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(rm.X, om.X), min(rm.Y, om.Y)
	if x1 <= x0 || y1 <= y0 {
		return Region{X: x0, Y: y0}
	}
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Inset shrinks the region by d on every side. The result never has a
// negative size.
func (r Region) Inset(d float64) Region {
	return Region{X: r.X + d, Y: r.Y + d, Width: max(r.Width-2*d, 0), Height: max(r.Height-2*d, 0)}
}

func (r Region) String() string {
	return fmt.Sprintf("%gx%g@(%g,%g)", r.Width, r.Height, r.X, r.Y)
}

// Color is an 8-bit RGBA color.
type Color struct {
	R uint8 `cbor:"r"`
	G uint8 `cbor:"g"`
	B uint8 `cbor:"b"`
	A uint8 `cbor:"a"`
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". A missing alpha is opaque.
func ParseColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return Color{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Style controls how paths and text are drawn.
type Style struct {
	Stroke Color   `cbor:"stroke"`
	Fill   Color   `cbor:"fill"`
	Width  float64 `cbor:"width"`
	Font   string  `cbor:"font,omitempty"`
}

// Surface is the drawing target of render requests. Draws from different
// nodes share one surface; each draw is expected to scissor itself to its
// own region before drawing and release the scissor afterwards.
type Surface interface {
	// Bounds returns the full extent of the surface.
	Bounds() Region
	// Scissor restricts subsequent operations to the intersection of region
	// and the current scissor, until release is called.
	Scissor(region Region) (release func())
	// Erase clears region to transparent.
	Erase(region Region)
	StrokePath(points []Point, style Style)
	FillPath(points []Point, style Style)
	Text(at Point, text string, style Style)
}

// WithScissor runs fn with s scissored to region.
func WithScissor(s Surface, region Region, fn func()) {
	release := s.Scissor(region)
	defer release()
	fn()
}
