// Package geom provides the 2D geometry primitives the box tree composes
// local transforms and clips with: Rect, RoundedRect, and Affine.
package geom

import "github.com/understory-go/spatial/internal/spatial/aabb"

// Rect is an axis-aligned rectangle in world or local space, expressed as
// an origin and a size rather than min/max corners.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromXYWH builds a Rect from an origin and a size.
func RectFromXYWH(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// RectFromMinMax builds a Rect from min/max corners.
func RectFromMinMax(minX, minY, maxX, maxY float64) Rect {
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// RectFromAabb converts a float64 AABB to a Rect.
func RectFromAabb(b aabb.Aabb2D[float64]) Rect {
	return RectFromMinMax(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// ToAabb converts the rect to a float64 AABB for indexing.
func (r Rect) ToAabb() aabb.Aabb2D[float64] {
	return aabb.New(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// MinX, MinY, MaxX, MaxY return the rect's corners.
func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether (x, y) lies within the rect, inclusive of edges.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty reports whether the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both r and other. An empty
// operand is ignored rather than corrupting the result with a degenerate
// size.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	minX := minF(r.X, other.X)
	minY := minF(r.Y, other.Y)
	maxX := maxF(r.X+r.Width, other.X+other.Width)
	maxY := maxF(r.Y+r.Height, other.Y+other.Height)
	return RectFromMinMax(minX, minY, maxX, maxY)
}

// Intersect returns the overlap of r and other. The result IsEmpty if they
// do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	minX := maxF(r.X, other.X)
	minY := maxF(r.Y, other.Y)
	maxX := minF(r.X+r.Width, other.X+other.Width)
	maxY := minF(r.Y+r.Height, other.Y+other.Height)
	return RectFromMinMax(minX, minY, maxX, maxY)
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return !r.Intersect(other).IsEmpty()
}

func minF(a, b float64) float64 {
	if b < a {
		return b
	}
	return a
}

func maxF(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}

// RoundedRect is a rectangle with per-corner radii, used for local_clip.
// The radii only affect the precise point-in-clip test; the coarse AABB
// used for index acceleration is always the plain Rect.
type RoundedRect struct {
	Rect                               Rect
	RadiusTL, RadiusTR, RadiusBR, RadiusBL float64
}

// RoundedRectUniform builds a RoundedRect with the same radius on all four
// corners.
func RoundedRectUniform(r Rect, radius float64) RoundedRect {
	return RoundedRect{Rect: r, RadiusTL: radius, RadiusTR: radius, RadiusBR: radius, RadiusBL: radius}
}

// Contains performs a precise inside test against the rounded rectangle: a
// point inside the plain rect but within a corner's radius box must also
// fall within that corner's quarter-ellipse.
func (rr RoundedRect) Contains(x, y float64) bool {
	if !rr.Rect.Contains(x, y) {
		return false
	}
	r := rr.Rect

	var cx, cy, radius float64
	switch {
	case x < r.X+rr.RadiusTL && y < r.Y+rr.RadiusTL:
		cx, cy, radius = r.X+rr.RadiusTL, r.Y+rr.RadiusTL, rr.RadiusTL
	case x > r.X+r.Width-rr.RadiusTR && y < r.Y+rr.RadiusTR:
		cx, cy, radius = r.X+r.Width-rr.RadiusTR, r.Y+rr.RadiusTR, rr.RadiusTR
	case x > r.X+r.Width-rr.RadiusBR && y > r.Y+r.Height-rr.RadiusBR:
		cx, cy, radius = r.X+r.Width-rr.RadiusBR, r.Y+r.Height-rr.RadiusBR, rr.RadiusBR
	case x < r.X+rr.RadiusBL && y > r.Y+r.Height-rr.RadiusBL:
		cx, cy, radius = r.X+rr.RadiusBL, r.Y+r.Height-rr.RadiusBL, rr.RadiusBL
	default:
		return true
	}
	if radius <= 0 {
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}
