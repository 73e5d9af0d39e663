// Package aabb defines the axis-aligned bounding box primitive shared by the
// spatial index, the box tree, and their backends.
package aabb

// Number is the set of coordinate kinds a spatial structure can be built
// over. Widened area/cost accumulation for each kind is provided by the
// matching Scalar implementation rather than by operators on Number itself,
// since int64 needs a wider-than-64-bit accumulator that Go has no native
// numeric type for.
type Number interface {
	~float32 | ~float64 | ~int64
}

// Aabb2D is an axis-aligned bounding box in 2D, generic over its coordinate
// kind. The zero value is the degenerate box at the origin.
type Aabb2D[T Number] struct {
	MinX, MinY, MaxX, MaxY T
}

// New builds an Aabb2D from explicit min/max corners.
func New[T Number](minX, minY, maxX, maxY T) Aabb2D[T] {
	return Aabb2D[T]{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// FromXYWH builds an Aabb2D from an origin and a size.
func FromXYWH[T Number](x, y, w, h T) Aabb2D[T] {
	return Aabb2D[T]{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// ContainsPoint reports whether the box contains (x, y), inclusive of edges.
func (a Aabb2D[T]) ContainsPoint(x, y T) bool {
	return a.MinX <= x && a.MinY <= y && x <= a.MaxX && y <= a.MaxY
}

// Intersect returns the intersection of a and b. The result is empty (per
// IsEmpty) if a and b do not overlap.
func (a Aabb2D[T]) Intersect(b Aabb2D[T]) Aabb2D[T] {
	return Aabb2D[T]{
		MinX: maxT(a.MinX, b.MinX),
		MinY: maxT(a.MinY, b.MinY),
		MaxX: minT(a.MaxX, b.MaxX),
		MaxY: minT(a.MaxY, b.MaxY),
	}
}

// Intersects reports whether a and b overlap (touching edges count).
func (a Aabb2D[T]) Intersects(b Aabb2D[T]) bool {
	return !a.Intersect(b).IsEmpty()
}

// IsEmpty reports whether the box is inverted (max < min) along either
// axis. A zero-width or zero-height box, such as a single point, is not
// empty. Assumes no NaN coordinates.
func (a Aabb2D[T]) IsEmpty() bool {
	return a.MaxX < a.MinX || a.MaxY < a.MinY
}

// Union returns the smallest box containing both a and b.
func Union[T Number](a, b Aabb2D[T]) Aabb2D[T] {
	return Aabb2D[T]{
		MinX: minT(a.MinX, b.MinX),
		MinY: minT(a.MinY, b.MinY),
		MaxX: maxT(a.MaxX, b.MaxX),
		MaxY: maxT(a.MaxY, b.MaxY),
	}
}

func minT[T Number](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func maxT[T Number](a, b T) T {
	if b > a {
		return b
	}
	return a
}
