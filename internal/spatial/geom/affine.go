package geom

import "math"

// Affine is a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// Where:
// - a, d = scale
// - b, c = skew/rotation
// - e, f = translation
type Affine [6]float64

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation transform.
func Translate(tx, ty float64) Affine {
	return Affine{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale transform.
func Scale(sx, sy float64) Affine {
	return Affine{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation transform (angle in radians).
func Rotate(radians float64) Affine {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Affine{cos, sin, -sin, cos, 0, 0}
}

// Mul composes two transforms: result = m applied after other, i.e.
// result.Apply(p) == m.Apply(other.Apply(p)).
func (m Affine) Mul(other Affine) Affine {
	return Affine{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect transforms a rectangle's four corners and returns their
// axis-aligned bounding box, widening the box under rotation/skew.
func (m Affine) TransformRect(r Rect) Rect {
	x0, y0 := m.Apply(r.X, r.Y)
	x1, y1 := m.Apply(r.X+r.Width, r.Y)
	x2, y2 := m.Apply(r.X+r.Width, r.Y+r.Height)
	x3, y3 := m.Apply(r.X, r.Y+r.Height)

	minX := minF(x0, minF(x1, minF(x2, x3)))
	minY := minF(y0, minF(y1, minF(y2, y3)))
	maxX := maxF(x0, maxF(x1, maxF(x2, x3)))
	maxY := maxF(y0, maxF(y1, maxF(y2, y3)))

	return RectFromMinMax(minX, minY, maxX, maxY)
}

// Determinant returns the determinant of the linear part of m.
func (m Affine) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse transform, or Identity if m is singular.
func (m Affine) Invert() Affine {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}
	invDet := 1.0 / det
	return Affine{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// IsIdentity reports whether m is the identity transform within epsilon.
func (m Affine) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
