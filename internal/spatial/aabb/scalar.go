package aabb

// Cost is a widened accumulator value used for SAH-style area/cost
// comparisons in the R-tree and BVH backends. Float64Cost backs the
// Float32 and Float64 scalar kinds; Int128Cost backs the Int64 kind.
type Cost interface {
	Add(Cost) Cost
	Sub(Cost) Cost
	Less(Cost) bool
}

// Float64Cost is the widened accumulator for float32 and float64 AABBs.
type Float64Cost float64

func (a Float64Cost) Add(b Cost) Cost  { return a + b.(Float64Cost) }
func (a Float64Cost) Sub(b Cost) Cost  { return a - b.(Float64Cost) }
func (a Float64Cost) Less(b Cost) bool { return a < b.(Float64Cost) }

// Int128Cost is the widened accumulator for int64 AABBs.
type Int128Cost Int128

func (a Int128Cost) Add(b Cost) Cost  { return Int128Cost(Int128(a).Add(Int128(b.(Int128Cost)))) }
func (a Int128Cost) Sub(b Cost) Cost  { return Int128Cost(Int128(a).Sub(Int128(b.(Int128Cost)))) }
func (a Int128Cost) Less(b Cost) bool { return Int128(a).Less(Int128(b.(Int128Cost))) }

// Equal reports whether a and b hold the same widened value.
func (a Int128Cost) Equal(b Int128Cost) bool { return Int128(a).Equal(Int128(b)) }

// Scalar supplies the per-coordinate-kind operations the R-tree and BVH
// backends need beyond plain comparison: zeroing, midpoints for centroid
// sorts, and a widened area/cost computation. Implemented once per Number
// kind (Float32, Float64, Int64) rather than as a generic associated type,
// since Go generics have no associated-type mechanism to let a single
// Scalar[T] interface name a per-T accumulator type.
type Scalar[T Number] interface {
	Zero() T
	MaxZero(v T) T
	Mid(a, b T) T
	Area(box Aabb2D[T]) Cost
}

// Float32Scalar implements Scalar for float32 AABBs, widening area to
// float64 as the Rust original does.
type Float32Scalar struct{}

func (Float32Scalar) Zero() float32          { return 0 }
func (Float32Scalar) MaxZero(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}
func (Float32Scalar) Mid(a, b float32) float32 { return 0.5 * (a + b) }
func (Float32Scalar) Area(box Aabb2D[float32]) Cost {
	w := Float32Scalar{}.MaxZero(box.MaxX - box.MinX)
	h := Float32Scalar{}.MaxZero(box.MaxY - box.MinY)
	return Float64Cost(float64(w) * float64(h))
}

// Float64Scalar implements Scalar for float64 AABBs.
type Float64Scalar struct{}

func (Float64Scalar) Zero() float64 { return 0 }
func (Float64Scalar) MaxZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
func (Float64Scalar) Mid(a, b float64) float64 { return 0.5 * (a + b) }
func (Float64Scalar) Area(box Aabb2D[float64]) Cost {
	w := Float64Scalar{}.MaxZero(box.MaxX - box.MinX)
	h := Float64Scalar{}.MaxZero(box.MaxY - box.MinY)
	return Float64Cost(w * h)
}

// Int64Scalar implements Scalar for int64 AABBs, widening area to Int128
// and computing overflow-safe midpoints via bitwise averaging.
type Int64Scalar struct{}

func (Int64Scalar) Zero() int64 { return 0 }
func (Int64Scalar) MaxZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Mid computes (a+b)/2 without overflow via (a&b) + ((a^b)>>1).
func (Int64Scalar) Mid(a, b int64) int64 { return (a & b) + ((a ^ b) >> 1) }

func (Int64Scalar) Area(box Aabb2D[int64]) Cost {
	w := Int64Scalar{}.MaxZero(box.MaxX - box.MinX)
	h := Int64Scalar{}.MaxZero(box.MaxY - box.MinY)
	return Int128Cost(NewInt128(w).Mul(NewInt128(h)))
}
