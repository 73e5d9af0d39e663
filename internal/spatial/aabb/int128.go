package aabb

import "math/big"

// Int128 is a widened accumulator for int64 area/cost computations. Go has
// no native 128-bit integer, and an int64 coordinate range means a squared
// area can overflow int64, so area/cost accumulation for the Int64 scalar
// kind borrows math/big rather than risking silent wraparound.
type Int128 struct {
	v big.Int
}

// NewInt128 wraps an int64 value as an Int128.
func NewInt128(v int64) Int128 {
	var out Int128
	out.v.SetInt64(v)
	return out
}

// Add returns a + b.
func (a Int128) Add(b Int128) Int128 {
	var out Int128
	out.v.Add(&a.v, &b.v)
	return out
}

// Sub returns a - b.
func (a Int128) Sub(b Int128) Int128 {
	var out Int128
	out.v.Sub(&a.v, &b.v)
	return out
}

// Mul returns a * b.
func (a Int128) Mul(b Int128) Int128 {
	var out Int128
	out.v.Mul(&a.v, &b.v)
	return out
}

// Less reports whether a < b.
func (a Int128) Less(b Int128) bool {
	return a.v.Cmp(&b.v) < 0
}

// Equal reports whether a and b hold the same value. big.Int embeds a
// slice, so Int128 cannot use == directly.
func (a Int128) Equal(b Int128) bool {
	return a.v.Cmp(&b.v) == 0
}

// String renders the decimal value, primarily for debugging and tests.
func (a Int128) String() string {
	return a.v.String()
}
