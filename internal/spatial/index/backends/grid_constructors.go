package backends

import "math"

// NewGridF64 builds a uniform grid for float64 coordinates.
func NewGridF64(cellW, cellH, originX, originY float64) *Grid[float64] {
	return NewGrid(cellW, cellH, originX, originY, func(num, denom float64) int64 {
		return int64(math.Floor(num / denom))
	})
}

// NewGridF32 builds a uniform grid for float32 coordinates.
func NewGridF32(cellW, cellH, originX, originY float32) *Grid[float32] {
	return NewGrid(cellW, cellH, originX, originY, func(num, denom float32) int64 {
		return int64(math.Floor(float64(num) / float64(denom)))
	})
}

// NewGridI64 builds a uniform grid for int64 coordinates.
func NewGridI64(cellW, cellH, originX, originY int64) *Grid[int64] {
	return NewGrid(cellW, cellH, originX, originY, func(num, denom int64) int64 {
		q := num / denom
		if (num%denom != 0) && ((num < 0) != (denom < 0)) {
			q--
		}
		return q
	})
}
