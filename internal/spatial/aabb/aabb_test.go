package aabb

import "testing"

func TestContainsPoint(t *testing.T) {
	box := New[int64](0, 0, 10, 10)
	if !box.ContainsPoint(5, 5) {
		t.Fatal("expected point inside box to be contained")
	}
	if !box.ContainsPoint(0, 0) || !box.ContainsPoint(10, 10) {
		t.Fatal("expected edges to be contained")
	}
	if box.ContainsPoint(11, 5) {
		t.Fatal("expected point outside box to not be contained")
	}
}

func TestIntersectAndIsEmpty(t *testing.T) {
	a := New[int64](0, 0, 10, 10)
	b := New[int64](5, 5, 15, 15)
	got := a.Intersect(b)
	want := New[int64](5, 5, 10, 10)
	if got != want {
		t.Fatalf("intersect = %+v, want %+v", got, want)
	}

	c := New[int64](20, 20, 30, 30)
	if !a.Intersect(c).IsEmpty() {
		t.Fatal("expected disjoint boxes to intersect empty")
	}
	if a.Intersects(c) {
		t.Fatal("expected Intersects to report false for disjoint boxes")
	}
	if !a.Intersects(b) {
		t.Fatal("expected Intersects to report true for overlapping boxes")
	}
}

func TestUnion(t *testing.T) {
	a := New[float64](0, 0, 10, 10)
	b := New[float64](-5, 5, 5, 20)
	got := Union(a, b)
	want := New[float64](-5, 0, 10, 20)
	if got != want {
		t.Fatalf("union = %+v, want %+v", got, want)
	}
}

func TestFromXYWH(t *testing.T) {
	got := FromXYWH[float32](1, 2, 3, 4)
	want := New[float32](1, 2, 4, 6)
	if got != want {
		t.Fatalf("FromXYWH = %+v, want %+v", got, want)
	}
}

func TestInt64ScalarMidOverflowSafe(t *testing.T) {
	s := Int64Scalar{}
	const big = int64(1) << 62
	got := s.Mid(big, big+2)
	want := big + 1
	if got != want {
		t.Fatalf("Mid(%d, %d) = %d, want %d", big, big+2, got, want)
	}
}

func TestAreaWidening(t *testing.T) {
	f64 := Float64Scalar{}.Area(New[float64](0, 0, 3, 4))
	if f64.(Float64Cost) != Float64Cost(12) {
		t.Fatalf("float64 area = %v, want 12", f64)
	}

	i64 := Int64Scalar{}.Area(New[int64](0, 0, 1<<40, 1<<40))
	want := Int128Cost(NewInt128(1 << 40).Mul(NewInt128(1 << 40)))
	if !i64.(Int128Cost).Equal(want) {
		t.Fatalf("int64 area mismatch")
	}
}

func TestAreaInvertedBoxIsZero(t *testing.T) {
	box := New[float64](10, 10, 0, 0)
	area := Float64Scalar{}.Area(box)
	if area.(Float64Cost) != 0 {
		t.Fatalf("inverted box area = %v, want 0", area)
	}
}
