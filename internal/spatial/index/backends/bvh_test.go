package backends

import (
	"testing"

	"github.com/understory-go/spatial/internal/spatial/aabb"
)

func TestBVHF64Basic(t *testing.T) {
	b := NewBVHF64()
	b.Insert(1, aabb.New(0.0, 0.0, 10.0, 10.0))
	b.Insert(2, aabb.New(5.0, 5.0, 15.0, 15.0))
	b.Commit()

	hits := b.QueryPoint(6, 6)
	if len(hits) < 2 {
		t.Fatalf("QueryPoint(6,6) = %v, want at least 2 hits", hits)
	}
	q := b.QueryRect(aabb.New(12.0, 12.0, 20.0, 20.0))
	if len(q) == 0 {
		t.Fatalf("QueryRect = %v, want at least one hit", q)
	}
}

func TestBVHF64UpdateMoveCorrectness(t *testing.T) {
	b := NewBVHF64()
	b.Insert(0, aabb.New(0.0, 0.0, 10.0, 10.0))
	b.Insert(1, aabb.New(12.0, 0.0, 22.0, 10.0))
	b.Commit()

	b.Update(0, aabb.New(100.0, 100.0, 110.0, 110.0))
	b.Commit()

	if got := b.QueryPoint(5, 5); len(got) != 0 {
		t.Fatalf("old position still hits: %v", got)
	}
	if got := b.QueryPoint(105, 105); len(got) != 1 || got[0] != 0 {
		t.Fatalf("new position = %v, want [0]", got)
	}
	if got := b.QueryPoint(15, 5); len(got) != 1 || got[0] != 1 {
		t.Fatalf("neighbor slot disturbed: %v", got)
	}
}

func TestBVHI64UpdateChurnSmall(t *testing.T) {
	b := NewBVHI64()
	b.Insert(0, aabb.New[int64](0, 0, 10, 10))
	b.Insert(1, aabb.New[int64](12, 0, 22, 10))
	b.Commit()

	for i := 0; i < 10; i++ {
		b.Update(0, aabb.New[int64](100, 100, 110, 110))
		b.Commit()
		b.Update(0, aabb.New[int64](0, 0, 10, 10))
		b.Commit()
	}

	if got := b.QueryPoint(5, 5); len(got) != 1 || got[0] != 0 {
		t.Fatalf("final position = %v, want [0]", got)
	}
	if got := b.QueryPoint(105, 105); len(got) != 0 {
		t.Fatalf("stale position still hits: %v", got)
	}
}

func TestBVHSplitThenUpdatesOnInternal(t *testing.T) {
	b := NewBVHF64()
	const n = 12
	current := make([]aabb.Aabb2D[float64], n)
	for i := 0; i < n; i++ {
		x0 := float64(i) * 20.0
		a := aabb.New(x0, 0.0, x0+10.0, 10.0)
		current[i] = a
		b.Insert(i, a)
	}
	b.Commit()

	if b.root == nil || b.root.leaf {
		t.Fatalf("expected an internal root after bulk-building 12 items past leaf_max 4")
	}

	for _, i := range []int{0, 5, 9} {
		nb := aabb.New(1000.0+float64(i)*5.0, 1000.0, 1010.0+float64(i)*5.0, 1010.0)
		b.Update(i, nb)
		current[i] = nb
	}
	b.Commit()

	for i, bb := range current {
		mx := (bb.MinX + bb.MaxX) * 0.5
		my := (bb.MinY + bb.MaxY) * 0.5
		hits := b.QueryPoint(mx, my)
		found := false
		for _, s := range hits {
			if s == i {
				found = true
			}
		}
		if !found {
			t.Fatalf("midpoint lookup for slot %d missed, hits=%v", i, hits)
		}
	}
}

func TestBVHRebuildVsRefitThreshold(t *testing.T) {
	b := NewBVH[int64](aabb.Int64Scalar{}, 4, 0.2)
	for i := int64(0); i < 20; i++ {
		b.Insert(int(i), aabb.New(i*10, 0, i*10+5, 5))
	}
	b.Commit()
	baselineRoot := b.root

	// A single update (remove+insert) is a small dirty fraction (2/20): refit, same root pointer.
	b.Update(0, aabb.New[int64](1, 1, 6, 6))
	b.Commit()
	if b.root != baselineRoot {
		t.Fatalf("small dirty fraction should refit in place, not rebuild")
	}

	// Removing most entries blows past the rebuild threshold.
	for i := 1; i < 18; i++ {
		b.Remove(i)
	}
	b.Commit()
	if got := b.QueryPoint(1, 1); len(got) != 1 || got[0] != 0 {
		t.Fatalf("after rebuild, slot 0 query = %v, want [0]", got)
	}
}
