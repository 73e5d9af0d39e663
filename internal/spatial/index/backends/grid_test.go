package backends

import (
	"testing"

	"github.com/understory-go/spatial/internal/spatial/aabb"
)

func TestGridInsertQueryRemove(t *testing.T) {
	g := NewGridF64(10, 10, 0, 0)
	g.Insert(0, aabb.New[float64](2, 2, 8, 8))
	g.Insert(1, aabb.New[float64](50, 50, 60, 60))

	hits := g.QueryPoint(5, 5)
	if len(hits) != 1 || hits[0] != 0 {
		t.Fatalf("QueryPoint = %v, want [0]", hits)
	}

	rectHits := g.QueryRect(aabb.New[float64](0, 0, 100, 100))
	if len(rectHits) != 2 {
		t.Fatalf("QueryRect = %v, want both slots", rectHits)
	}

	g.Remove(0)
	if got := g.QueryPoint(5, 5); len(got) != 0 {
		t.Fatalf("QueryPoint after remove = %v, want empty", got)
	}
}

func TestGridNegativeCoordinatesWithOrigin(t *testing.T) {
	g := NewGridF64(10, 10, -50, -50)
	g.Insert(0, aabb.New[float64](-45, -45, -42, -42))

	if got := g.QueryPoint(-43, -43); len(got) != 1 {
		t.Fatalf("expected hit for negative coordinates, got %v", got)
	}
}

func TestGridUpdateMoves(t *testing.T) {
	g := NewGridI64(10, 10, 0, 0)
	g.Insert(0, aabb.New[int64](0, 0, 5, 5))
	g.Update(0, aabb.New[int64](100, 100, 105, 105))

	if got := g.QueryPoint(2, 2); len(got) != 0 {
		t.Fatalf("expected no hit at old position, got %v", got)
	}
	if got := g.QueryPoint(102, 102); len(got) != 1 {
		t.Fatalf("expected hit at new position, got %v", got)
	}
}
