package backends

import (
	"testing"

	"github.com/understory-go/spatial/internal/spatial/aabb"
)

func TestFlatVecInsertQueryRemove(t *testing.T) {
	f := NewFlatVec[int64]()
	f.Insert(0, aabb.New[int64](0, 0, 10, 10))
	f.Insert(2, aabb.New[int64](20, 20, 30, 30))

	hits := f.QueryPoint(5, 5)
	if len(hits) != 1 || hits[0] != 0 {
		t.Fatalf("QueryPoint = %v, want [0]", hits)
	}

	f.Remove(0)
	if got := f.QueryPoint(5, 5); len(got) != 0 {
		t.Fatalf("QueryPoint after remove = %v, want empty", got)
	}

	rectHits := f.QueryRect(aabb.New[int64](15, 15, 25, 25))
	if len(rectHits) != 1 || rectHits[0] != 2 {
		t.Fatalf("QueryRect = %v, want [2]", rectHits)
	}
}

func TestFlatVecUpdateMoves(t *testing.T) {
	f := NewFlatVec[int64]()
	f.Insert(0, aabb.New[int64](0, 0, 10, 10))
	f.Update(0, aabb.New[int64](100, 100, 110, 110))

	if got := f.QueryPoint(5, 5); len(got) != 0 {
		t.Fatalf("expected no hit at old position, got %v", got)
	}
	if got := f.QueryPoint(105, 105); len(got) != 1 {
		t.Fatalf("expected hit at new position, got %v", got)
	}
}
