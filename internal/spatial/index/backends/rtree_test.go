package backends

import (
	"testing"

	"github.com/understory-go/spatial/internal/spatial/aabb"
)

func TestRTreeI64BasicInsertQuery(t *testing.T) {
	r := NewRTreeI64()
	r.Insert(1, aabb.New[int64](0, 0, 10, 10))
	r.Insert(2, aabb.New[int64](5, 5, 15, 15))

	hits := r.QueryPoint(6, 6)
	if len(hits) != 2 {
		t.Fatalf("QueryPoint(6,6) = %v, want 2 hits", hits)
	}
	seen := map[int]bool{}
	for _, s := range hits {
		seen[s] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("QueryPoint(6,6) = %v, want slots 1 and 2", hits)
	}

	rectHits := r.QueryRect(aabb.New[int64](12, 12, 20, 20))
	if len(rectHits) != 1 || rectHits[0] != 2 {
		t.Fatalf("QueryRect = %v, want [2]", rectHits)
	}
}

func TestRTreeI64UpdateRemove(t *testing.T) {
	r := NewRTreeI64()
	r.Insert(0, aabb.New[int64](0, 0, 10, 10))

	r.Update(0, aabb.New[int64](100, 100, 110, 110))
	if got := r.QueryPoint(1, 1); len(got) != 0 {
		t.Fatalf("QueryPoint(1,1) after move = %v, want empty", got)
	}
	if got := r.QueryPoint(105, 105); len(got) != 1 {
		t.Fatalf("QueryPoint(105,105) after move = %v, want one hit", got)
	}

	r.Remove(0)
	if got := r.QueryPoint(105, 105); len(got) != 0 {
		t.Fatalf("QueryPoint(105,105) after remove = %v, want empty", got)
	}
}

func TestRTreeUpdateInPlaceCorrectness(t *testing.T) {
	r := NewRTreeI64()
	r.Insert(0, aabb.New[int64](0, 0, 10, 10))
	r.Insert(1, aabb.New[int64](12, 0, 22, 10))

	rootLeafBefore := r.root.leaf

	r.Update(0, aabb.New[int64](100, 100, 110, 110))

	if r.root.leaf != rootLeafBefore {
		t.Fatalf("update restructured the root: leaf was %v, now %v", rootLeafBefore, r.root.leaf)
	}

	if got := r.QueryPoint(5, 5); len(got) != 0 {
		t.Fatalf("old position still hits: %v", got)
	}
	if got := r.QueryPoint(105, 105); len(got) != 1 || got[0] != 0 {
		t.Fatalf("new position = %v, want [0]", got)
	}
	if got := r.QueryPoint(15, 5); len(got) != 1 || got[0] != 1 {
		t.Fatalf("neighbor slot disturbed: %v", got)
	}
}

func TestRTreeQuadraticSplitOnOverflow(t *testing.T) {
	r := NewRTree[int64](aabb.Int64Scalar{}, 2, 4)
	for i := int64(0); i < 20; i++ {
		r.Insert(int(i), aabb.New(i*10, 0, i*10+5, 5))
	}
	for i := int64(0); i < 20; i++ {
		hits := r.QueryPoint(i*10+1, 1)
		found := false
		for _, s := range hits {
			if s == int(i) {
				found = true
			}
		}
		if !found {
			t.Fatalf("slot %d not found after splits, hits=%v", i, hits)
		}
	}
}

func TestRTreeRemoveAllEmptiesRoot(t *testing.T) {
	r := NewRTreeI64()
	r.Insert(0, aabb.New[int64](0, 0, 1, 1))
	r.Insert(1, aabb.New[int64](2, 2, 3, 3))
	r.Remove(0)
	r.Remove(1)
	if r.root != nil {
		t.Fatalf("expected nil root after removing all entries")
	}
	if got := r.QueryPoint(0, 0); len(got) != 0 {
		t.Fatalf("QueryPoint after emptying tree = %v, want empty", got)
	}
}
