package hover

import (
	"reflect"
	"testing"

	"github.com/understory-go/spatial/internal/spatial/responder"
)

func enter(n int) Event[int] { return Event[int]{Node: n, Entering: true} }
func leave(n int) Event[int] { return Event[int]{Node: n, Entering: false} }

func TestHoverEnterOnFreshPath(t *testing.T) {
	s := New[int]()
	ev := s.UpdatePath([]int{1, 2, 3})
	want := []Event[int]{enter(1), enter(2), enter(3)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
	if !reflect.DeepEqual(s.CurrentPath(), []int{1, 2, 3}) {
		t.Fatalf("current path = %v", s.CurrentPath())
	}
}

func TestHoverLeaveToEmpty(t *testing.T) {
	s := New[int]()
	s.UpdatePath([]int{1, 2})
	ev := s.Clear()
	want := []Event[int]{leave(2), leave(1)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
	if len(s.CurrentPath()) != 0 {
		t.Fatalf("current path = %v, want empty", s.CurrentPath())
	}
}

func TestHoverBranchChange(t *testing.T) {
	s := New[int]()
	s.UpdatePath([]int{1, 2, 3})
	ev := s.UpdatePath([]int{1, 4})
	want := []Event[int]{leave(3), leave(2), enter(4)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
	if !reflect.DeepEqual(s.CurrentPath(), []int{1, 4}) {
		t.Fatalf("current path = %v", s.CurrentPath())
	}
}

func TestHoverDisjointPaths(t *testing.T) {
	s := New[int]()
	s.UpdatePath([]int{1, 2, 3})
	ev := s.UpdatePath([]int{4, 5})
	want := []Event[int]{leave(3), leave(2), leave(1), enter(4), enter(5)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
	if !reflect.DeepEqual(s.CurrentPath(), []int{4, 5}) {
		t.Fatalf("current path = %v", s.CurrentPath())
	}
}

func TestHoverDeepLCA(t *testing.T) {
	s := New[int]()
	s.UpdatePath([]int{1, 2, 3, 4, 5})
	ev := s.UpdatePath([]int{1, 2, 3, 9, 10})
	want := []Event[int]{leave(5), leave(4), enter(9), enter(10)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
	if !reflect.DeepEqual(s.CurrentPath(), []int{1, 2, 3, 9, 10}) {
		t.Fatalf("current path = %v", s.CurrentPath())
	}
}

func TestHoverSamePathNoEvents(t *testing.T) {
	s := New[int]()
	first := s.UpdatePath([]int{7, 8})
	want := []Event[int]{enter(7), enter(8)}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("first events = %v, want %v", first, want)
	}
	second := s.UpdatePath([]int{7, 8})
	if len(second) != 0 {
		t.Fatalf("second events = %v, want empty", second)
	}
	if !reflect.DeepEqual(s.CurrentPath(), []int{7, 8}) {
		t.Fatalf("current path = %v", s.CurrentPath())
	}
}

// Scenario from spec §8: prev=[r,a,b,c], new=[r,a,d,e], LCA=a.
func TestHoverEndToEndScenario(t *testing.T) {
	const r, a, b, c, d, e = 100, 101, 102, 103, 104, 105
	s := New[int]()
	s.UpdatePath([]int{r, a, b, c})
	ev := s.UpdatePath([]int{r, a, d, e})
	want := []Event[int]{leave(c), leave(b), enter(d), enter(e)}
	if !reflect.DeepEqual(ev, want) {
		t.Fatalf("events = %v, want %v", ev, want)
	}
}

type intWidgetLookup struct{}

func (intWidgetLookup) WidgetOf(n int) (int, bool) { return n, true }

func TestPathFromDispatchIncludesTarget(t *testing.T) {
	r := responder.NewRouter[int, int, struct{}](intWidgetLookup{})
	hits := []responder.ResolvedHit[int, struct{}]{
		{Node: 3, Path: []int{1, 2, 3}, DepthKey: responder.Z(0)},
	}
	seq := r.HandleWithHits(hits)
	path := PathFromDispatch(seq)
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
}
