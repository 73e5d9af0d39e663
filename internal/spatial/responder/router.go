package responder

import "sort"

// Router is a deterministic responder chain router: it ranks a set of
// ResolvedHit values, picks exactly one target, and emits a capture →
// target → bubble dispatch sequence for that target's root→target path.
//
// Construct with NewRouter when every ResolvedHit always carries a
// path, or NewRouterWithParent to enable path reconstruction via a
// ParentLookup. Configure optional policies with SetDefaultTieBreak,
// SetScope, SetFocus, and SetCapture, then call HandleWithHits per
// input event.
//
// The router has no inherent ordering over an arbitrary K, so the
// Newer/Older/MinID/MaxID tie-break policies are inert until a
// comparator is injected with SetNewerComparator or SetIDComparator —
// callers that key the router on a generational handle (such as a box
// tree NodeId) should supply one; see boxtreeadapter.
type Router[K comparable, W any, M any] struct {
	lookup          WidgetLookup[K, W]
	parent          ParentLookup[K]
	defaultTieBreak TieBreakPolicy
	scope           func(K) bool
	focus           *K
	captured        *K
	newer           func(a, b K) bool
	idCmp           func(a, b K) int
}

// NewRouter creates a router with default policies and no parent lookup:
// every ResolvedHit must carry a full path, or its node is treated as its
// own root.
func NewRouter[K comparable, W any, M any](lookup WidgetLookup[K, W]) *Router[K, W, M] {
	return NewRouterWithParent[K, W, M](lookup, NoParent[K]{})
}

// NewRouterWithParent creates a router with an explicit ParentLookup used
// to reconstruct a path when a ResolvedHit's Path is nil.
func NewRouterWithParent[K comparable, W any, M any](lookup WidgetLookup[K, W], parent ParentLookup[K]) *Router[K, W, M] {
	return &Router[K, W, M]{
		lookup:          lookup,
		parent:          parent,
		defaultTieBreak: TieBreakNewer,
	}
}

// SetDefaultTieBreak sets the tie-break policy applied when two hits
// share the same DepthKey.
func (r *Router[K, W, M]) SetDefaultTieBreak(p TieBreakPolicy) { r.defaultTieBreak = p }

// SetScope installs a predicate that every candidate node (and each of
// its ancestors) must satisfy. nil clears it.
func (r *Router[K, W, M]) SetScope(scope func(K) bool) { r.scope = scope }

// SetFocus records the focused node. Reserved for higher-level policies;
// not consulted during routing.
func (r *Router[K, W, M]) SetFocus(node *K) { r.focus = node }

// SetCapture overrides target selection to route to node regardless of
// fresh hits, until released with SetCapture(nil).
func (r *Router[K, W, M]) SetCapture(node *K) { r.captured = node }

// SetNewerComparator injects the comparator consulted by the Newer and
// Older tie-break policies. Without one, both policies degrade to
// stable last-wins.
func (r *Router[K, W, M]) SetNewerComparator(newer func(a, b K) bool) { r.newer = newer }

// SetIDComparator injects the comparator consulted by the MinID and
// MaxID tie-break policies. Without one, both policies degrade to
// stable last-wins.
func (r *Router[K, W, M]) SetIDComparator(cmp func(a, b K) int) { r.idCmp = cmp }

// HandleWithHits handles a pre-resolved slice of hits and produces the
// propagation sequence for the selected target's path.
func (r *Router[K, W, M]) HandleWithHits(hits []ResolvedHit[K, M]) []Dispatch[K, W, M] {
	if r.captured != nil {
		return r.handleCapture(hits, *r.captured)
	}
	return r.handleSelection(hits)
}

// handleCapture routes to the captured node regardless of current hit
// ranking, using the matching hit's path and meta if present. Capture
// bypasses the scope filter entirely.
func (r *Router[K, W, M]) handleCapture(hits []ResolvedHit[K, M], captured K) []Dispatch[K, W, M] {
	var capHit *ResolvedHit[K, M]
	for i := len(hits) - 1; i >= 0; i-- {
		if hits[i].Node == captured {
			capHit = &hits[i]
			break
		}
	}

	var (
		path      []K
		localizer Localizer
		meta      *M
	)
	switch {
	case capHit != nil && capHit.Path != nil:
		path = capHit.Path
		localizer = capHit.Localizer
		m := capHit.Meta
		meta = &m
	case capHit != nil:
		path = r.reconstructPath(captured)
		localizer = capHit.Localizer
		m := capHit.Meta
		meta = &m
	default:
		path = r.reconstructPath(captured)
	}
	return r.emitPath(path, localizer, meta)
}

// handleSelection ranks hits by DepthKey (best first), then walks that
// ranking applying the scope filter to each candidate's node and
// ancestors in turn, falling through to the next-best hit when the
// current one is filtered out.
func (r *Router[K, W, M]) handleSelection(hits []ResolvedHit[K, M]) []Dispatch[K, W, M] {
	for _, idx := range r.rankedOrder(hits) {
		h := hits[idx]
		path := h.Path
		if path == nil {
			path = r.reconstructPath(h.Node)
		}
		if !r.pathPassesScope(path, h.Node) {
			continue
		}
		m := h.Meta
		return r.emitPath(path, h.Localizer, &m)
	}
	return nil
}

// rankedOrder returns hit indices ordered best-to-worst by DepthKey, then
// by the configured tie-break policy, then by stable last-wins (a later
// original index outranks an earlier one on a full tie).
func (r *Router[K, W, M]) rankedOrder(hits []ResolvedHit[K, M]) []int {
	order := make([]int, len(hits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		cmp := hits[ia].DepthKey.Compare(hits[ib].DepthKey)
		if cmp == 0 {
			cmp = r.tiebreak(hits[ia].Node, hits[ib].Node)
		}
		if cmp == 0 {
			return ia > ib
		}
		return cmp > 0
	})
	return order
}

// pathPassesScope reports whether every node in path (the chosen hit's
// node and each of its ancestors) satisfies the scope filter. A nil
// scope accepts everything.
func (r *Router[K, W, M]) pathPassesScope(path []K, node K) bool {
	if r.scope == nil {
		return true
	}
	if len(path) == 0 {
		return r.scope(node)
	}
	for _, n := range path {
		if !r.scope(n) {
			return false
		}
	}
	return true
}

func (r *Router[K, W, M]) tiebreak(a, b K) int {
	switch r.defaultTieBreak {
	case TieBreakNewer:
		if r.isNewer(a, b) {
			return 1
		}
		if r.isNewer(b, a) {
			return -1
		}
		return 0
	case TieBreakOlder:
		if r.isNewer(b, a) {
			return 1
		}
		if r.isNewer(a, b) {
			return -1
		}
		return 0
	case TieBreakMinID:
		return -r.idCompare(a, b)
	case TieBreakMaxID:
		return r.idCompare(a, b)
	default:
		return 0
	}
}

func (r *Router[K, W, M]) isNewer(a, b K) bool {
	if r.newer == nil {
		return false
	}
	return r.newer(a, b)
}

func (r *Router[K, W, M]) idCompare(a, b K) int {
	if r.idCmp == nil {
		return 0
	}
	return r.idCmp(a, b)
}

// reconstructPath walks the ParentLookup from target up to a root and
// returns the root→target path. If target has no parent, the path is
// the singleton [target].
func (r *Router[K, W, M]) reconstructPath(target K) []K {
	out := []K{target}
	cur := target
	for {
		p, ok := r.parent.ParentOf(cur)
		if !ok {
			break
		}
		out = append(out, p)
		cur = p
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// emitPath builds the capture → target → bubble dispatch sequence for a
// root→target path. The target itself appears exactly once, in the
// target phase; capture walks root..target's parent, bubble walks the
// same span in reverse. A length-1 path produces a single target entry.
func (r *Router[K, W, M]) emitPath(path []K, localizer Localizer, meta *M) []Dispatch[K, W, M] {
	if len(path) == 0 {
		return nil
	}
	target := path[len(path)-1]
	ancestors := path[:len(path)-1]

	out := make([]Dispatch[K, W, M], 0, 2*len(ancestors)+1)
	for _, n := range ancestors {
		out = append(out, r.makeDispatch(PhaseCapture, n, localizer, meta))
	}
	out = append(out, r.makeDispatch(PhaseTarget, target, localizer, meta))
	for i := len(ancestors) - 1; i >= 0; i-- {
		out = append(out, r.makeDispatch(PhaseBubble, ancestors[i], localizer, meta))
	}
	return out
}

func (r *Router[K, W, M]) makeDispatch(phase Phase, node K, localizer Localizer, meta *M) Dispatch[K, W, M] {
	var widget *W
	if w, ok := r.lookup.WidgetOf(node); ok {
		widget = &w
	}
	var metaCopy *M
	if meta != nil {
		m := *meta
		metaCopy = &m
	}
	return Dispatch[K, W, M]{
		Phase:     phase,
		Node:      node,
		Widget:    widget,
		Localizer: localizer,
		Meta:      metaCopy,
	}
}
