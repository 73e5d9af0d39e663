// Package hover tracks a root→target path across pointer moves and
// computes the minimal enter/leave transitions between the old and new
// path, using their lowest common ancestor.
package hover

import "github.com/understory-go/spatial/internal/spatial/responder"

// Event is a single hover transition.
type Event[K any] struct {
	// Node is the node entering or leaving hover.
	Node K
	// Entering is true for HoverEnter, false for HoverLeave.
	Entering bool
}

// State tracks the currently hovered root→target path. Leave events are
// emitted inner-most to outer-most; enter events outer-most to
// inner-most, matching common UI expectations for hover transitions as
// the pointer crosses siblings and their ancestors.
type State[K comparable] struct {
	current []K
}

// New returns an empty hover state.
func New[K comparable]() *State[K] {
	return &State[K]{}
}

// CurrentPath returns the currently hovered root→target path, if any.
func (s *State[K]) CurrentPath() []K { return s.current }

// Clear drops the current hover path, returning its leave events from
// inner-most to outer-most.
func (s *State[K]) Clear() []Event[K] {
	out := make([]Event[K], 0, len(s.current))
	for i := len(s.current) - 1; i >= 0; i-- {
		out = append(out, Event[K]{Node: s.current[i], Entering: false})
	}
	s.current = nil
	return out
}

// UpdatePath transitions from the current path to newPath, returning the
// leave/enter events required. The lowest common ancestor is the longest
// shared prefix between the old and new path; nodes at or above it emit
// no events.
func (s *State[K]) UpdatePath(newPath []K) []Event[K] {
	lca := 0
	for lca < len(s.current) && lca < len(newPath) && s.current[lca] == newPath[lca] {
		lca++
	}

	out := make([]Event[K], 0, (len(s.current)-lca)+(len(newPath)-lca))
	for i := len(s.current) - 1; i >= lca; i-- {
		out = append(out, Event[K]{Node: s.current[i], Entering: false})
	}
	for i := lca; i < len(newPath); i++ {
		out = append(out, Event[K]{Node: newPath[i], Entering: true})
	}

	s.current = append([]K(nil), newPath...)
	return out
}

// PathFromDispatch extracts the root→target path from a responder
// dispatch sequence: every Phase-Capture node, followed by the single
// Phase-Target node. Pass the result to UpdatePath.
func PathFromDispatch[K comparable, W any, M any](seq []responder.Dispatch[K, W, M]) []K {
	path := make([]K, 0, len(seq))
	for _, d := range seq {
		switch d.Phase {
		case responder.PhaseCapture:
			path = append(path, d.Node)
		case responder.PhaseTarget:
			path = append(path, d.Node)
			return path
		case responder.PhaseBubble:
			return path
		}
	}
	return path
}
