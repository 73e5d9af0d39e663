// Package responder builds the capture → target → bubble dispatch sequence
// for a set of pre-resolved hits. It does not perform hit testing: feed it
// ResolvedHit values (for example from a box tree hit test) and it emits a
// deterministic propagation sequence for a caller to dispatch.
package responder

// Phase identifies where in the capture → target → bubble sequence a
// Dispatch entry falls.
type Phase int

const (
	// PhaseCapture is the parent-to-target traversal, excluding the target.
	PhaseCapture Phase = iota
	// PhaseTarget is the target node itself.
	PhaseTarget
	// PhaseBubble is the target-to-parent traversal, excluding the target.
	PhaseBubble
)

func (p Phase) String() string {
	switch p {
	case PhaseCapture:
		return "capture"
	case PhaseTarget:
		return "target"
	case PhaseBubble:
		return "bubble"
	default:
		return "unknown"
	}
}

// Outcome is returned by a higher-level dispatcher after delivering one
// Dispatch entry to a handler, controlling whether propagation continues.
type Outcome int

const (
	// OutcomeContinue continues propagation within the current phase.
	OutcomeContinue Outcome = iota
	// OutcomeStop skips the remaining entries in the current phase.
	OutcomeStop
	// OutcomeStopAndConsume aborts all remaining phases and marks the event consumed.
	OutcomeStopAndConsume
)

// TieBreakPolicy documents intent when two hits share the same DepthKey.
// The router has no inherent ordering over an arbitrary K; Newer/Older
// defer to an injected newer-comparator (see Router.SetNewerComparator),
// MinID/MaxID to an injected id-comparator (see Router.SetIDComparator).
// Without either comparator, every policy degrades to the same stable
// last-wins behavior.
type TieBreakPolicy int

const (
	// TieBreakNewer prefers the more recently created node when known.
	TieBreakNewer TieBreakPolicy = iota
	// TieBreakOlder prefers the less recently created node when known.
	TieBreakOlder
	// TieBreakMinID prefers the smaller node id when known.
	TieBreakMinID
	// TieBreakMaxID prefers the larger node id when known.
	TieBreakMaxID
)

// DepthKeyKind distinguishes the two DepthKey variants.
type DepthKeyKind int

const (
	// DepthKeyZ is a 2D stacking index; higher is nearer to the user.
	DepthKeyZ DepthKeyKind = iota
	// DepthKeyDistance is a 3D ray distance; lower is nearer to the user.
	DepthKeyDistance
)

// DepthKey is the primary depth ordering carried by a ResolvedHit. Z and
// Distance are not comparable on a shared numeric scale; when kinds
// differ, Z ranks above Distance by default. Distance should be finite;
// NaN falls back to treating the comparison as equal so ranking stays
// stable.
type DepthKey struct {
	Kind     DepthKeyKind
	z        int32
	distance float32
}

// Z builds a 2D stacking-order depth key.
func Z(z int32) DepthKey { return DepthKey{Kind: DepthKeyZ, z: z} }

// Distance builds a 3D ray-distance depth key.
func Distance(d float32) DepthKey { return DepthKey{Kind: DepthKeyDistance, distance: d} }

// ZValue returns the Z value; meaningful only when Kind == DepthKeyZ.
func (dk DepthKey) ZValue() int32 { return dk.z }

// DistanceValue returns the Distance value; meaningful only when Kind == DepthKeyDistance.
func (dk DepthKey) DistanceValue() float32 { return dk.distance }

// Compare returns a positive number if dk ranks nearer (better) than
// other, negative if farther, and zero if equal or incomparable (NaN).
func (dk DepthKey) Compare(other DepthKey) int {
	if dk.Kind != other.Kind {
		if dk.Kind == DepthKeyZ {
			return 1
		}
		return -1
	}
	switch dk.Kind {
	case DepthKeyZ:
		switch {
		case dk.z > other.z:
			return 1
		case dk.z < other.z:
			return -1
		default:
			return 0
		}
	default:
		if dk.distance != dk.distance || other.distance != other.distance {
			return 0
		}
		switch {
		case dk.distance < other.distance:
			return 1
		case dk.distance > other.distance:
			return -1
		default:
			return 0
		}
	}
}

// Localizer carries world→local transformation context (or any per-target
// conversion info) from a ResolvedHit through to every Dispatch entry
// produced for it. It currently carries no fields; callers that need
// inverse transforms or scroll offsets can grow this type.
type Localizer struct{}

// ResolvedHit is a candidate target to be routed, typically produced by a
// picker (a box tree hit test, a ray cast, and so on).
type ResolvedHit[K any, M any] struct {
	// Node is the key associated with the hit.
	Node K
	// Path is the optional root→target path; if nil the router consults
	// its ParentLookup to derive one.
	Path []K
	// DepthKey orders this hit against other candidates.
	DepthKey DepthKey
	// Localizer is copied onto every Dispatch entry emitted for this hit.
	Localizer Localizer
	// Meta is arbitrary metadata carried alongside the hit.
	Meta M
}

// WidgetLookup maps nodes to toolkit widget identifiers so each Dispatch
// can carry one alongside the node key.
type WidgetLookup[K any, W any] interface {
	WidgetOf(node K) (W, bool)
}

// ParentLookup resolves the parent of a node, used to reconstruct a
// root→target path when a ResolvedHit has none.
type ParentLookup[K any] interface {
	ParentOf(node K) (K, bool)
}

// NoParent is a no-op ParentLookup: every node is treated as a root.
type NoParent[K any] struct{}

// ParentOf always reports no parent.
func (NoParent[K]) ParentOf(K) (K, bool) {
	var zero K
	return zero, false
}

// Dispatch is a single step of the propagation sequence produced by
// Router.HandleWithHits.
type Dispatch[K any, W any, M any] struct {
	// Phase is the propagation phase for this step.
	Phase Phase
	// Node is the node associated with this step.
	Node K
	// Widget is the toolkit widget id for Node, if any.
	Widget *W
	// Localizer is the transformation context for local event coordinates.
	Localizer Localizer
	// Meta is cloned from the winning hit, if it carried any.
	Meta *M
}
