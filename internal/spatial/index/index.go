package index

import "github.com/understory-go/spatial/internal/spatial/aabb"

type mark int

const (
	markNone mark = iota
	markAdded
	markUpdated
	markRemoved
)

type entry[T aabb.Number, P any] struct {
	generation uint32
	alive      bool
	box        aabb.Aabb2D[T]
	payload    P
	mark       mark
	prevBox    aabb.Aabb2D[T]
	hasPrev    bool
}

// Result pairs a Key with its payload, returned by queries.
type Result[P any] struct {
	Key     Key
	Payload P
}

// IndexGeneric is a generational AABB index with a pluggable Backend. Every
// mutation (Insert/Update/Remove) is staged into a journal; Commit applies
// the journal to the backend in one pass and returns a Damage summary.
// Queries made before Commit see the staged state layered atop the last
// committed backend state: pending inserts are visible, pending removes are
// hidden, and pending updates report their new box rather than the
// still-committed one.
type IndexGeneric[T aabb.Number, P any, B Backend[T]] struct {
	entries  []entry[T, P]
	freeList []int
	pending  []int
	backend  B
}

// NewIndexGeneric builds an index around the given backend.
func NewIndexGeneric[T aabb.Number, P any, B Backend[T]](backend B) *IndexGeneric[T, P, B] {
	return &IndexGeneric[T, P, B]{backend: backend}
}

// Insert stages a new entry and returns its Key. The box must not be empty.
func (ix *IndexGeneric[T, P, B]) Insert(box aabb.Aabb2D[T], payload P) (Key, error) {
	if box.IsEmpty() {
		return Key{}, ErrEmptyAabb
	}

	var slot int
	var generation uint32
	if n := len(ix.freeList); n > 0 {
		slot = ix.freeList[n-1]
		ix.freeList = ix.freeList[:n-1]
		generation = ix.entries[slot].generation + 1
		ix.entries[slot] = entry[T, P]{generation: generation, alive: true, box: box, payload: payload, mark: markAdded}
	} else {
		slot = len(ix.entries)
		generation = 1
		ix.entries = append(ix.entries, entry[T, P]{generation: generation, alive: true, box: box, payload: payload, mark: markAdded})
	}
	ix.pending = append(ix.pending, slot)
	return Key{slot: uint32(slot), generation: generation}, nil
}

// Update stages a new box for an existing, live Key.
func (ix *IndexGeneric[T, P, B]) Update(key Key, box aabb.Aabb2D[T]) error {
	if box.IsEmpty() {
		return ErrEmptyAabb
	}
	e, err := ix.liveEntry(key)
	if err != nil {
		return err
	}
	if !e.hasPrev {
		e.prevBox = e.box
		e.hasPrev = true
	}
	e.box = box
	if e.mark != markAdded {
		e.mark = markUpdated
	}
	ix.pending = append(ix.pending, int(key.slot))
	return nil
}

// Remove stages the removal of a live Key. An entry added and removed
// within the same commit cycle never reaches the backend and produces no
// damage.
func (ix *IndexGeneric[T, P, B]) Remove(key Key) error {
	e, err := ix.liveEntry(key)
	if err != nil {
		return err
	}
	if e.mark == markAdded {
		e.alive = false
		ix.freeList = append(ix.freeList, int(key.slot))
		return nil
	}
	e.mark = markRemoved
	ix.pending = append(ix.pending, int(key.slot))
	return nil
}

// Clear drops every entry and resets the backend.
func (ix *IndexGeneric[T, P, B]) Clear() {
	ix.entries = nil
	ix.freeList = nil
	ix.pending = nil
	ix.backend.Clear()
}

// Commit applies every staged mutation to the backend and returns the
// coalesced Damage for this cycle.
func (ix *IndexGeneric[T, P, B]) Commit() Damage[T] {
	var dmg Damage[T]
	for _, slot := range ix.pending {
		if slot >= len(ix.entries) {
			continue
		}
		e := &ix.entries[slot]
		if !e.alive {
			continue
		}
		switch e.mark {
		case markAdded:
			ix.backend.Insert(slot, e.box)
			dmg.Added = append(dmg.Added, e.box)
		case markRemoved:
			ix.backend.Remove(slot)
			dmg.Removed = append(dmg.Removed, e.box)
			e.alive = false
			ix.freeList = append(ix.freeList, slot)
		case markUpdated:
			ix.backend.Update(slot, e.box)
			if e.hasPrev && e.prevBox != e.box {
				dmg.Moved = append(dmg.Moved, [2]aabb.Aabb2D[T]{e.prevBox, e.box})
			}
		case markNone:
			continue
		}
		e.mark = markNone
		e.hasPrev = false
	}
	ix.pending = ix.pending[:0]
	ix.backend.Commit()
	return dmg
}

// QueryPoint returns every live entry whose box contains (x, y), including
// entries staged but not yet committed.
func (ix *IndexGeneric[T, P, B]) QueryPoint(x, y T) []Result[P] {
	return ix.query(ix.backend.QueryPoint(x, y), func(box aabb.Aabb2D[T]) bool {
		return box.ContainsPoint(x, y)
	})
}

// QueryRect returns every live entry whose box intersects rect, including
// entries staged but not yet committed.
func (ix *IndexGeneric[T, P, B]) QueryRect(rect aabb.Aabb2D[T]) []Result[P] {
	return ix.query(ix.backend.QueryRect(rect), func(box aabb.Aabb2D[T]) bool {
		return box.Intersects(rect)
	})
}

func (ix *IndexGeneric[T, P, B]) query(candidates []int, matches func(aabb.Aabb2D[T]) bool) []Result[P] {
	var out []Result[P]
	seen := make(map[int]bool, len(candidates))
	for _, slot := range candidates {
		if slot < 0 || slot >= len(ix.entries) {
			continue
		}
		e := ix.entries[slot]
		if !e.alive || e.mark == markRemoved {
			continue
		}
		if !matches(e.box) {
			continue
		}
		seen[slot] = true
		out = append(out, Result[P]{Key: Key{slot: uint32(slot), generation: e.generation}, Payload: e.payload})
	}
	// The backend only knows about committed positions, so staged inserts
	// and staged moves that land inside the query region but started
	// outside it (or don't exist in the backend yet) must be checked by
	// hand against the journal.
	for _, slot := range ix.pending {
		if seen[slot] || slot >= len(ix.entries) {
			continue
		}
		e := ix.entries[slot]
		if !e.alive || (e.mark != markAdded && e.mark != markUpdated) {
			continue
		}
		if !matches(e.box) {
			continue
		}
		seen[slot] = true
		out = append(out, Result[P]{Key: Key{slot: uint32(slot), generation: e.generation}, Payload: e.payload})
	}
	return out
}

func (ix *IndexGeneric[T, P, B]) liveEntry(key Key) (*entry[T, P], error) {
	slot := int(key.slot)
	if slot < 0 || slot >= len(ix.entries) {
		return nil, ErrKeyStale
	}
	e := &ix.entries[slot]
	if !e.alive || e.generation != key.generation {
		return nil, ErrKeyStale
	}
	return e, nil
}
