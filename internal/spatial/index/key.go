package index

// Key is a generational handle into an IndexGeneric. It stays unambiguous
// across insert/remove cycles by pairing a slot index with a generation counter
// that increments each time the slot is reused, so a stale Key from before
// a remove can be told apart from a fresh Key that landed on the same slot.
type Key struct {
	slot       uint32
	generation uint32
}

// Slot returns the underlying slot index, mainly useful for backends that
// key their own storage by slot rather than by Key.
func (k Key) Slot() uint32 { return k.slot }

// Generation returns the generation counter at the time the Key was issued.
func (k Key) Generation() uint32 { return k.generation }
