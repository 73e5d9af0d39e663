package index

import "errors"

// Sentinel errors returned by IndexGeneric operations. Callers compare
// against these with errors.Is, matching the teacher's internal/auth and
// internal/project sentinel-error style.
var (
	// ErrKeyStale is returned when a Key refers to a slot that has since
	// been reused (its generation no longer matches).
	ErrKeyStale = errors.New("index: key is stale")

	// ErrEmptyAabb is returned by operations that refuse an inverted AABB
	// (max < min on either axis).
	ErrEmptyAabb = errors.New("index: aabb is empty")

	// ErrBackendCapacity is returned by backends that enforce a maximum
	// element count and have reached it.
	ErrBackendCapacity = errors.New("index: backend capacity exceeded")
)
