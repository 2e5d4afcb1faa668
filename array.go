package recordmodel

// Array is the array-cardinality container: an ordered sequence of
// values with a single dirty bit for the whole container. Every
// mutator (append/replace/delete/sort) sets that bit and also marks
// each current element changed via BroadcastChanged.
type Array[T any] struct {
	items []T
	dirty bool
}

// NewArray returns an empty array container.
func NewArray[T any]() *Array[T] { return &Array[T]{} }

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.items) }

// Get returns the element at i.
func (a *Array[T]) Get(i int) T { return a.items[i] }

// Items returns the backing slice; callers must not retain it across a
// mutation.
func (a *Array[T]) Items() []T { return a.items }

// Append adds v to the end and broadcasts a change.
func (a *Array[T]) Append(v T) {
	a.items = append(a.items, v)
	a.BroadcastChanged()
}

// Set replaces the element at i and broadcasts a change.
func (a *Array[T]) Set(i int, v T) {
	a.items[i] = v
	a.BroadcastChanged()
}

// Delete removes the element at i, shifting later elements down, and
// broadcasts a change.
func (a *Array[T]) Delete(i int) {
	a.items = append(a.items[:i], a.items[i+1:]...)
	a.BroadcastChanged()
}

// Sort reorders elements in place using less, and broadcasts a change:
// spec.md's broadcast_changed() marks every current element changed,
// with no carve-out for a pure reorder.
func (a *Array[T]) Sort(less func(x, y T) bool) {
	insertionSort(a.items, less)
	a.BroadcastChanged()
}

// BroadcastChanged marks the container dirty and marks every current
// element changed. Arrays are always replaced wholesale on decode
// (spec.md: no per-index sync patching), so an element that was never
// individually mutated still needs to encode its full current state
// whenever the array itself is touched — otherwise an only-changed
// delta would carry an empty payload for it, and a sync-mode decode
// would reconstruct it as a fresh zero-valued instance instead of
// preserving what it held.
func (a *Array[T]) BroadcastChanged() {
	a.dirty = true
	for _, v := range a.items {
		markElementChanged(v)
	}
}

func insertionSort[T any](s []T, less func(x, y T) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// SetChanged marks the whole container dirty without touching elements.
// Containers have a single dirty bit, so any field names passed are
// ignored; this signature only exists to match changeTracked/Trackable.
func (a *Array[T]) SetChanged(names ...string) error {
	a.dirty = true
	return nil
}

// HasChanged reports whether the container's own dirty bit is set, or
// (when recursive) whether any element is itself changed.
func (a *Array[T]) HasChanged(recursive bool) bool {
	if a.dirty {
		return true
	}
	if !recursive {
		return false
	}
	for _, v := range a.items {
		if elementHasChanged(v, recursive) {
			return true
		}
	}
	return false
}

// ClearChanged clears the container's own dirty bit, and (when
// recursive) clears every element's change state too.
func (a *Array[T]) ClearChanged(recursive bool) {
	a.dirty = false
	if recursive {
		for _, v := range a.items {
			clearElementChanged(v, recursive)
		}
	}
}

// At returns the element at i boxed as any, for ArrayContainer.
func (a *Array[T]) At(i int) any { return a.items[i] }

// AppendRaw appends v (asserted to T) without marking the container
// dirty; used by the decoder.
func (a *Array[T]) AppendRaw(v any) { a.items = append(a.items, v.(T)) }

// ReplaceRaw replaces the element at i (asserted to T) without marking
// the container dirty; used by the decoder.
func (a *Array[T]) ReplaceRaw(i int, v any) {
	for len(a.items) <= i {
		var zero T
		a.items = append(a.items, zero)
	}
	a.items[i] = v.(T)
}

var (
	_ ArrayContainer = (*Array[int])(nil)
)
