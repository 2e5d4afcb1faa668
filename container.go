package recordmodel

// Container is implemented by Array, Map and IdMap regardless of their
// element/key type parameters — the codecs only ever see records through
// this boxed seam, never the concrete generic type.
type Container interface {
	changeTracked
	Len() int

	// BroadcastChanged marks every current element changed, per
	// spec.md's broadcast_changed(). Array's mutators call this on
	// every mutation (append/set/delete/sort), since arrays are always
	// replaced wholesale on decode: an element left untouched by a
	// mutation still has to round-trip in full through the next
	// only-changed delta, or a sync-mode decode would reconstruct it
	// as a fresh zero-valued instance instead of preserving its state.
	BroadcastChanged()
}

// ArrayContainer is the boxed view of an Array[T] used by the codecs.
type ArrayContainer interface {
	Container
	At(i int) any
	AppendRaw(v any) // decoder path: append without marking dirty
	ReplaceRaw(i int, v any)
}

// MapContainer is the boxed view of a Map[K,V] or IdMap[K,V] used by the
// codecs. Keys and values cross this seam as any and are type-asserted
// back to K/V inside the concrete container.
type MapContainer interface {
	Container
	RangeRaw(fn func(key, value any))
	GetRaw(key any) (any, bool) // decoder path: look up an existing entry to patch in sync mode
	SetRaw(key, value any)      // decoder path: store without marking dirty
	DeleteRaw(key any)          // decoder path: delete without recording a tombstone
	RemovedKeys() []any         // keys removed since the last ClearChanged
}
