package recordmodel

// Map is the map-cardinality container: a key/value table with a single
// dirty bit for the container plus a removed-keys tombstone set, used to
// encode deletions in sync-mode deltas (spec.md §4.3/§4.7).
type Map[K comparable, V any] struct {
	items   map[K]V
	dirty   bool
	removed map[K]struct{}
}

// NewMap returns an empty map container.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{items: make(map[K]V)}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.items) }

// Get returns the value stored at k, and whether it was present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.items[k]
	return v, ok
}

// Set stores v at k, marks the container dirty, and un-tombstones k if
// it had previously been removed.
func (m *Map[K, V]) Set(k K, v V) {
	m.items[k] = v
	m.dirty = true
	markElementChanged(v)
	delete(m.removed, k)
}

// Delete removes k, marks the container dirty, and records k as removed
// so a subsequent sync-mode delta encodes a tombstone for it.
func (m *Map[K, V]) Delete(k K) {
	if _, ok := m.items[k]; !ok {
		return
	}
	delete(m.items, k)
	m.dirty = true
	if m.removed == nil {
		m.removed = make(map[K]struct{})
	}
	m.removed[k] = struct{}{}
}

// Keys returns the map's keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

// Range calls fn for every entry; iteration order is unspecified.
func (m *Map[K, V]) Range(fn func(k K, v V) bool) {
	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

// SetChanged marks the whole container dirty without touching entries.
// Containers have a single dirty bit, so any field names passed are
// ignored; this signature only exists to match changeTracked/Trackable.
func (m *Map[K, V]) SetChanged(names ...string) error {
	m.dirty = true
	return nil
}

// HasChanged reports whether the container's own dirty bit is set, or
// (when recursive) whether any entry's value is itself changed.
func (m *Map[K, V]) HasChanged(recursive bool) bool {
	if m.dirty {
		return true
	}
	if !recursive {
		return false
	}
	for _, v := range m.items {
		if elementHasChanged(v, recursive) {
			return true
		}
	}
	return false
}

// ClearChanged clears the container's own dirty bit and removed-keys
// set, and (when recursive) clears every value's change state too.
func (m *Map[K, V]) ClearChanged(recursive bool) {
	m.dirty = false
	m.removed = nil
	if recursive {
		for _, v := range m.items {
			clearElementChanged(v, recursive)
		}
	}
}

// BroadcastChanged marks the container dirty and marks every current
// value changed, per spec.md's broadcast_changed(). Unlike Array's
// mutators, Map's Set/Delete don't call this themselves: a map/id-map
// only-changed delta already omits untouched entries entirely (rather
// than Array's always-emit-every-current-element shape), and sync-mode
// decode only patches the keys present in that delta, so an untouched
// entry is left alone without needing a broadcast first.
func (m *Map[K, V]) BroadcastChanged() {
	m.dirty = true
	for _, v := range m.items {
		markElementChanged(v)
	}
}

// RangeRaw calls fn for every entry with key/value boxed as any, for
// MapContainer.
func (m *Map[K, V]) RangeRaw(fn func(key, value any)) {
	for k, v := range m.items {
		fn(k, v)
	}
}

// GetRaw looks up an existing entry by a boxed key, for MapContainer.
func (m *Map[K, V]) GetRaw(key any) (any, bool) {
	v, ok := m.items[key.(K)]
	return v, ok
}

// SetRaw stores v at k (asserted to K/V) without marking the container
// dirty; used by the decoder.
func (m *Map[K, V]) SetRaw(key, value any) { m.items[key.(K)] = value.(V) }

// DeleteRaw removes k without recording a tombstone; used to apply a
// sync-mode deletion tombstone from the wire.
func (m *Map[K, V]) DeleteRaw(key any) { delete(m.items, key.(K)) }

// RemovedKeys returns the keys tombstoned since the last ClearChanged,
// boxed as any, for MapContainer.
func (m *Map[K, V]) RemovedKeys() []any {
	if len(m.removed) == 0 {
		return nil
	}
	out := make([]any, 0, len(m.removed))
	for k := range m.removed {
		out = append(out, k)
	}
	return out
}

var (
	_ MapContainer = (*Map[string, int])(nil)
)
