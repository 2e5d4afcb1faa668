package recordmodel

// Identifiable is implemented by any record type used as an id-map
// value: it must expose the same key it is stored under, read from its
// own oid field.
type Identifiable[K comparable] interface {
	Oid() K
}

// IdMap is the id-map cardinality container: a Map specialization whose
// key is always derived from the value's own Oid(), per spec.md §4.3.
// The oid field itself is excluded from the value's serialized payload
// (see excludeOidFilter) since the key already carries it.
type IdMap[K comparable, V Identifiable[K]] struct {
	*Map[K, V]
}

// NewIdMap returns an empty id-map container.
func NewIdMap[K comparable, V Identifiable[K]]() *IdMap[K, V] {
	return &IdMap[K, V]{Map: NewMap[K, V]()}
}

// Add stores v keyed by v.Oid().
func (m *IdMap[K, V]) Add(v V) { m.Set(v.Oid(), v) }

// Remove deletes the entry keyed by v.Oid().
func (m *IdMap[K, V]) Remove(v V) { m.Delete(v.Oid()) }

var (
	_ MapContainer = (*IdMap[string, Identifiable[string]])(nil)
)
