package recordmodel

import (
	"fmt"
	"strings"
)

// Record is the shared runtime embedded by every generated record
// wrapper type. It holds field storage keyed by wire index plus the
// record's ChangeSet; generated types add typed accessors on top via the
// package-level Get/Set/Add/Sub helpers below.
//
// Records are not internally synchronized: spec.md's concurrency model
// treats a record graph as single-threaded/cooperative, reserving
// mutexes for the shared structures multiple goroutines actually touch
// concurrently (SchemaRegistry).
type Record struct {
	typ     *RecordType
	values  map[uint16]any
	changes *ChangeSet
}

// NewRecord returns an empty Record for the given type.
func NewRecord(typ *RecordType) *Record {
	return &Record{typ: typ, values: make(map[uint16]any), changes: NewChangeSet()}
}

// RecordType returns the record's compiled schema.
func (r *Record) RecordType() *RecordType { return r.typ }

// Changes returns the record's ChangeSet.
func (r *Record) Changes() *ChangeSet { return r.changes }

func (r *Record) mustField(index uint16) *FieldMeta {
	fm := r.typ.Field(index)
	if fm == nil {
		panic(fmt.Sprintf("recordmodel: %s has no field at index %d", r.typ.Name, index))
	}
	return fm
}

// FieldValue returns the field's value, materializing a default
// container or nested record on first access (spec.md's "lazily
// constructed default on first read" invariant).
func (r *Record) FieldValue(index uint16) any {
	fm := r.mustField(index)
	if v, ok := r.values[index]; ok {
		return v
	}
	switch {
	case fm.Cardinality != CardinalityScalar:
		v := fm.NewContainer()
		r.values[index] = v
		return v
	case fm.Type == TypeStruct:
		v := fm.NewChild()
		r.values[index] = v
		return v
	default:
		return fm.Default
	}
}

// SetFieldValue stores value at index without marking the field dirty;
// used by the decoder.
func (r *Record) SetFieldValue(index uint16, value any) {
	r.mustField(index)
	r.values[index] = value
}

// IsDefaultValue reports whether no value is stored for name — a
// storage-key-absence check, not a zero-equality check, matching the
// original's _is_default_value. Any stored value counts, including one
// written by the decoder or a container/nested record that FieldValue
// materialized on first read.
func (r *Record) IsDefaultValue(name string) bool {
	fm := r.typ.FieldByName(name)
	if fm == nil {
		return false
	}
	_, ok := r.values[fm.Index]
	return !ok
}

// ClearData drops every stored value, returning the record to its
// freshly-constructed state. Change tracking is untouched; callers that
// want a clean slate call ClearChanged separately.
func (r *Record) ClearData() {
	r.values = make(map[uint16]any)
}

// SetChanged marks the named fields dirty, or the whole record (the
// wildcard) when no names are given.
func (r *Record) SetChanged(names ...string) error {
	if len(names) == 0 {
		r.changes.MarkAll()
		return nil
	}
	for _, name := range names {
		fm := r.typ.FieldByName(name)
		if fm == nil {
			return &NoFieldError{Record: r.typ.Name, Name: name}
		}
		r.changes.Mark(fm.Index)
	}
	return nil
}

// HasChanged reports whether any field of the record has changed.
// recursive also checks into owned nested records and containers
// (references are never recursed into, regardless of recursive).
func (r *Record) HasChanged(recursive bool) bool {
	for _, fm := range r.typ.Fields {
		if r.fieldChanged(fm, recursive) {
			return true
		}
	}
	return false
}

// FieldHasChanged reports whether a single named field has changed.
func (r *Record) FieldHasChanged(name string, recursive bool) (bool, error) {
	fm := r.typ.FieldByName(name)
	if fm == nil {
		return false, &NoFieldError{Record: r.typ.Name, Name: name}
	}
	return r.fieldChanged(fm, recursive), nil
}

// FieldChangedAt reports whether the field at index has changed,
// satisfying Trackable.
func (r *Record) FieldChangedAt(index uint16, recursive bool) bool {
	return r.fieldChanged(r.mustField(index), recursive)
}

// FieldIsSet reports whether index has ever been explicitly stored
// (construction, decode, or an application Set call) without
// materializing a default the way FieldValue would.
func (r *Record) FieldIsSet(index uint16) bool {
	_, ok := r.values[index]
	return ok
}

func (r *Record) fieldChanged(fm *FieldMeta, recursive bool) bool {
	if fm.SkipChanged {
		return false
	}
	if r.changes.Wildcard() {
		return true
	}
	idx := fm.Index
	switch {
	case fm.Cardinality != CardinalityScalar:
		if r.changes.Has(idx) {
			return true
		}
		v, ok := r.values[idx]
		if !ok {
			return false
		}
		childRecursive := recursive
		if fm.Ref {
			childRecursive = false
		}
		return elementHasChanged(v, childRecursive)
	case fm.Type == TypeStruct && !fm.Ref:
		if r.changes.Has(idx) {
			return true
		}
		if !recursive {
			return false
		}
		v, ok := r.values[idx]
		if !ok {
			return false
		}
		return elementHasChanged(v, recursive)
	default:
		return r.changes.Has(idx)
	}
}

// ClearChanged clears change state for every field. recursive also
// clears owned nested records and containers.
func (r *Record) ClearChanged(recursive bool) {
	for _, fm := range r.typ.Fields {
		r.clearFieldChanged(fm, recursive)
	}
}

// ClearFieldChanged clears change state for a single named field.
func (r *Record) ClearFieldChanged(recursive bool, name string) error {
	fm := r.typ.FieldByName(name)
	if fm == nil {
		return &NoFieldError{Record: r.typ.Name, Name: name}
	}
	r.clearFieldChanged(fm, recursive)
	return nil
}

func (r *Record) clearFieldChanged(fm *FieldMeta, recursive bool) {
	if fm.SkipChanged {
		return
	}
	r.changes.Clear(fm.Index)
	v, ok := r.values[fm.Index]
	if !ok {
		return
	}
	switch {
	case fm.Cardinality != CardinalityScalar:
		childRecursive := recursive
		if fm.Ref {
			childRecursive = false
		}
		clearElementChanged(v, childRecursive)
	case fm.Type == TypeStruct && recursive:
		clearElementChanged(v, recursive)
	}
}

// String renders a short debugging representation listing the record's
// scalar, non-container field values, the Go analogue of the original's
// _short_repr_.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.typ.Name)
	b.WriteByte('(')
	shown := 0
	for _, fm := range r.typ.Fields {
		if fm.Cardinality != CardinalityScalar || fm.Type == TypeStruct {
			continue
		}
		if shown >= 4 {
			b.WriteString(", ...")
			break
		}
		if shown > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", fm.Name, r.FieldValue(fm.Index))
		shown++
	}
	b.WriteByte(')')
	return b.String()
}

// Get returns the typed value of field index on r, materializing its
// default if unset. T must match the field's stored Go type exactly.
func Get[T any](r *Record, index uint16) T {
	return r.FieldValue(index).(T)
}

// Set stores value at field index, marking it dirty only when it
// differs from the previously stored value.
func Set[T comparable](r *Record, index uint16, value T) {
	if old, ok := r.values[index]; ok {
		if oldT, same := old.(T); same && oldT == value {
			return
		}
	}
	r.values[index] = value
	r.changes.Mark(index)
}

// Numeric bounds the field types the arithmetic helpers operate on.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add applies delta to field index and returns (delta, the new value),
// matching spec.md's generated add_<field> helper. It never fails: only
// Sub's min_value floor can reject an update.
func Add[T Numeric](r *Record, index uint16, delta T) (T, T) {
	cur := Get[T](r, index)
	next := cur + delta
	Set(r, index, next)
	return delta, next
}

// Sub applies -delta to field index and returns (delta, the new value),
// or an *ArithmeticError if the result would fall below the field's
// min_value. Unsigned fields default to a min_value of 0 when none was
// declared explicitly; signed fields with no declared min_value are
// unchecked, per spec.md's Open Question on arithmetic underflow.
func Sub[T Numeric](r *Record, index uint16, delta T) (T, T, error) {
	fm := r.mustField(index)
	cur := Get[T](r, index)
	next := cur - delta

	var floor T
	hasFloor := false
	if fm.MinValue != nil {
		if mv, ok := fm.MinValue.(T); ok {
			floor = mv
			hasFloor = true
		}
	} else if isUnsigned[T]() {
		hasFloor = true // floor stays the zero value
	}

	// Unsigned subtraction wraps instead of going negative, so a plain
	// next < floor check can't see an underflow past zero; a result
	// larger than cur after subtracting a positive delta means it wrapped.
	wrapped := isUnsigned[T]() && delta > 0 && next > cur

	if hasFloor && (wrapped || next < floor) {
		return delta, cur, &ArithmeticError{Record: r.typ.Name, Field: fm.Name, Attempted: next, Min: floor}
	}
	Set(r, index, next)
	return delta, next, nil
}

// isUnsigned reports whether T wraps instead of going negative on
// underflow, which is true of exactly the unsigned integer types.
func isUnsigned[T Numeric]() bool {
	var zero T
	return zero-1 > zero
}
