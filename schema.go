package recordmodel

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FieldType is the wire type carried by a scalar field, or by the
// elements/keys of a container field.
type FieldType uint8

const (
	TypeInvalid FieldType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeBool
	TypeBytes
	TypeStruct // nested record, see FieldMeta.ChildType
)

func (ft FieldType) String() string {
	names := []string{
		"invalid", "int8", "int16", "int32", "int64",
		"uint8", "uint16", "uint32", "uint64",
		"float32", "float64", "string", "bool", "bytes", "struct",
	}
	if int(ft) < len(names) {
		return names[ft]
	}
	return fmt.Sprintf("unknown(%d)", ft)
}

// InferFieldType maps a Go reflect.Type onto the closest FieldType.
// cmd/recordgen does not call it; it maps .schema type names itself.
func InferFieldType(t reflect.Type) FieldType {
	switch t.Kind() {
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32, reflect.Int:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32, reflect.Uint:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBool
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
		return TypeInvalid
	case reflect.Ptr:
		return InferFieldType(t.Elem())
	default:
		return TypeInvalid
	}
}

// Cardinality says whether a field holds a single value, an ordered
// array of values, a keyed map of values, or an id-map (a map whose key
// is read off the value's own oid field rather than supplied by the
// caller).
type Cardinality uint8

const (
	CardinalityScalar Cardinality = iota
	CardinalityArray
	CardinalityMap
	CardinalityIDMap
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityArray:
		return "array"
	case CardinalityMap:
		return "map"
	case CardinalityIDMap:
		return "id-map"
	default:
		return "scalar"
	}
}

// FieldMeta describes one field of a RecordType: its wire position, its
// cardinality, its element/key typing, and the behavioral flags spec.md
// attaches to fields (arithmetic helpers, reference semantics, change
// tracking opt-out, and a bag of passthrough attributes).
type FieldMeta struct {
	Index       uint16
	Name        string
	Cardinality Cardinality

	// Type is the scalar's wire type, or the element type for
	// containers. TypeStruct means the value (or element) is itself a
	// nested record, described by ChildType.
	Type      FieldType
	ChildType *RecordType

	// KeyType is only meaningful for Map/IDMap fields: the wire type of
	// the map key. IDMap fields derive the key from the value's oid
	// field instead, but KeyType still describes how to encode it.
	KeyType FieldType

	Default     any  // zero value reported before the field is ever set
	MinValue    any  // only meaningful when Arithmetic is true
	Arithmetic  bool // generates Add<Name>/Sub<Name> helper semantics
	Ref         bool // field stores an identifier into another record, not an owned copy
	SkipChanged bool // has_changed/set_changed/clear_changed always report false and no-op

	// Attrs carries conf_name and any other caller-supplied attributes
	// verbatim, the Go analogue of the original's arbitrary Field(...)
	// keyword arguments.
	Attrs map[string]any

	// NewContainer builds a fresh, empty *Array[T]/*Map[K,V]/*IdMap[K,V]
	// boxed as any; required for Array/Map/IDMap fields.
	NewContainer func() any

	// NewChild builds a fresh zero-value nested record instance boxed as
	// any; required whenever Type == TypeStruct (scalar struct fields,
	// and struct-valued container elements).
	NewChild func() any
}

// FieldFilter decides whether a field participates in a particular
// encode/decode pass. Filters compose with And, mirroring the original
// FieldFilter's predicate-AND semantics.
type FieldFilter func(*FieldMeta) bool

// And returns a filter that accepts a field only when both f and other
// accept it. Either side may be nil, in which case the non-nil side
// wins outright.
func (f FieldFilter) And(other FieldFilter) FieldFilter {
	switch {
	case f == nil:
		return other
	case other == nil:
		return f
	default:
		return func(fm *FieldMeta) bool { return f(fm) && other(fm) }
	}
}

// excludeOidFilter drops the oid field from the element payload of an
// id-map value: the key already carries it, so repeating it on the wire
// would be redundant.
var excludeOidFilter FieldFilter = func(fm *FieldMeta) bool { return fm.Name != "oid" }

// RecordType is the compiled schema for one record kind: its full field
// list (own fields plus every ancestor's), indexed both by wire index
// and by name.
type RecordType struct {
	Name        string
	Fields      []*FieldMeta
	byIndex     map[uint16]*FieldMeta
	byName      map[string]*FieldMeta
	oidField    *FieldMeta
	newInstance func() Trackable
}

// Field returns the field at the given wire index, or nil.
func (rt *RecordType) Field(index uint16) *FieldMeta { return rt.byIndex[index] }

// FieldByName returns the field with the given name, or nil.
func (rt *RecordType) FieldByName(name string) *FieldMeta { return rt.byName[name] }

// OidField returns the field named "oid", or nil if this record type
// has none. Record types used as id-map values or as reference targets
// need one.
func (rt *RecordType) OidField() *FieldMeta { return rt.oidField }

// NewInstance builds a fresh, empty instance of this record type via its
// registered factory.
func (rt *RecordType) NewInstance() Trackable {
	if rt.newInstance == nil {
		panic(fmt.Sprintf("recordmodel: record type %q has no constructor", rt.Name))
	}
	return rt.newInstance()
}

// DefineRecord compiles a RecordType from zero or more parent record
// types (fields are inherited in declaration order) plus the type's own
// fields. A field inherited identically through more than one parent
// (the diamond case) is only an error if two DIFFERENT fields collide on
// the same index or name; the same field reappearing through multiple
// ancestors is not an error.
func DefineRecord(name string, parents []*RecordType, own []FieldMeta, newInstance func() Trackable) (*RecordType, error) {
	rt := &RecordType{
		Name:        name,
		byIndex:     make(map[uint16]*FieldMeta),
		byName:      make(map[string]*FieldMeta),
		newInstance: newInstance,
	}

	add := func(fm FieldMeta) error {
		if existing, ok := rt.byIndex[fm.Index]; ok {
			if existing.Name == fm.Name {
				return nil
			}
			return &DuplicateIndexError{Record: name, Index: fm.Index, Name: fm.Name, Other: existing.Name}
		}
		if _, ok := rt.byName[fm.Name]; ok {
			return &DuplicateNameError{Record: name, Name: fm.Name}
		}
		ptr := &fm
		rt.byIndex[fm.Index] = ptr
		rt.byName[fm.Name] = ptr
		rt.Fields = append(rt.Fields, ptr)
		return nil
	}

	for _, p := range parents {
		for _, fm := range p.Fields {
			if err := add(*fm); err != nil {
				return nil, err
			}
		}
	}
	for _, fm := range own {
		if fm.Cardinality != CardinalityScalar && fm.NewContainer == nil {
			return nil, &DefineError{Record: name, Msg: fmt.Sprintf("field %q is %s but has no NewContainer factory", fm.Name, fm.Cardinality)}
		}
		if fm.Type == TypeStruct && !fm.Ref && fm.NewChild == nil {
			return nil, &DefineError{Record: name, Msg: fmt.Sprintf("field %q is struct-typed but has no NewChild factory", fm.Name)}
		}
		if fm.Ref && fm.ChildType == nil {
			return nil, &DefineError{Record: name, Msg: fmt.Sprintf("field %q is a reference but has no target ChildType", fm.Name)}
		}
		if fm.Cardinality == CardinalityIDMap {
			if fm.Type != TypeStruct || fm.ChildType == nil {
				return nil, &DefineError{Record: name, Msg: fmt.Sprintf("id-map field %q must hold nested records", fm.Name)}
			}
			if fm.ChildType.OidField() == nil {
				return nil, &DefineError{Record: name, Msg: fmt.Sprintf("id-map field %q's element type %q has no oid field", fm.Name, fm.ChildType.Name)}
			}
		}
		if err := add(fm); err != nil {
			return nil, err
		}
	}

	sort.Slice(rt.Fields, func(i, j int) bool { return rt.Fields[i].Index < rt.Fields[j].Index })
	rt.oidField = rt.byName["oid"]
	return rt, nil
}

// Trackable is implemented by every generated record wrapper. It is the
// seam the codecs and change-tracking helpers use to operate on a record
// without knowing its concrete Go type.
type Trackable interface {
	RecordType() *RecordType
	Changes() *ChangeSet
	// FieldValue returns the field's current value (materializing a
	// default container/nested-record on first access) boxed as any.
	FieldValue(index uint16) any
	// SetFieldValue stores a value without touching the change-set;
	// used by the decoder and by constructors.
	SetFieldValue(index uint16, value any)
	HasChanged(recursive bool) bool
	ClearChanged(recursive bool)
	SetChanged(names ...string) error
	// FieldChangedAt reports whether a single field (by wire index) has
	// changed, recursing into owned containers/nested records when
	// recursive is true. Used by the codecs to decide field inclusion
	// for only_changed encoding without re-deriving Record's logic.
	FieldChangedAt(index uint16, recursive bool) bool
	// FieldIsSet reports whether a field has ever been explicitly stored,
	// without materializing a default the way FieldValue would. A full
	// (non only_changed) encode omits fields that fail this check,
	// matching the original's "never-assigned fields are absent from the
	// dict, not present at their default" behavior.
	FieldIsSet(index uint16) bool
}

// Referenceable is implemented by any record type that can sit at the
// far end of a reference field: it reports the oid other records store
// when pointing at it.
type Referenceable interface {
	RefOid() any
}

// refOidType returns the wire type a reference field's oid is encoded
// with, borrowed from its target's own oid field.
func refOidType(fm *FieldMeta) FieldType {
	return fm.ChildType.OidField().Type
}

// SchemaRegistry is the process-wide (or per-test) table of compiled
// record types, looked up concurrently by encoders and decoders.
// Concurrent DefineRecord calls for the same name are collapsed with
// singleflight so two goroutines racing to register the same type only
// build it once.
type SchemaRegistry struct {
	mu     sync.RWMutex
	byName map[string]*RecordType
	group  singleflight.Group

	// StrictInit mirrors the original module's CONFIG_CHECK_INIT_ARGS
	// flag. No code in this package reads it: records are created empty
	// by NewRecord, there is no constructor taking a map of field names,
	// and setting the flag changes no behavior.
	StrictInit bool

	// Backend is the §6 engine-backend toggle (see config.go). It
	// governs whether Define may compile a RecordType lazily on a miss
	// or must find one already registered. Zero value is BackendAuto.
	Backend Backend
}

// NewSchemaRegistry returns an empty registry with BackendAuto.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{byName: make(map[string]*RecordType), Backend: BackendAuto}
}

// Lookup returns the registered record type by name, if any.
func (r *SchemaRegistry) Lookup(name string) (*RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.byName[name]
	return rt, ok
}

// Register stores an already-compiled RecordType under its own name,
// the explicit registration path BackendOff requires in place of
// Define's lazy-compile convenience.
func (r *SchemaRegistry) Register(rt *RecordType) {
	r.mu.Lock()
	r.byName[rt.Name] = rt
	r.mu.Unlock()
}

// Define returns the already-registered record type named name. On a
// miss, BackendAuto (the default) builds it via build and registers it;
// BackendOn and BackendOff both refuse to compile on demand and report
// ErrUnknownRecordType instead — BackendOn because a pre-compiled
// (generated) registration was expected, BackendOff because lazy
// compilation is disabled outright and Register must be called first.
// Concurrent BackendAuto calls for the same name block on the first
// builder and share its result.
func (r *SchemaRegistry) Define(name string, build func() (*RecordType, error)) (*RecordType, error) {
	if rt, ok := r.Lookup(name); ok {
		return rt, nil
	}
	if r.Backend == BackendOn || r.Backend == BackendOff {
		return nil, fmt.Errorf("%w: %q (backend=%s)", ErrUnknownRecordType, name, r.Backend)
	}
	v, err, _ := r.group.Do(name, func() (any, error) {
		if rt, ok := r.Lookup(name); ok {
			return rt, nil
		}
		rt, err := build()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.byName[name] = rt
		r.mu.Unlock()
		return rt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RecordType), nil
}

// FieldBuilder is the fluent API used by generated record constructors
// to describe a scalar field's options.
type FieldBuilder struct {
	fm FieldMeta
}

// Field starts describing a scalar field at the given wire index.
func Field(index uint16, name string, typ FieldType) *FieldBuilder {
	return &FieldBuilder{fm: FieldMeta{Index: index, Name: name, Type: typ, Cardinality: CardinalityScalar}}
}

// WithDefault sets the field's reported zero value.
func (b *FieldBuilder) WithDefault(v any) *FieldBuilder { b.fm.Default = v; return b }

// Arithmetic marks the field as carrying generated Add/Sub helpers, with
// an optional explicit min_value floor for Sub.
func (b *FieldBuilder) Arithmetic(minValue any) *FieldBuilder {
	b.fm.Arithmetic = true
	b.fm.MinValue = minValue
	return b
}

// Ref marks the field as storing a reference (the target's oid) rather
// than an owned copy of child. The wire type used for the oid is read
// off child's own "oid" field at encode/decode time, matching the
// original's "ref fields borrow their target's oid codec" behavior.
func (b *FieldBuilder) Ref(child *RecordType) *FieldBuilder {
	b.fm.Ref = true
	b.fm.Type = TypeStruct
	b.fm.ChildType = child
	return b
}

// SkipChanged marks the field as excluded from change tracking entirely.
func (b *FieldBuilder) SkipChanged() *FieldBuilder { b.fm.SkipChanged = true; return b }

// Attr attaches a passthrough attribute, e.g. Attr("conf_name", "x").
func (b *FieldBuilder) Attr(key string, value any) *FieldBuilder {
	if b.fm.Attrs == nil {
		b.fm.Attrs = make(map[string]any)
	}
	b.fm.Attrs[key] = value
	return b
}

// Struct turns the field into a nested-record scalar field.
func (b *FieldBuilder) Struct(child *RecordType, newChild func() any) *FieldBuilder {
	b.fm.Type = TypeStruct
	b.fm.ChildType = child
	b.fm.NewChild = newChild
	return b
}

// Build finalizes the field description.
func (b *FieldBuilder) Build() FieldMeta { return b.fm }

// ArrayField describes an array-cardinality field.
func ArrayField(index uint16, name string, elemType FieldType, newContainer func() any) FieldMeta {
	return FieldMeta{Index: index, Name: name, Type: elemType, Cardinality: CardinalityArray, NewContainer: newContainer}
}

// ArrayOfStructField describes an array field whose elements are nested
// records.
func ArrayOfStructField(index uint16, name string, child *RecordType, newChild func() any, newContainer func() any) FieldMeta {
	return FieldMeta{
		Index: index, Name: name, Type: TypeStruct, Cardinality: CardinalityArray,
		ChildType: child, NewChild: newChild, NewContainer: newContainer,
	}
}

// ArrayOfRefField describes an array field whose elements are
// non-owning references into child instances, resolved by oid at
// decode time the same way a scalar or map ref field is.
func ArrayOfRefField(index uint16, name string, child *RecordType, newContainer func() any) FieldMeta {
	return FieldMeta{
		Index: index, Name: name, Type: TypeStruct, Cardinality: CardinalityArray,
		ChildType: child, Ref: true, NewContainer: newContainer,
	}
}

// MapField describes a map-cardinality field.
func MapField(index uint16, name string, keyType, elemType FieldType, newContainer func() any) FieldMeta {
	return FieldMeta{Index: index, Name: name, Type: elemType, KeyType: keyType, Cardinality: CardinalityMap, NewContainer: newContainer}
}

// MapOfStructField describes a map field whose values are nested
// records.
func MapOfStructField(index uint16, name string, keyType FieldType, child *RecordType, ref bool, newChild func() any, newContainer func() any) FieldMeta {
	return FieldMeta{
		Index: index, Name: name, Type: TypeStruct, KeyType: keyType, Cardinality: CardinalityMap,
		ChildType: child, Ref: ref, NewChild: newChild, NewContainer: newContainer,
	}
}

// IDMapField describes an id-map field: a map whose values are nested
// records with their own oid field, which supplies the key.
func IDMapField(index uint16, name string, keyType FieldType, child *RecordType, newChild func() any, newContainer func() any) FieldMeta {
	return FieldMeta{
		Index: index, Name: name, Type: TypeStruct, KeyType: keyType, Cardinality: CardinalityIDMap,
		ChildType: child, NewChild: newChild, NewContainer: newContainer,
	}
}
