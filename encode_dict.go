package recordmodel

import (
	"fmt"
	"strconv"
)

// EncodeDict renders a record into the nested map[string]any/[]any "dict"
// wire form spec.md §4.4 describes. A field is omitted entirely when it
// was never explicitly stored (matching the original's behavior of never
// materializing untouched fields into a snapshot), and — when onlyChanged
// is true — when it has not changed. When onlyChanged is true, the second
// return value reports whether anything was included at all; nested
// struct fields use this to decide whether to drop themselves from their
// parent entirely, the same SKIP_FROM_PACK mechanism the original uses.
func EncodeDict(t Trackable, onlyChanged bool, filter FieldFilter) (map[string]any, bool) {
	rt := t.RecordType()
	out := make(map[string]any, len(rt.Fields))
	any_ := false
	for _, fm := range rt.Fields {
		if filter != nil && !filter(fm) {
			continue
		}
		if !t.FieldIsSet(fm.Index) {
			continue
		}
		if onlyChanged && !t.FieldChangedAt(fm.Index, true) {
			continue
		}
		v, has := encodeFieldDict(t, fm, onlyChanged, filter)
		if !has {
			continue
		}
		key := fm.Name
		if cn, ok := fm.Attrs["conf_name"].(string); ok && cn != "" {
			key = cn
		}
		out[key] = v
		any_ = true
	}
	return out, any_
}

// encodeFieldDict renders a single field's value, given that the caller
// has already confirmed the field is set and (if onlyChanged) changed.
func encodeFieldDict(t Trackable, fm *FieldMeta, onlyChanged bool, filter FieldFilter) (any, bool) {
	v := t.FieldValue(fm.Index)

	if fm.Ref {
		return encodeRefFieldDict(v, fm, onlyChanged)
	}

	switch fm.Cardinality {
	case CardinalityScalar:
		if fm.Type != TypeStruct {
			return v, true
		}
		child, ok := v.(Trackable)
		if !ok {
			return nil, false
		}
		d, has := EncodeDict(child, onlyChanged, filter)
		if onlyChanged && !has {
			return nil, false
		}
		return d, true

	case CardinalityArray:
		arr := v.(ArrayContainer)
		return encodeArrayDict(arr, fm, onlyChanged, filter), true

	case CardinalityMap, CardinalityIDMap:
		m := v.(MapContainer)
		return encodeMapDict(m, fm, onlyChanged, filter), true
	}
	return v, true
}

// encodeArrayDict renders every current element — once the field itself
// has passed the caller's inclusion gate, arrays are always emitted in
// full; there is no per-element tombstone scheme. Struct elements still
// carry onlyChanged down into their own fields, but never disappear from
// the list entirely the way a map entry or a top-level struct field can.
func encodeArrayDict(arr ArrayContainer, fm *FieldMeta, onlyChanged bool, filter FieldFilter) []any {
	list := make([]any, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		list[i] = encodeElementDict(arr.At(i), fm, onlyChanged, filter)
	}
	return list
}

// encodeMapDict renders a map/id-map field. Every current entry is
// visited; a struct (non-ref) entry is recursively encoded with the same
// onlyChanged flag and dropped from the result if that recursive encode
// produced nothing (the entry itself has no changes of its own). A ref
// entry always resolves to its target's oid, so it's never dropped. When
// onlyChanged, keys removed since the last clear are appended as explicit
// null tombstones.
func encodeMapDict(m MapContainer, fm *FieldMeta, onlyChanged bool, filter FieldFilter) map[string]any {
	out := make(map[string]any, m.Len())
	m.RangeRaw(func(key, val any) {
		v, has := encodeMapValueDict(val, fm, onlyChanged, filter)
		if !has {
			return
		}
		out[dictKey(key)] = v
	})
	if onlyChanged {
		for _, k := range m.RemovedKeys() {
			out[dictKey(k)] = nil
		}
	}
	return out
}

func encodeMapValueDict(val any, fm *FieldMeta, onlyChanged bool, filter FieldFilter) (any, bool) {
	if fm.Ref {
		return refOidOf(val), true
	}
	if fm.Type != TypeStruct {
		return val, true
	}
	child := val.(Trackable)
	elemFilter := filter
	if fm.Cardinality == CardinalityIDMap {
		elemFilter = filter.And(excludeOidFilter)
	}
	d, has := EncodeDict(child, onlyChanged, elemFilter)
	if onlyChanged && !has {
		return nil, false
	}
	return d, true
}

// encodeElementDict renders a single array element, which (unlike a map
// entry) is never dropped from its slot — onlyChanged still threads
// through to a struct element's own fields.
func encodeElementDict(elem any, fm *FieldMeta, onlyChanged bool, filter FieldFilter) any {
	if fm.Type != TypeStruct {
		return elem
	}
	child := elem.(Trackable)
	elemFilter := filter
	if fm.Cardinality == CardinalityIDMap {
		elemFilter = filter.And(excludeOidFilter)
	}
	d, _ := EncodeDict(child, onlyChanged, elemFilter)
	return d
}

// encodeRefFieldDict renders a reference field: scalar refs resolve
// directly to the target's oid, array/map refs resolve every current
// element/entry to its oid (ref targets carry no owned state to diff
// per-entry, so there is nothing to filter beyond the field-level gate
// the caller already applied).
func encodeRefFieldDict(v any, fm *FieldMeta, onlyChanged bool) (any, bool) {
	switch fm.Cardinality {
	case CardinalityScalar:
		if v == nil {
			return nil, !onlyChanged
		}
		return refOidOf(v), true

	case CardinalityArray:
		arr := v.(ArrayContainer)
		list := make([]any, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			list[i] = refOidOf(arr.At(i))
		}
		return list, true

	case CardinalityMap, CardinalityIDMap:
		m := v.(MapContainer)
		out := make(map[string]any, m.Len())
		m.RangeRaw(func(key, val any) {
			out[dictKey(key)] = refOidOf(val)
		})
		if onlyChanged {
			for _, k := range m.RemovedKeys() {
				out[dictKey(k)] = nil
			}
		}
		return out, true
	}
	return nil, false
}

func refOidOf(val any) any {
	if val == nil {
		return nil
	}
	if rf, ok := val.(Referenceable); ok {
		return rf.RefOid()
	}
	return val
}

// dictKey renders a primitive map key as the string keys the dict wire
// form requires.
func dictKey(k any) string {
	switch v := k.(type) {
	case string:
		return v
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// parseDictKey parses a dict-form string key back into the Go type a
// KeyType implies.
func parseDictKey(s string, keyType FieldType) (any, error) {
	switch keyType {
	case TypeString:
		return s, nil
	case TypeInt8:
		v, err := strconv.ParseInt(s, 10, 8)
		return int8(v), err
	case TypeInt16:
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	case TypeInt32:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case TypeInt64:
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err
	case TypeUint8:
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	case TypeUint16:
		v, err := strconv.ParseUint(s, 10, 16)
		return uint16(v), err
	case TypeUint32:
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	case TypeUint64:
		v, err := strconv.ParseUint(s, 10, 64)
		return v, err
	case TypeBool:
		return strconv.ParseBool(s)
	default:
		return nil, fmt.Errorf("recordmodel: unsupported map key type %s", keyType)
	}
}
