package recordmodel

import "fmt"

// binaryTerminator is the two-byte sequence (a fieldTerminator) a struct
// with no emitted fields writes — used to detect that a nested struct's
// only_changed encode produced nothing, the binary analogue of
// EncodeDict's SKIP_FROM_PACK check.
var binaryTerminator = [2]byte{0, 0}

// EncodeBinary renders a record into spec.md §4.3's big-endian, fixed
// width wire format. only_changed filtering decides which fields are
// written; once a container field passes, every array element and
// map/id-map entry is written, with no per-entry filtering (a struct
// element still carries only its own changed fields, see
// writeElementBinary). The binary format carries no deletion/tombstone
// representation, so Map/IdMap removed-keys tombstones are never
// written here regardless of onlyChanged.
func EncodeBinary(t Trackable, onlyChanged bool, filter FieldFilter) ([]byte, error) {
	w := NewWriteBuffer(64)
	if err := encodeBinaryInto(w, t, onlyChanged, filter); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeBinaryInto(w *WriteBuffer, t Trackable, onlyChanged bool, filter FieldFilter) error {
	rt := t.RecordType()
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
		if err := encodeFieldBinary(w, t, fm, onlyChanged, filter); err != nil {
			return &PackError{Record: rt.Name, Field: fm.Name, Err: err}
		}
	}
	writeFieldIndex(w, fieldTerminator)
	return nil
}

func encodeFieldBinary(w *WriteBuffer, t Trackable, fm *FieldMeta, onlyChanged bool, filter FieldFilter) error {
	v := t.FieldValue(fm.Index)

	if fm.Ref {
		return encodeRefFieldBinary(w, fm, v)
	}

	switch fm.Cardinality {
	case CardinalityScalar:
		if fm.Type != TypeStruct {
			writeFieldIndex(w, fm.Index)
			return writePrimitive(w, fm.Type, v)
		}
		sub := NewWriteBuffer(16)
		child := v.(Trackable)
		if err := encodeBinaryInto(sub, child, onlyChanged, filter); err != nil {
			return err
		}
		if onlyChanged && isEmptyBinaryStruct(sub.Bytes()) {
			return nil
		}
		writeFieldIndex(w, fm.Index)
		appendBytes(w, sub.Bytes())
		return nil

	case CardinalityArray:
		writeFieldIndex(w, fm.Index)
		arr := v.(ArrayContainer)
		writeContainerHead(w, headArray, uint32(arr.Len()))
		for i := 0; i < arr.Len(); i++ {
			if err := writeElementBinary(w, arr.At(i), fm, onlyChanged, filter); err != nil {
				return err
			}
		}
		return nil

	case CardinalityMap, CardinalityIDMap:
		writeFieldIndex(w, fm.Index)
		m := v.(MapContainer)
		head := headMap
		if fm.Cardinality == CardinalityIDMap {
			head = headIDMap
		}
		writeContainerHead(w, head, uint32(m.Len()))
		var err error
		m.RangeRaw(func(key, val any) {
			if err != nil {
				return
			}
			err = writePrimitive(w, fm.KeyType, key)
			if err != nil {
				return
			}
			err = writeElementBinary(w, val, fm, onlyChanged, filter)
		})
		return err
	}
	return fmt.Errorf("recordmodel: unsupported cardinality %s", fm.Cardinality)
}

// writeElementBinary writes one array element or map/id-map value. A
// struct element is always written in full: unlike a dict-mode map
// entry, binary has no way to omit an element and still let the decoder
// find the next one, so onlyChanged only affects which of the struct's
// own fields get written, never whether the element itself appears.
func writeElementBinary(w *WriteBuffer, elem any, fm *FieldMeta, onlyChanged bool, filter FieldFilter) error {
	if fm.Type != TypeStruct {
		return writePrimitive(w, fm.Type, elem)
	}
	child := elem.(Trackable)
	elemFilter := filter
	if fm.Cardinality == CardinalityIDMap {
		elemFilter = filter.And(excludeOidFilter)
	}
	return encodeBinaryInto(w, child, onlyChanged, elemFilter)
}

// encodeRefFieldBinary writes a reference field's oid(s), using the wire
// type borrowed from the target's own oid field (refOidType) — the
// binary format has no separate type declaration of its own for it.
func encodeRefFieldBinary(w *WriteBuffer, fm *FieldMeta, v any) error {
	oidType := refOidType(fm)
	switch fm.Cardinality {
	case CardinalityScalar:
		writeFieldIndex(w, fm.Index)
		return writePrimitive(w, oidType, refOidOf(v))

	case CardinalityArray:
		writeFieldIndex(w, fm.Index)
		arr := v.(ArrayContainer)
		writeContainerHead(w, headArray, uint32(arr.Len()))
		for i := 0; i < arr.Len(); i++ {
			if err := writePrimitive(w, oidType, refOidOf(arr.At(i))); err != nil {
				return err
			}
		}
		return nil

	case CardinalityMap, CardinalityIDMap:
		writeFieldIndex(w, fm.Index)
		m := v.(MapContainer)
		head := headMap
		if fm.Cardinality == CardinalityIDMap {
			head = headIDMap
		}
		writeContainerHead(w, head, uint32(m.Len()))
		var err error
		m.RangeRaw(func(key, val any) {
			if err != nil {
				return
			}
			err = writePrimitive(w, fm.KeyType, key)
			if err != nil {
				return
			}
			err = writePrimitive(w, oidType, refOidOf(val))
		})
		return err
	}
	return fmt.Errorf("recordmodel: unsupported ref cardinality %s", fm.Cardinality)
}

func writePrimitive(w *WriteBuffer, ft FieldType, v any) error {
	switch ft {
	case TypeInt8:
		writeInt8(w, v.(int8))
	case TypeUint8:
		writeUint8(w, v.(uint8))
	case TypeInt16:
		writeInt16(w, v.(int16))
	case TypeUint16:
		writeUint16(w, v.(uint16))
	case TypeInt32:
		writeInt32(w, v.(int32))
	case TypeUint32:
		writeUint32(w, v.(uint32))
	case TypeInt64:
		writeInt64(w, v.(int64))
	case TypeUint64:
		writeUint64(w, v.(uint64))
	case TypeFloat32:
		writeFloat32(w, v.(float32))
	case TypeFloat64:
		writeFloat64(w, v.(float64))
	case TypeBool:
		writeBool(w, v.(bool))
	case TypeString:
		return writeString(w, v.(string))
	default:
		return fmt.Errorf("recordmodel: unsupported field type %s", ft)
	}
	return nil
}

func isEmptyBinaryStruct(b []byte) bool {
	return len(b) == 2 && b[0] == binaryTerminator[0] && b[1] == binaryTerminator[1]
}

func appendBytes(w *WriteBuffer, b []byte) {
	copy(w.grow(len(b)), b)
}
