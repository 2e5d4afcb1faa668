package recordmodel

import "fmt"

// UnpackBinary decodes a spec.md §4.5 binary payload into t under mode,
// then resolves deferred references exactly as UnpackDict does. Binary
// has no tombstone representation, so a sync-mode decode can patch and
// insert map/id-map entries but never deletes one implicitly — matching
// §4.5's documented limitation.
func UnpackBinary(t Trackable, data []byte, mode DecodeMode, resolveRef ResolveRefFunc, markChange bool) ([]any, error) {
	ctx := NewDecodeContext(mode, markChange)
	r := NewReadBuffer(data)
	if err := DecodeBinaryInto(t, r, ctx); err != nil {
		return nil, err
	}
	ctx.Resolve(resolveRef)
	return ctx.Unsolved(), nil
}

// DecodeBinaryInto reads fields off r until the terminator, applying
// them onto t. Registers t as a known object when it carries an oid
// field, symmetric with DecodeDict.
func DecodeBinaryInto(t Trackable, r *ReadBuffer, ctx *DecodeContext) error {
	rt := t.RecordType()
	for {
		index, err := readFieldIndex(r)
		if err != nil {
			return &UnpackError{Record: rt.Name, Err: err}
		}
		if index == fieldTerminator {
			break
		}
		fm := rt.Field(index)
		if fm == nil {
			return &UnpackError{Record: rt.Name, Err: fmt.Errorf("recordmodel: unknown field index %d", index)}
		}
		if err := decodeFieldBinary(t, fm, r, ctx); err != nil {
			return &UnpackError{Record: rt.Name, Field: fm.Name, Err: err}
		}
		if ctx.MarkChange {
			t.Changes().Mark(fm.Index)
		}
	}
	if oidField := rt.OidField(); oidField != nil && t.FieldIsSet(oidField.Index) {
		ctx.AddKnownObject(t.FieldValue(oidField.Index), t)
	}
	return nil
}

func decodeFieldBinary(t Trackable, fm *FieldMeta, r *ReadBuffer, ctx *DecodeContext) error {
	if fm.Ref {
		return decodeRefFieldBinary(t, fm, r, ctx)
	}

	switch fm.Cardinality {
	case CardinalityScalar:
		if fm.Type != TypeStruct {
			v, err := readPrimitive(r, fm.Type)
			if err != nil {
				return err
			}
			t.SetFieldValue(fm.Index, v)
			return nil
		}
		child := scalarChildFor(t, fm, ctx.Mode)
		if err := DecodeBinaryInto(child, r, ctx); err != nil {
			return err
		}
		t.SetFieldValue(fm.Index, child)
		return nil

	case CardinalityArray:
		return decodeArrayFieldBinary(t, fm, r, ctx)

	case CardinalityMap, CardinalityIDMap:
		return decodeMapFieldBinary(t, fm, r, ctx)
	}
	return fmt.Errorf("recordmodel: unsupported cardinality %s", fm.Cardinality)
}

func decodeArrayFieldBinary(t Trackable, fm *FieldMeta, r *ReadBuffer, ctx *DecodeContext) error {
	count, err := readContainerHead(r, headArray)
	if err != nil {
		return err
	}
	arr := fm.NewContainer().(ArrayContainer)
	for i := uint32(0); i < count; i++ {
		v, err := decodeElementBinary(fm, r, ctx)
		if err != nil {
			return err
		}
		arr.AppendRaw(v)
	}
	t.SetFieldValue(fm.Index, arr)
	return nil
}

// decodeMapFieldBinary patches the existing container in sync mode or
// replaces it wholesale in override mode. Every entry is a key followed
// by its value; id-map entries are registered as known objects under
// their key, as DecodeDict does. Binary carries no tombstones,
// so sync mode here only ever upserts — it never deletes a key absent
// from the stream.
func decodeMapFieldBinary(t Trackable, fm *FieldMeta, r *ReadBuffer, ctx *DecodeContext) error {
	head := headMap
	if fm.Cardinality == CardinalityIDMap {
		head = headIDMap
	}
	count, err := readContainerHead(r, head)
	if err != nil {
		return err
	}

	var m MapContainer
	if ctx.Mode == ModeSync && t.FieldIsSet(fm.Index) {
		m = t.FieldValue(fm.Index).(MapContainer)
	} else {
		m = fm.NewContainer().(MapContainer)
	}

	for i := uint32(0); i < count; i++ {
		var key any
		if fm.Cardinality == CardinalityMap {
			key, err = readPrimitive(r, fm.KeyType)
			if err != nil {
				return err
			}
		} else {
			key, err = readPrimitive(r, fm.ChildType.OidField().Type)
			if err != nil {
				return err
			}
		}
		if fm.Type != TypeStruct {
			v, err := readPrimitive(r, fm.Type)
			if err != nil {
				return err
			}
			m.SetRaw(key, v)
			continue
		}
		var child Trackable
		if ctx.Mode == ModeSync {
			if existing, ok := m.GetRaw(key); ok {
				child = existing.(Trackable)
			}
		}
		if child == nil {
			child = fm.NewChild().(Trackable)
		}
		if err := DecodeBinaryInto(child, r, ctx); err != nil {
			return err
		}
		if fm.Cardinality == CardinalityIDMap {
			if oidField := fm.ChildType.OidField(); oidField != nil && !child.FieldIsSet(oidField.Index) {
				child.SetFieldValue(oidField.Index, key)
			}
			ctx.AddKnownObject(key, child)
		}
		m.SetRaw(key, child)
	}
	t.SetFieldValue(fm.Index, m)
	return nil
}

func decodeElementBinary(fm *FieldMeta, r *ReadBuffer, ctx *DecodeContext) (any, error) {
	if fm.Type != TypeStruct {
		return readPrimitive(r, fm.Type)
	}
	child := fm.NewChild().(Trackable)
	if err := DecodeBinaryInto(child, r, ctx); err != nil {
		return nil, err
	}
	return child, nil
}

func decodeRefFieldBinary(t Trackable, fm *FieldMeta, r *ReadBuffer, ctx *DecodeContext) error {
	oidType := refOidType(fm)
	switch fm.Cardinality {
	case CardinalityScalar:
		oid, err := readPrimitive(r, oidType)
		if err != nil {
			return err
		}
		ctx.AddUnsolvedRef(oid, func(resolved Trackable) {
			t.SetFieldValue(fm.Index, resolved)
		})
		return nil

	case CardinalityArray:
		count, err := readContainerHead(r, headArray)
		if err != nil {
			return err
		}
		arr := fm.NewContainer().(ArrayContainer)
		for i := uint32(0); i < count; i++ {
			oid, err := readPrimitive(r, oidType)
			if err != nil {
				return err
			}
			// Append only once resolved: arr's element type is the
			// referenced record's pointer type, not the oid's type, so
			// eagerly appending the raw oid as a placeholder (the way a
			// non-ref array would) would panic AppendRaw's type
			// assertion. DecodeContext.Resolve runs deferred closures
			// strictly in registration order, so appending here lands
			// each resolved reference at the same relative position its
			// oid occupied on the wire.
			ctx.AddUnsolvedRef(oid, func(resolved Trackable) {
				arr.AppendRaw(resolved)
			})
		}
		t.SetFieldValue(fm.Index, arr)
		return nil

	case CardinalityMap, CardinalityIDMap:
		head := headMap
		if fm.Cardinality == CardinalityIDMap {
			head = headIDMap
		}
		count, err := readContainerHead(r, head)
		if err != nil {
			return err
		}
		var m MapContainer
		if ctx.Mode == ModeSync && t.FieldIsSet(fm.Index) {
			m = t.FieldValue(fm.Index).(MapContainer)
		} else {
			m = fm.NewContainer().(MapContainer)
		}
		for i := uint32(0); i < count; i++ {
			key, err := readPrimitive(r, fm.KeyType)
			if err != nil {
				return err
			}
			oid, err := readPrimitive(r, oidType)
			if err != nil {
				return err
			}
			k := key
			ctx.AddUnsolvedRef(oid, func(resolved Trackable) {
				m.SetRaw(k, resolved)
			})
		}
		t.SetFieldValue(fm.Index, m)
		return nil
	}
	return fmt.Errorf("recordmodel: unsupported ref cardinality %s", fm.Cardinality)
}

func readPrimitive(r *ReadBuffer, ft FieldType) (any, error) {
	switch ft {
	case TypeInt8:
		return readInt8(r)
	case TypeUint8:
		return readUint8(r)
	case TypeInt16:
		return readInt16(r)
	case TypeUint16:
		return readUint16(r)
	case TypeInt32:
		return readInt32(r)
	case TypeUint32:
		return readUint32(r)
	case TypeInt64:
		return readInt64(r)
	case TypeUint64:
		return readUint64(r)
	case TypeFloat32:
		return readFloat32(r)
	case TypeFloat64:
		return readFloat64(r)
	case TypeBool:
		return readBool(r)
	case TypeString:
		return readString(r)
	}
	return nil, fmt.Errorf("recordmodel: unsupported field type %s", ft)
}
