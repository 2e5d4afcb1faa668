package recordmodel

import "fmt"

// UnpackDict decodes data into t under mode, optionally marking every
// decoded field changed, then resolves every deferred reference (using
// resolveRef first, falling back to oids registered during this decode)
// and returns whichever oids never resolved.
func UnpackDict(t Trackable, data map[string]any, mode DecodeMode, resolveRef ResolveRefFunc, markChange bool) ([]any, error) {
	ctx := NewDecodeContext(mode, markChange)
	if err := DecodeDict(t, data, ctx); err != nil {
		return nil, err
	}
	ctx.Resolve(resolveRef)
	return ctx.Unsolved(), nil
}

// DecodeDict applies the dict-form payload data onto t, registering
// t itself as a known object if it carries an oid field. Struct-valued
// fields recurse with the same ctx so references anywhere in the graph
// resolve together.
func DecodeDict(t Trackable, data map[string]any, ctx *DecodeContext) error {
	rt := t.RecordType()
	if oidField := rt.OidField(); oidField != nil {
		if raw, ok := data[oidField.Name]; ok {
			if oid, err := coerceScalar(oidField.Type, raw); err == nil {
				ctx.AddKnownObject(oid, t)
			}
		} else if t.FieldIsSet(oidField.Index) {
			ctx.AddKnownObject(t.FieldValue(oidField.Index), t)
		}
	}

	for _, fm := range rt.Fields {
		key := fm.Name
		if cn, ok := fm.Attrs["conf_name"].(string); ok && cn != "" {
			key = cn
		}
		raw, present := data[key]
		if !present {
			continue
		}
		if err := decodeFieldDict(t, fm, raw, ctx); err != nil {
			return &UnpackError{Record: rt.Name, Field: fm.Name, Err: err}
		}
		if ctx.MarkChange {
			t.Changes().Mark(fm.Index)
		}
	}
	return nil
}

func decodeFieldDict(t Trackable, fm *FieldMeta, raw any, ctx *DecodeContext) error {
	if fm.Ref {
		return decodeRefFieldDict(t, fm, raw, ctx)
	}

	switch fm.Cardinality {
	case CardinalityScalar:
		if fm.Type != TypeStruct {
			if raw == nil {
				return nil // soft fault: null scalars are ignored, per §7
			}
			v, err := coerceScalar(fm.Type, raw)
			if err != nil {
				return err
			}
			t.SetFieldValue(fm.Index, v)
			return nil
		}
		if raw == nil {
			// Scalar struct fields have no tombstone concept in either
			// mode (only map/id-map entries do); treat as a soft fault.
			return nil
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("recordmodel: field %q expects an object", fm.Name)
		}
		child := scalarChildFor(t, fm, ctx.Mode)
		if err := DecodeDict(child, m, ctx); err != nil {
			return err
		}
		t.SetFieldValue(fm.Index, child)
		return nil

	case CardinalityArray:
		return decodeArrayFieldDict(t, fm, raw, ctx)

	case CardinalityMap, CardinalityIDMap:
		return decodeMapFieldDict(t, fm, raw, ctx)
	}
	return fmt.Errorf("recordmodel: unsupported cardinality %s", fm.Cardinality)
}

// scalarChildFor returns the nested record instance a scalar struct
// field should decode into: the existing instance when patching in sync
// mode, or a fresh one in override mode.
func scalarChildFor(t Trackable, fm *FieldMeta, mode DecodeMode) Trackable {
	if mode == ModeSync && t.FieldIsSet(fm.Index) {
		if child, ok := t.FieldValue(fm.Index).(Trackable); ok {
			return child
		}
	}
	return fm.NewChild().(Trackable)
}

// decodeArrayFieldDict always replaces the whole array — arrays have no
// per-index sync semantics, only a null-element skip for fault
// tolerance (never tombstoned, unlike a map's null entry).
func decodeArrayFieldDict(t Trackable, fm *FieldMeta, raw any, ctx *DecodeContext) error {
	list, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("recordmodel: field %q expects an array", fm.Name)
	}
	arr := fm.NewContainer().(ArrayContainer)
	for _, rawElem := range list {
		if rawElem == nil {
			continue
		}
		v, err := decodeElementDict(fm, rawElem, ctx)
		if err != nil {
			return err
		}
		arr.AppendRaw(v)
	}
	t.SetFieldValue(fm.Index, arr)
	return nil
}

// decodeMapFieldDict patches the existing container in sync mode
// (inserting/updating keys, deleting null-payload keys) or replaces it
// wholesale in override mode, where a null entry is simply skipped.
func decodeMapFieldDict(t Trackable, fm *FieldMeta, raw any, ctx *DecodeContext) error {
	entries, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("recordmodel: field %q expects an object", fm.Name)
	}

	var m MapContainer
	if ctx.Mode == ModeSync && t.FieldIsSet(fm.Index) {
		m = t.FieldValue(fm.Index).(MapContainer)
	} else {
		m = fm.NewContainer().(MapContainer)
	}

	for rawKey, rawVal := range entries {
		key, err := parseDictKey(rawKey, fm.KeyType)
		if err != nil {
			return err
		}
		if rawVal == nil {
			if ctx.Mode == ModeSync {
				m.DeleteRaw(key)
			}
			continue
		}
		v, err := decodeMapValueDict(fm, key, m, rawVal, ctx)
		if err != nil {
			return err
		}
		if v != nil {
			m.SetRaw(key, v)
		}
	}
	t.SetFieldValue(fm.Index, m)
	return nil
}

// decodeMapValueDict decodes one non-ref map/id-map entry's value; ref
// fields never reach here (decodeFieldDict dispatches them to
// decodeRefFieldDict before the cardinality switch).
func decodeMapValueDict(fm *FieldMeta, key any, m MapContainer, rawVal any, ctx *DecodeContext) (any, error) {
	if fm.Type != TypeStruct {
		return coerceScalar(fm.Type, rawVal)
	}
	entry, ok := rawVal.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("recordmodel: field %q entry expects an object", fm.Name)
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
	// Id-map entries never carry their own oid on the wire (it's the map
	// key, and encode excludes it from the payload via excludeOidFilter);
	// inject it back before decoding so the element's oid field lands.
	if fm.Cardinality == CardinalityIDMap {
		if oidField := fm.ChildType.OidField(); oidField != nil && !hasKey(entry, oidField.Name) {
			entry = withOid(entry, oidField.Name, key)
		}
	}
	if err := DecodeDict(child, entry, ctx); err != nil {
		return nil, err
	}
	return child, nil
}

func decodeElementDict(fm *FieldMeta, rawElem any, ctx *DecodeContext) (any, error) {
	if fm.Type != TypeStruct {
		return coerceScalar(fm.Type, rawElem)
	}
	entry, ok := rawElem.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("recordmodel: field %q element expects an object", fm.Name)
	}
	child := fm.NewChild().(Trackable)
	if err := DecodeDict(child, entry, ctx); err != nil {
		return nil, err
	}
	return child, nil
}

func decodeRefFieldDict(t Trackable, fm *FieldMeta, raw any, ctx *DecodeContext) error {
	oidType := refOidType(fm)
	switch fm.Cardinality {
	case CardinalityScalar:
		if raw == nil {
			return nil
		}
		oid, err := coerceScalar(oidType, raw)
		if err != nil {
			return err
		}
		ctx.AddUnsolvedRef(oid, func(resolved Trackable) {
			t.SetFieldValue(fm.Index, resolved)
		})
		return nil

	case CardinalityArray:
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("recordmodel: field %q expects an array", fm.Name)
		}
		arr := fm.NewContainer().(ArrayContainer)
		for _, rawOid := range list {
			if rawOid == nil {
				continue // skipped entirely, like a non-ref array's null element
			}
			oid, err := coerceScalar(oidType, rawOid)
			if err != nil {
				return err
			}
			// Deferred closures run sequentially in registration order
			// (DecodeContext.Resolve), so appending here lands each
			// resolved reference at the same relative position the
			// (possibly null-sparse) source list implied, without
			// leaving a gap for a skipped null.
			ctx.AddUnsolvedRef(oid, func(resolved Trackable) {
				arr.AppendRaw(resolved)
			})
		}
		t.SetFieldValue(fm.Index, arr)
		return nil

	case CardinalityMap, CardinalityIDMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("recordmodel: field %q expects an object", fm.Name)
		}
		var m MapContainer
		if ctx.Mode == ModeSync && t.FieldIsSet(fm.Index) {
			m = t.FieldValue(fm.Index).(MapContainer)
		} else {
			m = fm.NewContainer().(MapContainer)
		}
		for rawKey, rawOid := range entries {
			key, err := parseDictKey(rawKey, fm.KeyType)
			if err != nil {
				return err
			}
			if rawOid == nil {
				if ctx.Mode == ModeSync {
					m.DeleteRaw(key)
				}
				continue
			}
			oid, err := coerceScalar(oidType, rawOid)
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

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func withOid(entry map[string]any, oidName string, key any) map[string]any {
	out := make(map[string]any, len(entry)+1)
	for k, v := range entry {
		out[k] = v
	}
	out[oidName] = key
	return out
}

// coerceScalar converts a decoded dict value into the Go type ft
// implies, tolerating the common interop cases (JSON numbers decode as
// float64 regardless of the target's width/signedness).
func coerceScalar(ft FieldType, raw any) (any, error) {
	switch ft {
	case TypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case TypeBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return coerceInt(ft, raw)
	case TypeFloat32:
		if f, ok := toFloat64(raw); ok {
			return float32(f), nil
		}
	case TypeFloat64:
		if f, ok := toFloat64(raw); ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("recordmodel: cannot decode %T as %s", raw, ft)
}

func toFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func coerceInt(ft FieldType, raw any) (any, error) {
	var n int64
	switch v := raw.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case float64:
		n = int64(v)
	case uint64:
		n = int64(v)
	default:
		return nil, fmt.Errorf("recordmodel: cannot decode %T as %s", raw, ft)
	}
	switch ft {
	case TypeInt8:
		return int8(n), nil
	case TypeInt16:
		return int16(n), nil
	case TypeInt32:
		return int32(n), nil
	case TypeInt64:
		return n, nil
	case TypeUint8:
		return uint8(n), nil
	case TypeUint16:
		return uint16(n), nil
	case TypeUint32:
		return uint32(n), nil
	case TypeUint64:
		return uint64(n), nil
	}
	return nil, fmt.Errorf("recordmodel: unsupported integer type %s", ft)
}
