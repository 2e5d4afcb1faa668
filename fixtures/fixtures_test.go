package fixtures

import (
	"reflect"
	"testing"

	"github.com/mxkacsa/recordmodel"
)

// S1 - Scalar delta.
func TestScalarDelta(t *testing.T) {
	p := NewPoint()
	p.SetX(1)
	p.ClearChanged(false)
	p.SetY(2)

	got, _ := recordmodel.EncodeDict(p, true, nil)
	want := map[string]any{"y": int32(2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeDict(only_changed) = %#v, want %#v", got, want)
	}

	p.ClearChanged(false)
	if err := p.SetChanged("x", "y"); err != nil {
		t.Fatal(err)
	}
	if err := p.ClearFieldChanged(false, "y"); err != nil {
		t.Fatal(err)
	}
	got, _ = recordmodel.EncodeDict(p, true, nil)
	want = map[string]any{"x": int32(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeDict(only_changed) after SetChanged/ClearFieldChanged = %#v, want %#v", got, want)
	}
}

// S2 - Nested delta.
func TestNestedDelta(t *testing.T) {
	r := NewRect()
	lt, rb := NewPoint(), NewPoint()
	lt.SetX(1)
	lt.SetY(1)
	rb.SetX(2)
	rb.SetY(2)
	r.SetLt(lt)
	r.SetRb(rb)
	r.ClearChanged(true)

	r.Lt().SetX(100)
	r.Rb().SetY(100)

	got, _ := recordmodel.EncodeDict(r, true, nil)
	want := map[string]any{
		"lt": map[string]any{"x": int32(100)},
		"rb": map[string]any{"y": int32(100)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeDict(only_changed) = %#v, want %#v", got, want)
	}
}

// S3 - Array mutation.
func TestArrayMutation(t *testing.T) {
	b := NewBox()
	arr := recordmodel.NewArray[*Point]()
	for i := int32(0); i < 5; i++ {
		p := NewPoint()
		p.SetX(i)
		p.SetY(i)
		arr.Append(p)
	}
	b.SetPoints(arr)

	full, _ := recordmodel.EncodeDict(b, false, nil)
	points := full["points"].([]any)
	got := points[2]
	want := map[string]any{"x": int32(2), "y": int32(2)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("points[2] = %#v, want %#v", got, want)
	}

	b.ClearChanged(true)
	b.Points().Delete(2)
	if !b.HasChanged(true) {
		t.Fatal("HasChanged(recursive=true) = false after array delete, want true")
	}
}

// S4 - Map tombstone (sync).
func TestMapTombstoneSync(t *testing.T) {
	newSource := func() *Scene {
		s := NewScene()
		c := NewCoord()
		c.SetOid("a")
		c.SetX(1)
		c.SetY(2)
		coords := recordmodel.NewMap[string, *Coord]()
		coords.Set("a", c)
		s.SetCoords(coords)
		return s
	}

	source := newSource()
	source.ClearChanged(true)
	source.Coords().Delete("a")

	delta, _ := recordmodel.EncodeDict(source, true, nil)
	want := map[string]any{"coords": map[string]any{"a": nil}}
	if !reflect.DeepEqual(delta, want) {
		t.Fatalf("EncodeDict(only_changed) = %#v, want %#v", delta, want)
	}

	dest := newSource()
	if _, err := recordmodel.UnpackDict(dest, delta, recordmodel.ModeSync, nil, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := dest.Coords().Get("a"); ok {
		t.Fatal("dest.Coords() still has key \"a\" after sync-mode tombstone decode")
	}
}

// S5 - Id-map round-trip.
func TestIdMapRoundTrip(t *testing.T) {
	o := NewObjects()
	m := recordmodel.NewIdMap[int32, *Object]()
	o1 := NewObject()
	o1.SetOid(1)
	o1.SetName("name1")
	o2 := NewObject()
	o2.SetOid(2)
	o2.SetName("name2")
	m.Add(o1)
	m.Add(o2)
	o.SetObjects(m)

	got, _ := recordmodel.EncodeDict(o, false, nil)
	want := map[string]any{
		"objects": map[string]any{
			"1": map[string]any{"name": "name1"},
			"2": map[string]any{"name": "name2"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("EncodeDict() = %#v, want %#v", got, want)
	}

	dest := NewObjects()
	if _, err := recordmodel.UnpackDict(dest, got, recordmodel.ModeOverride, nil, false); err != nil {
		t.Fatal(err)
	}
	entry, ok := dest.Objects().Get(1)
	if !ok {
		t.Fatal("dest.Objects() missing key 1 after decode")
	}
	if entry.Oid() != 1 {
		t.Fatalf("dest.Objects()[1].Oid() = %d, want 1", entry.Oid())
	}
}

// S6 - Reference resolution.
func TestReferenceResolution(t *testing.T) {
	newPopulated := func() *Scene {
		s := NewScene()
		coords := recordmodel.NewMap[string, *Coord]()
		for _, id := range []string{"a", "b", "c"} {
			c := NewCoord()
			c.SetOid(id)
			coords.Set(id, c)
		}
		s.SetCoords(coords)
		refs := recordmodel.NewMap[string, *Coord]()
		a, _ := coords.Get("a")
		b, _ := coords.Get("b")
		refs.Set("1", a)
		refs.Set("2", b)
		s.SetRefs(refs)
		return s
	}

	source := newPopulated()
	source.ClearChanged(true)
	c, _ := source.Coords().Get("c")
	source.Refs().Set("3", c)

	delta, _ := recordmodel.EncodeDict(source, true, nil)

	dest := newPopulated()
	dest.ClearChanged(true)

	resolveRef := func(oid any) (recordmodel.Trackable, bool) {
		if v, ok := dest.Coords().Get(oid.(string)); ok {
			return v, true
		}
		return nil, false
	}

	unsolved, err := recordmodel.UnpackDict(dest, delta, recordmodel.ModeSync, resolveRef, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(unsolved) != 0 {
		t.Fatalf("unsolved = %v, want empty", unsolved)
	}

	destC, _ := dest.Coords().Get("c")
	gotRef, ok := dest.Refs().Get("3")
	if !ok {
		t.Fatal("dest.Refs() missing key \"3\" after sync decode")
	}
	if gotRef != destC {
		t.Fatalf("dest.Refs()[\"3\"] does not point at dest.Coords()[\"c\"]")
	}
}

// Property 1 - round-trip, dict form.
func TestRoundTripDict(t *testing.T) {
	r := NewRect()
	lt, rb := NewPoint(), NewPoint()
	lt.SetX(1)
	lt.SetY(2)
	rb.SetX(3)
	rb.SetY(4)
	r.SetLt(lt)
	r.SetRb(rb)

	data, _ := recordmodel.EncodeDict(r, false, nil)
	dest := NewRect()
	if _, err := recordmodel.UnpackDict(dest, data, recordmodel.ModeOverride, nil, false); err != nil {
		t.Fatal(err)
	}
	if dest.Lt().X() != 1 || dest.Lt().Y() != 2 || dest.Rb().X() != 3 || dest.Rb().Y() != 4 {
		t.Fatalf("round-trip mismatch: lt=(%d,%d) rb=(%d,%d)",
			dest.Lt().X(), dest.Lt().Y(), dest.Rb().X(), dest.Rb().Y())
	}
}

// Property 1 - round-trip, binary form.
func TestRoundTripBinary(t *testing.T) {
	p := NewPoint()
	p.SetX(7)
	p.SetY(-3)

	data, err := recordmodel.EncodeBinary(p, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	dest := NewPoint()
	if _, err := recordmodel.UnpackBinary(dest, data, recordmodel.ModeOverride, nil, false); err != nil {
		t.Fatal(err)
	}
	if dest.X() != 7 || dest.Y() != -3 {
		t.Fatalf("round-trip mismatch: (%d, %d), want (7, -3)", dest.X(), dest.Y())
	}
}

// Property 2 - delta idempotence.
func TestDeltaIdempotence(t *testing.T) {
	p := NewPoint()
	p.SetX(1)
	p.SetY(1)
	p.ClearChanged(true)

	delta, hasData := recordmodel.EncodeDict(p, true, nil)
	if hasData || len(delta) != 0 {
		t.Fatalf("EncodeDict(only_changed) after ClearChanged = %#v, want empty", delta)
	}

	p.SetX(2)
	if !p.HasChanged(true) {
		t.Fatal("HasChanged(true) = false after a mutating setter, want true")
	}
}

// Property 3 - delta replay.
func TestDeltaReplay(t *testing.T) {
	r1 := NewRect()
	lt1, rb1 := NewPoint(), NewPoint()
	lt1.SetX(1)
	lt1.SetY(1)
	rb1.SetX(2)
	rb1.SetY(2)
	r1.SetLt(lt1)
	r1.SetRb(rb1)

	r2 := NewRect()
	lt2, rb2 := NewPoint(), NewPoint()
	lt2.SetX(1)
	lt2.SetY(1)
	rb2.SetX(2)
	rb2.SetY(2)
	r2.SetLt(lt2)
	r2.SetRb(rb2)

	r1.ClearChanged(true)
	r2.ClearChanged(true)

	r1.Lt().SetX(100)
	r1.Rb().SetY(100)

	delta, _ := recordmodel.EncodeDict(r1, true, nil)
	if _, err := recordmodel.UnpackDict(r2, delta, recordmodel.ModeSync, nil, false); err != nil {
		t.Fatal(err)
	}

	if r2.Lt().X() != r1.Lt().X() || r2.Rb().Y() != r1.Rb().Y() {
		t.Fatalf("replay mismatch: r2.lt.x=%d r2.rb.y=%d, want %d/%d",
			r2.Lt().X(), r2.Rb().Y(), r1.Lt().X(), r1.Rb().Y())
	}
}

// Property 4 - id-map invariant.
func TestIdMapInvariant(t *testing.T) {
	o := NewObjects()
	m := recordmodel.NewIdMap[int32, *Object]()
	for _, id := range []int32{1, 2, 3} {
		obj := NewObject()
		obj.SetOid(id)
		obj.SetName("x")
		m.Add(obj)
	}
	o.SetObjects(m)

	data, _ := recordmodel.EncodeDict(o, false, nil)
	dest := NewObjects()
	if _, err := recordmodel.UnpackDict(dest, data, recordmodel.ModeOverride, nil, false); err != nil {
		t.Fatal(err)
	}
	var checked int
	dest.Objects().RangeRaw(func(key, value any) {
		checked++
		v := value.(*Object)
		if v.Oid() != key.(int32) {
			t.Fatalf("entry oid %d does not match key %d", v.Oid(), key.(int32))
		}
	})
	if checked != 3 {
		t.Fatalf("visited %d entries, want 3", checked)
	}
}

// Property 6 - arithmetic.
func TestArithmeticFloorAndWrap(t *testing.T) {
	c := NewCounter()
	c.SetHealth(10)

	if _, _, err := c.SubHealth(15); err == nil {
		t.Fatal("SubHealth(15) on health=10 succeeded, want an error (min_value floor)")
	}
	if c.Health() != 10 {
		t.Fatalf("Health() = %d after a rejected Sub, want unchanged 10", c.Health())
	}

	if _, next := c.AddHealth(5); next != 15 {
		t.Fatalf("AddHealth(5) next = %d, want 15", next)
	}

	c.SetHealth(^uint32(0))
	if _, next := c.AddHealth(2); next != 1 {
		t.Fatalf("AddHealth(2) at max uint32 = %d, want wraparound to 1", next)
	}
}
