// Package fixtures defines a small record graph — Point, Rect, Box,
// Coord, Scene, Object, Objects — used by the recordmodel package's
// tests and by example/main.go. It is hand-authored in the same shape
// cmd/recordgen emits: a package-level RecordType built once via
// Registry.Define, a thin wrapper embedding *recordmodel.Record, and
// typed Get/Set accessors over the generic field-storage helpers.
package fixtures

import "github.com/mxkacsa/recordmodel"

// Registry holds every RecordType this package defines. Application
// code that wants BackendOn/BackendOff semantics would normally build
// its own registry and Register these types explicitly instead.
var Registry = recordmodel.NewSchemaRegistry()

func mustDefine(name string, parents []*recordmodel.RecordType, fields []recordmodel.FieldMeta, newInstance func() recordmodel.Trackable) *recordmodel.RecordType {
	rt, err := Registry.Define(name, func() (*recordmodel.RecordType, error) {
		return recordmodel.DefineRecord(name, parents, fields, newInstance)
	})
	if err != nil {
		panic(err)
	}
	return rt
}

// ---- Point ----

var PointType = mustDefine("Point", nil, []recordmodel.FieldMeta{
	recordmodel.Field(1, "x", recordmodel.TypeInt32).WithDefault(int32(0)).Build(),
	recordmodel.Field(2, "y", recordmodel.TypeInt32).WithDefault(int32(0)).Build(),
}, func() recordmodel.Trackable { return NewPoint() })

// Point is spec.md S1/S2/S3's scalar test record: two plain int32
// fields with no nested structure of their own.
type Point struct{ *recordmodel.Record }

func NewPoint() *Point { return &Point{recordmodel.NewRecord(PointType)} }

func (p *Point) X() int32     { return recordmodel.Get[int32](p.Record, 1) }
func (p *Point) SetX(v int32) { recordmodel.Set(p.Record, 1, v) }
func (p *Point) Y() int32     { return recordmodel.Get[int32](p.Record, 2) }
func (p *Point) SetY(v int32) { recordmodel.Set(p.Record, 2, v) }

// ---- Rect ----

var RectType = mustDefine("Rect", nil, []recordmodel.FieldMeta{
	recordmodel.Field(1, "lt", recordmodel.TypeStruct).Struct(PointType, func() any { return NewPoint() }).Build(),
	recordmodel.Field(2, "rb", recordmodel.TypeStruct).Struct(PointType, func() any { return NewPoint() }).Build(),
}, func() recordmodel.Trackable { return NewRect() })

// Rect is spec.md S2's nested-delta test record: two owned (non-ref)
// scalar Point fields.
type Rect struct{ *recordmodel.Record }

func NewRect() *Rect { return &Rect{recordmodel.NewRecord(RectType)} }

func (r *Rect) Lt() *Point     { return recordmodel.Get[*Point](r.Record, 1) }
func (r *Rect) SetLt(v *Point) { recordmodel.Set(r.Record, 1, v) }
func (r *Rect) Rb() *Point     { return recordmodel.Get[*Point](r.Record, 2) }
func (r *Rect) SetRb(v *Point) { recordmodel.Set(r.Record, 2, v) }

// ---- Box ----

var BoxType = mustDefine("Box", nil, []recordmodel.FieldMeta{
	recordmodel.ArrayOfStructField(1, "points", PointType,
		func() any { return NewPoint() },
		func() any { return recordmodel.NewArray[*Point]() }),
}, func() recordmodel.Trackable { return NewBox() })

// Box is spec.md S3's array-mutation test record: a single array of
// owned Point elements.
type Box struct{ *recordmodel.Record }

func NewBox() *Box { return &Box{recordmodel.NewRecord(BoxType)} }

func (b *Box) Points() *recordmodel.Array[*Point] {
	return recordmodel.Get[*recordmodel.Array[*Point]](b.Record, 1)
}
func (b *Box) SetPoints(v *recordmodel.Array[*Point]) { recordmodel.Set(b.Record, 1, v) }

// ---- Coord ----

var CoordType = mustDefine("Coord", nil, []recordmodel.FieldMeta{
	recordmodel.Field(1, "oid", recordmodel.TypeString).Build(),
	recordmodel.Field(2, "x", recordmodel.TypeInt32).WithDefault(int32(0)).Build(),
	recordmodel.Field(3, "y", recordmodel.TypeInt32).WithDefault(int32(0)).Build(),
}, func() recordmodel.Trackable { return NewCoord() })

// Coord is spec.md S4/S6's map-entry/reference-target test record: it
// carries its own oid so it can sit at the far end of a reference
// field even though Scene.coords keys it by an explicit string, not by
// an id-map.
type Coord struct{ *recordmodel.Record }

func NewCoord() *Coord { return &Coord{recordmodel.NewRecord(CoordType)} }

func (c *Coord) Oid() string     { return recordmodel.Get[string](c.Record, 1) }
func (c *Coord) SetOid(v string) { recordmodel.Set(c.Record, 1, v) }
func (c *Coord) X() int32        { return recordmodel.Get[int32](c.Record, 2) }
func (c *Coord) SetX(v int32)    { recordmodel.Set(c.Record, 2, v) }
func (c *Coord) Y() int32        { return recordmodel.Get[int32](c.Record, 3) }
func (c *Coord) SetY(v int32)    { recordmodel.Set(c.Record, 3, v) }

// RefOid satisfies recordmodel.Referenceable so a Coord can sit at the
// far end of a reference field.
func (c *Coord) RefOid() any { return c.Oid() }

// ---- Scene ----

var SceneType = mustDefine("Scene", nil, []recordmodel.FieldMeta{
	recordmodel.MapOfStructField(1, "coords", recordmodel.TypeString, CoordType, false,
		func() any { return NewCoord() },
		func() any { return recordmodel.NewMap[string, *Coord]() }),
	recordmodel.MapOfStructField(2, "refs", recordmodel.TypeString, CoordType, true,
		nil,
		func() any { return recordmodel.NewMap[string, *Coord]() }),
}, func() recordmodel.Trackable { return NewScene() })

// Scene is spec.md S4/S6's test record: coords owns a map of Coord
// values keyed by an explicit string; refs is a same-shaped map whose
// values are non-owning references into some Coord instance (typically
// one already living in coords).
type Scene struct{ *recordmodel.Record }

func NewScene() *Scene { return &Scene{recordmodel.NewRecord(SceneType)} }

func (s *Scene) Coords() *recordmodel.Map[string, *Coord] {
	return recordmodel.Get[*recordmodel.Map[string, *Coord]](s.Record, 1)
}
func (s *Scene) SetCoords(v *recordmodel.Map[string, *Coord]) { recordmodel.Set(s.Record, 1, v) }

func (s *Scene) Refs() *recordmodel.Map[string, *Coord] {
	return recordmodel.Get[*recordmodel.Map[string, *Coord]](s.Record, 2)
}
func (s *Scene) SetRefs(v *recordmodel.Map[string, *Coord]) { recordmodel.Set(s.Record, 2, v) }

// ---- Object / Objects ----

var ObjectType = mustDefine("Object", nil, []recordmodel.FieldMeta{
	recordmodel.Field(1, "oid", recordmodel.TypeInt32).Build(),
	recordmodel.Field(2, "name", recordmodel.TypeString).Build(),
}, func() recordmodel.Trackable { return NewObject() })

// Object is spec.md S5's id-map value type: its oid supplies the
// id-map key, so the oid field is excluded from its own encoded
// payload (excludeOidFilter) to avoid repeating it.
type Object struct{ *recordmodel.Record }

func NewObject() *Object { return &Object{recordmodel.NewRecord(ObjectType)} }

func (o *Object) Oid() int32        { return recordmodel.Get[int32](o.Record, 1) }
func (o *Object) SetOid(v int32)    { recordmodel.Set(o.Record, 1, v) }
func (o *Object) Name() string      { return recordmodel.Get[string](o.Record, 2) }
func (o *Object) SetName(v string)  { recordmodel.Set(o.Record, 2, v) }

var ObjectsType = mustDefine("Objects", nil, []recordmodel.FieldMeta{
	recordmodel.IDMapField(1, "objects", recordmodel.TypeInt32, ObjectType,
		func() any { return NewObject() },
		func() any { return recordmodel.NewIdMap[int32, *Object]() }),
}, func() recordmodel.Trackable { return NewObjects() })

// Objects is spec.md S5's id-map holder record.
type Objects struct{ *recordmodel.Record }

func NewObjects() *Objects { return &Objects{recordmodel.NewRecord(ObjectsType)} }

func (o *Objects) Objects() *recordmodel.IdMap[int32, *Object] {
	return recordmodel.Get[*recordmodel.IdMap[int32, *Object]](o.Record, 1)
}
func (o *Objects) SetObjects(v *recordmodel.IdMap[int32, *Object]) { recordmodel.Set(o.Record, 1, v) }

// ---- Counter ----

var CounterType = mustDefine("Counter", nil, []recordmodel.FieldMeta{
	recordmodel.Field(1, "health", recordmodel.TypeUint32).
		WithDefault(uint32(0)).
		Arithmetic(uint32(0)).
		Build(),
}, func() recordmodel.Trackable { return NewCounter() })

// Counter is spec.md §8 Property 6's arithmetic test record: health is a
// uint32 field floored at its min_value of 0, so Sub past zero errors
// instead of wrapping, while Add wraps only at uint32's own width.
type Counter struct{ *recordmodel.Record }

func NewCounter() *Counter { return &Counter{recordmodel.NewRecord(CounterType)} }

func (c *Counter) Health() uint32     { return recordmodel.Get[uint32](c.Record, 1) }
func (c *Counter) SetHealth(v uint32) { recordmodel.Set(c.Record, 1, v) }

func (c *Counter) AddHealth(delta uint32) (uint32, uint32) { return recordmodel.Add(c.Record, 1, delta) }

func (c *Counter) SubHealth(delta uint32) (uint32, uint32, error) {
	return recordmodel.Sub(c.Record, 1, delta)
}
