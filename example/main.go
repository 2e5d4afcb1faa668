// Command example demonstrates the recordmodel engine: defining
// records, mutating them, taking an only-changed dict delta, replaying
// it onto a second instance in sync mode, and round-tripping a full
// binary snapshot.
package main

import (
	"fmt"

	"github.com/mxkacsa/recordmodel"
	"github.com/mxkacsa/recordmodel/fixtures"
)

func main() {
	fmt.Println("=== recordmodel example ===")

	scene := fixtures.NewScene()
	coords := recordmodel.NewMap[string, *fixtures.Coord]()
	for _, id := range []string{"a", "b", "c"} {
		c := fixtures.NewCoord()
		c.SetOid(id)
		coords.Set(id, c)
	}
	scene.SetCoords(coords)

	full, _ := recordmodel.EncodeDict(scene, false, nil)
	fmt.Printf("full snapshot: %v\n", full)

	scene.ClearChanged(true)
	a, _ := scene.Coords().Get("a")
	a.SetX(42)
	scene.Coords().Delete("b")

	delta, _ := recordmodel.EncodeDict(scene, true, nil)
	fmt.Printf("only-changed delta: %v\n", delta)

	dest := fixtures.NewScene()
	destCoords := recordmodel.NewMap[string, *fixtures.Coord]()
	for _, id := range []string{"a", "b", "c"} {
		c := fixtures.NewCoord()
		c.SetOid(id)
		destCoords.Set(id, c)
	}
	dest.SetCoords(destCoords)
	dest.ClearChanged(true)

	unsolved, err := recordmodel.UnpackDict(dest, delta, recordmodel.ModeSync, nil, false)
	if err != nil {
		fmt.Println("decode error:", err)
		return
	}
	destA, _ := dest.Coords().Get("a")
	_, hasB := dest.Coords().Get("b")
	fmt.Printf("after sync: a.x=%d, has(b)=%v, unsolved=%v\n", destA.X(), hasB, unsolved)

	objects := fixtures.NewObjects()
	idmap := recordmodel.NewIdMap[int32, *fixtures.Object]()
	o1 := fixtures.NewObject()
	o1.SetOid(1)
	o1.SetName("name1")
	idmap.Add(o1)
	objects.SetObjects(idmap)

	bin, err := recordmodel.EncodeBinary(objects, false, nil)
	if err != nil {
		fmt.Println("binary encode error:", err)
		return
	}
	fmt.Printf("binary snapshot: %d bytes\n", len(bin))

	destObjects := fixtures.NewObjects()
	if _, err := recordmodel.UnpackBinary(destObjects, bin, recordmodel.ModeOverride, nil, false); err != nil {
		fmt.Println("binary decode error:", err)
		return
	}
	entry, _ := destObjects.Objects().Get(1)
	fmt.Printf("decoded object 1: oid=%d name=%s\n", entry.Oid(), entry.Name())
}
