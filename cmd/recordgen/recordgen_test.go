package main

import (
	"strings"
	"testing"
)

func TestParseSimpleSchema(t *testing.T) {
	input := `
package: game
types:
  - name: Player
    fields:
      - {index: 1, name: id, type: string}
      - {index: 2, name: name, type: string}
      - {index: 3, name: score, type: int64}
`
	schema, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if schema.Package != "game" {
		t.Fatalf("Package = %q, want %q", schema.Package, "game")
	}
	if len(schema.Types) != 1 {
		t.Fatalf("len(Types) = %d, want 1", len(schema.Types))
	}
	player := schema.Types[0]
	if player.Name != "Player" || len(player.Fields) != 3 {
		t.Fatalf("got %+v", player)
	}
}

func TestParseRejectsDuplicateIndex(t *testing.T) {
	input := `
package: game
types:
  - name: Bad
    fields:
      - {index: 1, name: a, type: int32}
      - {index: 1, name: b, type: int32}
`
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Fatal("Parse succeeded on a schema with a duplicate field index, want error")
	}
}

func TestParseFieldType(t *testing.T) {
	cases := map[string]ParsedType{
		"int32":            {Cardinality: "scalar", ElemType: "int32"},
		"Player":           {Cardinality: "scalar", ElemType: "Player"},
		"[]Player":         {Cardinality: "array", ElemType: "Player"},
		"map[string]int32": {Cardinality: "map", KeyType: "string", ElemType: "int32"},
		"idmap[int32]Obj":  {Cardinality: "idmap", KeyType: "int32", ElemType: "Obj"},
	}
	for in, want := range cases {
		got := parseFieldType(in)
		if got != want {
			t.Errorf("parseFieldType(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestGenerateGoCompilesStructure(t *testing.T) {
	schema := &SchemaFile{
		Package: "records",
		Types: []*TypeDef{
			{
				Name: "Point",
				Fields: []*FieldDef{
					{Index: 1, Name: "x", Type: "int32", Default: "0"},
					{Index: 2, Name: "y", Type: "int32", Default: "0"},
				},
			},
			{
				Name: "Rect",
				Fields: []*FieldDef{
					{Index: 1, Name: "lt", Type: "Point"},
					{Index: 2, Name: "rb", Type: "Point"},
				},
			},
		},
	}
	out, err := GenerateGo(schema)
	if err != nil {
		t.Fatalf("GenerateGo error: %v", err)
	}
	src := string(out)
	for _, want := range []string{
		"package records",
		"type Point struct",
		"func NewPoint()",
		"func (r *Point) X() int32",
		"func (r *Point) SetX(v int32)",
		"type Rect struct",
		"func (r *Rect) Lt() *Point",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q:\n%s", want, src)
		}
	}
}
