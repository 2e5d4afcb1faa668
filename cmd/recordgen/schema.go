package main

// SchemaFile is the parsed form of a .schema YAML file: a package of
// record type definitions to scaffold into Go source.
type SchemaFile struct {
	Package string     `yaml:"package"`
	Types   []*TypeDef `yaml:"types"`
}

// TypeDef describes one record type.
type TypeDef struct {
	Name   string      `yaml:"name"`
	Fields []*FieldDef `yaml:"fields"`
}

// FieldDef describes one field of a TypeDef. Type carries the raw
// schema type string: a primitive name ("int32", "string", ...), a
// record type name (nested struct), or one of the cardinality wrappers
// "[]Elem", "map[Key]Elem", "idmap[Key]Elem".
type FieldDef struct {
	Index      uint16 `yaml:"index"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Ref        bool   `yaml:"ref,omitempty"`
	Default    string `yaml:"default,omitempty"`
	Arithmetic bool   `yaml:"arithmetic,omitempty"`
	MinValue   string `yaml:"min_value,omitempty"`
}

var primitiveTypes = map[string]bool{
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
	"string": true, "bool": true, "bytes": true,
}

// ParsedType decomposes a FieldDef.Type string into its cardinality and
// element/key types.
type ParsedType struct {
	Cardinality string // "scalar", "array", "map", "idmap"
	KeyType     string // only for map/idmap
	ElemType    string
}

func parseFieldType(s string) ParsedType {
	switch {
	case len(s) >= 2 && s[:2] == "[]":
		return ParsedType{Cardinality: "array", ElemType: s[2:]}
	case len(s) >= 4 && s[:4] == "map[":
		return parseKeyedType(s, "map[", "map")
	case len(s) >= 6 && s[:6] == "idmap[":
		return parseKeyedType(s, "idmap[", "idmap")
	default:
		return ParsedType{Cardinality: "scalar", ElemType: s}
	}
}

func parseKeyedType(s, prefix, cardinality string) ParsedType {
	rest := s[len(prefix):]
	depth := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return ParsedType{Cardinality: cardinality, KeyType: rest[:i], ElemType: rest[i+1:]}
			}
		}
	}
	return ParsedType{Cardinality: cardinality, KeyType: rest, ElemType: ""}
}

func isPrimitive(t string) bool { return primitiveTypes[t] }

// fieldTypeEnum returns the recordmodel.FieldType constant name for a
// primitive schema type, or TypeStruct for a record-type reference.
func fieldTypeEnum(t string) string {
	switch t {
	case "int8":
		return "TypeInt8"
	case "int16":
		return "TypeInt16"
	case "int32":
		return "TypeInt32"
	case "int64":
		return "TypeInt64"
	case "uint8":
		return "TypeUint8"
	case "uint16":
		return "TypeUint16"
	case "uint32":
		return "TypeUint32"
	case "uint64":
		return "TypeUint64"
	case "float32":
		return "TypeFloat32"
	case "float64":
		return "TypeFloat64"
	case "string":
		return "TypeString"
	case "bool":
		return "TypeBool"
	case "bytes":
		return "TypeBytes"
	default:
		return "TypeStruct"
	}
}

// goScalarType returns the Go type a primitive schema type decodes to.
func goScalarType(t string) string {
	switch t {
	case "bytes":
		return "[]byte"
	default:
		return t
	}
}
