package main

import (
	"fmt"
	"strings"

	"golang.org/x/tools/imports"
)

// GenerateGo renders schema into a single Go source file, gofmt'd and
// import-resolved so a caller can write it straight to disk.
func GenerateGo(schema *SchemaFile) ([]byte, error) {
	var b strings.Builder
	b.WriteString("// Code generated by recordgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", schema.Package)
	b.WriteString("import \"github.com/mxkacsa/recordmodel\"\n\n")
	b.WriteString("// Registry holds every RecordType this package defines.\n")
	b.WriteString("var Registry = recordmodel.NewSchemaRegistry()\n\n")
	b.WriteString("func mustDefine(name string, fields []recordmodel.FieldMeta, newInstance func() recordmodel.Trackable) *recordmodel.RecordType {\n")
	b.WriteString("\trt, err := Registry.Define(name, func() (*recordmodel.RecordType, error) {\n")
	b.WriteString("\t\treturn recordmodel.DefineRecord(name, nil, fields, newInstance)\n")
	b.WriteString("\t})\n")
	b.WriteString("\tif err != nil {\n\t\tpanic(err)\n\t}\n")
	b.WriteString("\treturn rt\n}\n")

	for _, td := range schema.Types {
		writeType(&b, td)
	}

	out, err := imports.Process("generated.go", []byte(b.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("recordgen: generated source does not format: %w\n%s", err, b.String())
	}
	return out, nil
}

func writeType(b *strings.Builder, td *TypeDef) {
	fmt.Fprintf(b, "\nvar %sType = mustDefine(\"%s\", []recordmodel.FieldMeta{\n", td.Name, td.Name)
	for _, fd := range td.Fields {
		fmt.Fprintf(b, "\t%s,\n", fieldBuild(fd))
	}
	fmt.Fprintf(b, "}, func() recordmodel.Trackable { return New%s() })\n\n", td.Name)
	fmt.Fprintf(b, "type %s struct{ *recordmodel.Record }\n\n", td.Name)
	fmt.Fprintf(b, "func New%s() *%s { return &%s{recordmodel.NewRecord(%sType)} }\n\n", td.Name, td.Name, td.Name, td.Name)

	for _, fd := range td.Fields {
		writeAccessors(b, td.Name, fd)
	}
}

func writeAccessors(b *strings.Builder, typeName string, fd *FieldDef) {
	pt := parseFieldType(fd.Type)
	exp := exportName(fd.Name)
	goType := recordGoType(pt)

	fmt.Fprintf(b, "func (r *%s) %s() %s { return recordmodel.Get[%s](r.Record, %d) }\n", typeName, exp, goType, goType, fd.Index)
	fmt.Fprintf(b, "func (r *%s) Set%s(v %s) { recordmodel.Set(r.Record, %d, v) }\n", typeName, exp, goType, fd.Index)
	if fd.Arithmetic {
		fmt.Fprintf(b, "func (r *%s) Add%s(delta %s) (%s, %s) { return recordmodel.Add(r.Record, %d, delta) }\n", typeName, exp, goType, goType, goType, fd.Index)
		fmt.Fprintf(b, "func (r *%s) Sub%s(delta %s) (%s, %s, error) { return recordmodel.Sub(r.Record, %d, delta) }\n", typeName, exp, goType, goType, goType, fd.Index)
	}
}

// exportName upper-cases a field's first rune for its accessor name,
// e.g. "x" -> "X".
func exportName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func fieldBuild(fd *FieldDef) string {
	pt := parseFieldType(fd.Type)
	switch pt.Cardinality {
	case "scalar":
		if isPrimitive(pt.ElemType) {
			build := fmt.Sprintf("recordmodel.Field(%d, %q, recordmodel.%s)", fd.Index, fd.Name, fieldTypeEnum(pt.ElemType))
			if fd.Default != "" {
				build += fmt.Sprintf(".WithDefault(%s(%s))", goScalarType(pt.ElemType), fd.Default)
			}
			if fd.Arithmetic {
				min := fd.MinValue
				if min == "" {
					min = "0"
				}
				build += fmt.Sprintf(".Arithmetic(%s(%s))", goScalarType(pt.ElemType), min)
			}
			return build + ".Build()"
		}
		if fd.Ref {
			return fmt.Sprintf("recordmodel.Field(%d, %q, recordmodel.TypeStruct).Ref(%sType).Build()", fd.Index, fd.Name, pt.ElemType)
		}
		return fmt.Sprintf(
			"recordmodel.Field(%d, %q, recordmodel.TypeStruct).Struct(%sType, func() any { return New%s() }).Build()",
			fd.Index, fd.Name, pt.ElemType, pt.ElemType,
		)

	case "array":
		if isPrimitive(pt.ElemType) {
			return fmt.Sprintf(
				"recordmodel.ArrayField(%d, %q, recordmodel.%s, func() any { return recordmodel.NewArray[%s]() })",
				fd.Index, fd.Name, fieldTypeEnum(pt.ElemType), goScalarType(pt.ElemType),
			)
		}
		if fd.Ref {
			return fmt.Sprintf(
				"recordmodel.ArrayOfRefField(%d, %q, %sType, func() any { return recordmodel.NewArray[*%s]() })",
				fd.Index, fd.Name, pt.ElemType, pt.ElemType,
			)
		}
		return fmt.Sprintf(
			"recordmodel.ArrayOfStructField(%d, %q, %sType, func() any { return New%s() }, func() any { return recordmodel.NewArray[*%s]() })",
			fd.Index, fd.Name, pt.ElemType, pt.ElemType, pt.ElemType,
		)

	case "map":
		if isPrimitive(pt.ElemType) {
			return fmt.Sprintf(
				"recordmodel.MapField(%d, %q, recordmodel.%s, recordmodel.%s, func() any { return recordmodel.NewMap[%s, %s]() })",
				fd.Index, fd.Name, fieldTypeEnum(pt.KeyType), fieldTypeEnum(pt.ElemType),
				goScalarType(pt.KeyType), goScalarType(pt.ElemType),
			)
		}
		newChild := fmt.Sprintf("func() any { return New%s() }", pt.ElemType)
		if fd.Ref {
			newChild = "nil"
		}
		return fmt.Sprintf(
			"recordmodel.MapOfStructField(%d, %q, recordmodel.%s, %sType, %t, %s, func() any { return recordmodel.NewMap[%s, *%s]() })",
			fd.Index, fd.Name, fieldTypeEnum(pt.KeyType), pt.ElemType, fd.Ref, newChild, goScalarType(pt.KeyType), pt.ElemType,
		)

	case "idmap":
		return fmt.Sprintf(
			"recordmodel.IDMapField(%d, %q, recordmodel.%s, %sType, func() any { return New%s() }, func() any { return recordmodel.NewIdMap[%s, *%s]() })",
			fd.Index, fd.Name, fieldTypeEnum(pt.KeyType), pt.ElemType, pt.ElemType, goScalarType(pt.KeyType), pt.ElemType,
		)
	}
	return fmt.Sprintf("/* recordgen: unsupported field %q */", fd.Name)
}

func recordGoType(pt ParsedType) string {
	switch pt.Cardinality {
	case "scalar":
		if isPrimitive(pt.ElemType) {
			return goScalarType(pt.ElemType)
		}
		return "*" + pt.ElemType
	case "array":
		if isPrimitive(pt.ElemType) {
			return fmt.Sprintf("*recordmodel.Array[%s]", goScalarType(pt.ElemType))
		}
		return fmt.Sprintf("*recordmodel.Array[*%s]", pt.ElemType)
	case "map":
		if isPrimitive(pt.ElemType) {
			return fmt.Sprintf("*recordmodel.Map[%s, %s]", goScalarType(pt.KeyType), goScalarType(pt.ElemType))
		}
		return fmt.Sprintf("*recordmodel.Map[%s, *%s]", goScalarType(pt.KeyType), pt.ElemType)
	case "idmap":
		return fmt.Sprintf("*recordmodel.IdMap[%s, *%s]", goScalarType(pt.KeyType), pt.ElemType)
	}
	return "any"
}
