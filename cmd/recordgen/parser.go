package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse reads a .schema YAML document from r.
func Parse(r io.Reader) (*SchemaFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var schema SchemaFile
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("recordgen: invalid schema yaml: %w", err)
	}
	if err := validate(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func validate(schema *SchemaFile) error {
	names := make(map[string]bool, len(schema.Types))
	for _, td := range schema.Types {
		if td.Name == "" {
			return fmt.Errorf("recordgen: type with empty name")
		}
		if names[td.Name] {
			return fmt.Errorf("recordgen: duplicate type %q", td.Name)
		}
		names[td.Name] = true

		seenIndex := make(map[uint16]bool, len(td.Fields))
		seenName := make(map[string]bool, len(td.Fields))
		for _, fd := range td.Fields {
			if fd.Name == "" {
				return fmt.Errorf("recordgen: type %q has a field with empty name", td.Name)
			}
			if fd.Index == 0 {
				return fmt.Errorf("recordgen: type %q field %q: index must be >= 1", td.Name, fd.Name)
			}
			if seenIndex[fd.Index] {
				return fmt.Errorf("recordgen: type %q field %q: duplicate index %d", td.Name, fd.Name, fd.Index)
			}
			seenIndex[fd.Index] = true
			if seenName[fd.Name] {
				return fmt.Errorf("recordgen: type %q: duplicate field name %q", td.Name, fd.Name)
			}
			seenName[fd.Name] = true
		}
	}
	return nil
}
