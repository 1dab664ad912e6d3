package template

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_prd.yaml
var defaultPRD []byte

// Default returns the built-in PRD template shipped with the binary.
func Default() *Schema {
	schema, err := Parse(defaultPRD)
	if err != nil {
		// The embedded template is fixed at build time; a parse failure is a
		// packaging defect.
		panic(fmt.Sprintf("embedded default template invalid: %v", err))
	}
	return schema
}

// Parse decodes a YAML template definition and checks its consistency.
func Parse(data []byte) (*Schema, error) {
	var schema Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if errs := schema.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid template: %w", errors.Join(errs...))
	}
	return &schema, nil
}

// Load reads and parses a template file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	schema, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return schema, nil
}
