// Package template defines the versioned, data-driven document structure:
// ordered sections of typed fields, export-path mappings, and the readiness
// rules that decide export eligibility. Templates are pure data; behavior
// lives in the readiness and export packages. A document references exactly
// one template version for its lifetime; templates are never mutated once
// referenced.
package template

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of field type tags. Adding a field type means
// extending this set and the per-type validation mapping, never runtime
// reflection.
type FieldType string

const (
	FieldShortText  FieldType = "shortText"
	FieldLongText   FieldType = "longText"
	FieldEnum       FieldType = "enum"
	FieldMultiEnum  FieldType = "multiEnum"
	FieldStringList FieldType = "stringList"
	FieldObjectList FieldType = "objectList"
	FieldNumber     FieldType = "number"
	FieldBoolean    FieldType = "boolean"
	FieldDate       FieldType = "date"
)

// Valid reports whether the type tag is a known field type.
func (ft FieldType) Valid() bool {
	switch ft {
	case FieldShortText, FieldLongText, FieldEnum, FieldMultiEnum,
		FieldStringList, FieldObjectList, FieldNumber, FieldBoolean, FieldDate:
		return true
	}
	return false
}

// LocalizedString carries the zh and en renderings of a display string.
type LocalizedString struct {
	ZH string `yaml:"zh" json:"zh"`
	EN string `yaml:"en" json:"en"`
}

// Validation holds the per-field constraint bounds. Zero values mean
// "no constraint".
type Validation struct {
	Pattern   string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	MinLength int    `yaml:"minLength,omitempty" json:"minLength,omitempty"`
	MaxLength int    `yaml:"maxLength,omitempty" json:"maxLength,omitempty"`
	MinItems  *int   `yaml:"minItems,omitempty" json:"minItems,omitempty"`
	MaxItems  *int   `yaml:"maxItems,omitempty" json:"maxItems,omitempty"`
}

// ExportMapping locates where a field lands in the export artifact.
// A "[]" segment in Path denotes "repeat once per requirement".
type ExportMapping struct {
	Path        string `yaml:"path" json:"path"`
	OmitIfEmpty bool   `yaml:"omitIfEmpty,omitempty" json:"omitIfEmpty,omitempty"`
}

// Field is one editable field within a section.
type Field struct {
	Key        string          `yaml:"key" json:"key"`
	Type       FieldType       `yaml:"type" json:"type"`
	Label      LocalizedString `yaml:"label" json:"label"`
	Required   bool            `yaml:"required,omitempty" json:"required,omitempty"`
	Options    []string        `yaml:"options,omitempty" json:"options,omitempty"`
	Validation *Validation     `yaml:"validation,omitempty" json:"validation,omitempty"`
	Export     *ExportMapping  `yaml:"export,omitempty" json:"export,omitempty"`
}

// Section is an ordered group of fields keyed by section key.
type Section struct {
	Key      string          `yaml:"key" json:"key"`
	Title    LocalizedString `yaml:"title" json:"title"`
	Optional bool            `yaml:"optional,omitempty" json:"optional,omitempty"`
	Fields   []Field         `yaml:"fields" json:"fields"`
}

// ReadinessRules lists what must be non-empty before a document is
// export-eligible. RequireFields are section.field dot paths; each entry of
// RequirePerRequirement names a requirement field that every element of the
// requirements collection must fill.
type ReadinessRules struct {
	RequireFields         []string `yaml:"requireFields" json:"requireFields"`
	RequirePerRequirement []string `yaml:"requirePerRequirement" json:"requirePerRequirement"`
}

// Schema is one immutable template version.
type Schema struct {
	TemplateSchemaVersion string         `yaml:"templateSchemaVersion" json:"templateSchemaVersion"`
	ContextSchemaVersion  string         `yaml:"contextSchemaVersion" json:"contextSchemaVersion"`
	Sections              []Section      `yaml:"sections" json:"sections"`
	ReadinessRules        ReadinessRules `yaml:"readinessRules" json:"readinessRules"`
}

// Section returns the section with the given key, or nil.
func (s *Schema) Section(key string) *Section {
	for i := range s.Sections {
		if s.Sections[i].Key == key {
			return &s.Sections[i]
		}
	}
	return nil
}

// FieldAt resolves a "section.field" dot path to its field definition.
// Returns nil when either segment does not resolve; callers treat that as a
// template configuration defect, not a document error.
func (s *Schema) FieldAt(fieldPath string) *Field {
	sectionKey, fieldKey, ok := strings.Cut(fieldPath, ".")
	if !ok {
		return nil
	}
	section := s.Section(sectionKey)
	if section == nil {
		return nil
	}
	for i := range section.Fields {
		if section.Fields[i].Key == fieldKey {
			return &section.Fields[i]
		}
	}
	return nil
}

// Check verifies the template is internally consistent: versions set, unique
// section and field keys, known field types, and readiness rule paths that
// resolve to declared fields. Returns all problems found.
func (s *Schema) Check() []error {
	var errs []error

	if s.TemplateSchemaVersion == "" {
		errs = append(errs, fmt.Errorf("templateSchemaVersion is required"))
	}
	if s.ContextSchemaVersion == "" {
		errs = append(errs, fmt.Errorf("contextSchemaVersion is required"))
	}

	sectionKeys := make(map[string]bool)
	for _, section := range s.Sections {
		if section.Key == "" {
			errs = append(errs, fmt.Errorf("section with empty key"))
			continue
		}
		if sectionKeys[section.Key] {
			errs = append(errs, fmt.Errorf("duplicate section key %q", section.Key))
		}
		sectionKeys[section.Key] = true

		fieldKeys := make(map[string]bool)
		for _, field := range section.Fields {
			if field.Key == "" {
				errs = append(errs, fmt.Errorf("section %q: field with empty key", section.Key))
				continue
			}
			if fieldKeys[field.Key] {
				errs = append(errs, fmt.Errorf("section %q: duplicate field key %q", section.Key, field.Key))
			}
			fieldKeys[field.Key] = true

			if !field.Type.Valid() {
				errs = append(errs, fmt.Errorf("section %q field %q: unknown field type %q", section.Key, field.Key, field.Type))
			}
		}
	}

	for _, path := range s.ReadinessRules.RequireFields {
		if s.FieldAt(path) == nil {
			errs = append(errs, fmt.Errorf("readinessRules.requireFields: path %q does not resolve to a field", path))
		}
	}

	return errs
}
