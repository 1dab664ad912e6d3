package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplateParses(t *testing.T) {
	schema := Default()

	assert.Equal(t, "0.1", schema.TemplateSchemaVersion)
	assert.NotEmpty(t, schema.Sections)
	assert.Contains(t, schema.ReadinessRules.RequireFields, "meta.title")
	assert.Contains(t, schema.ReadinessRules.RequirePerRequirement, "acceptance")

	reqs := schema.FieldAt("requirements.requirements")
	require.NotNil(t, reqs)
	require.NotNil(t, reqs.Export)
	assert.Equal(t, "/requirements/[]", reqs.Export.Path)
}

func TestFieldAtResolvesDeclaredField(t *testing.T) {
	schema := Default()

	field := schema.FieldAt("goals.goals")
	require.NotNil(t, field)
	assert.Equal(t, FieldObjectList, field.Type)
	require.NotNil(t, field.Validation)
	require.NotNil(t, field.Validation.MinItems)
	assert.Equal(t, 1, *field.Validation.MinItems)
}

func TestFieldAtUnknownPath(t *testing.T) {
	schema := Default()

	assert.Nil(t, schema.FieldAt("meta.unknown"))
	assert.Nil(t, schema.FieldAt("nosuchsection.title"))
	assert.Nil(t, schema.FieldAt("nodot"))
}

func TestFieldTypeValid(t *testing.T) {
	for _, ft := range []FieldType{
		FieldShortText, FieldLongText, FieldEnum, FieldMultiEnum,
		FieldStringList, FieldObjectList, FieldNumber, FieldBoolean, FieldDate,
	} {
		assert.True(t, ft.Valid(), "expected %q valid", ft)
	}
	assert.False(t, FieldType("object").Valid())
	assert.False(t, FieldType("").Valid())
}

func TestCheckRejectsDuplicateKeys(t *testing.T) {
	schema := &Schema{
		TemplateSchemaVersion: "0.1",
		ContextSchemaVersion:  "0.1",
		Sections: []Section{
			{Key: "meta", Fields: []Field{
				{Key: "title", Type: FieldShortText},
				{Key: "title", Type: FieldShortText},
			}},
			{Key: "meta"},
		},
	}

	errs := schema.Check()
	require.NotEmpty(t, errs)

	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	assert.Contains(t, messages, `section "meta": duplicate field key "title"`)
	assert.Contains(t, messages, `duplicate section key "meta"`)
}

func TestCheckRejectsUnknownFieldType(t *testing.T) {
	schema := &Schema{
		TemplateSchemaVersion: "0.1",
		ContextSchemaVersion:  "0.1",
		Sections: []Section{
			{Key: "meta", Fields: []Field{{Key: "title", Type: "mystery"}}},
		},
	}

	errs := schema.Check()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `unknown field type "mystery"`)
}

func TestCheckRejectsUnresolvableRequirePath(t *testing.T) {
	schema := &Schema{
		TemplateSchemaVersion: "0.1",
		ContextSchemaVersion:  "0.1",
		Sections: []Section{
			{Key: "meta", Fields: []Field{{Key: "title", Type: FieldShortText}}},
		},
		ReadinessRules: ReadinessRules{RequireFields: []string{"meta.missing"}},
	}

	errs := schema.Check()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `"meta.missing" does not resolve`)
}

func TestParseRejectsUnknownYAMLKeys(t *testing.T) {
	_, err := Parse([]byte("templateSchemaVersion: \"0.1\"\ncontextSchemaVersion: \"0.1\"\nbogus: true\n"))
	assert.Error(t, err)
}
