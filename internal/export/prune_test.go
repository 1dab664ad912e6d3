package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullContext() map[string]any {
	return map[string]any{
		"schemaVersion": SchemaVersion,
		"meta":          map[string]any{"id": "d", "title": "t"},
		"problem":       map[string]any{"problemStatement": "p"},
		"goals":         map[string]any{"goals": []any{}, "nonGoals": []any{}},
		"scope":         map[string]any{"inScope": []any{"a"}},
		"journeys":      map[string]any{"primary": []any{map[string]any{"step": 1}}},
		"requirements": []any{
			map[string]any{
				"id":           "REQ-1",
				"title":        "Checkout",
				"priority":     "P0",
				"userStory":    "story",
				"description":  "long form",
				"acceptance":   []any{"ok"},
				"edgeCases":    []any{"edge"},
				"dependencies": []any{"REQ-0"},
				"codingNotes":  []any{"note"},
				"flows": map[string]any{
					"main":         []any{map[string]any{"step": 1, "action": "a", "system": "s"}},
					"alternatives": []any{map[string]any{"step": 1, "action": "alt", "system": "s"}},
					"exceptions":   []any{"dropped"},
				},
			},
		},
		"tracking":  map[string]any{"events": []any{map[string]any{"name": "e"}}},
		"nfr":       map[string]any{"items": []any{"fast"}},
		"release":   map[string]any{"plan": []any{"phase 1"}},
		"glossary":  map[string]any{"terms": []any{"term"}},
		"changeLog": map[string]any{"summary": "s", "changes": []any{}},
	}
}

func TestPruneLeanDropsSectionsAndExtras(t *testing.T) {
	out := PruneByProfile(fullContext(), PruneOptions{Profile: ProfileLean})

	for _, key := range []string{"journeys", "tracking", "nfr", "release", "changeLog"} {
		_, ok := out[key]
		assert.False(t, ok, "lean should drop %s", key)
	}
	// Glossary survives lean.
	assert.Contains(t, out, "glossary")

	reqs := out["requirements"].([]any)
	require.Len(t, reqs, 1)
	req := reqs[0].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "title", "priority", "userStory", "acceptance", "edgeCases"}, mapKeys(req))
}

func TestPruneLeanIncludeFlows(t *testing.T) {
	out := PruneByProfile(fullContext(), PruneOptions{Profile: ProfileLean, IncludeFlowsInLean: true})

	req := out["requirements"].([]any)[0].(map[string]any)
	flows := req["flows"].(map[string]any)
	assert.Equal(t, []string{"main"}, mapKeys(flows))
	assert.Len(t, flows["main"], 1)
}

func TestPruneStandardNarrowsFlows(t *testing.T) {
	out := PruneByProfile(fullContext(), PruneOptions{Profile: ProfileStandard})

	_, hasRelease := out["release"]
	_, hasChangeLog := out["changeLog"]
	assert.False(t, hasRelease)
	assert.False(t, hasChangeLog)
	assert.Contains(t, out, "journeys")
	assert.Contains(t, out, "tracking")

	req := out["requirements"].([]any)[0].(map[string]any)
	assert.Contains(t, req, "description")
	assert.Contains(t, req, "dependencies")

	flows := req["flows"].(map[string]any)
	assert.ElementsMatch(t, []string{"main", "alternatives"}, mapKeys(flows))
}

func TestPruneDetailedKeepsSections(t *testing.T) {
	out := PruneByProfile(fullContext(), PruneOptions{Profile: ProfileDetailed})

	assert.Contains(t, out, "release")
	assert.Contains(t, out, "changeLog")
	assert.Contains(t, out, "tracking")

	// Requirements still get the standard key reduction.
	req := out["requirements"].([]any)[0].(map[string]any)
	assert.NotContains(t, mapKeys(req["flows"].(map[string]any)), "exceptions")
}

func TestPruneIdempotent(t *testing.T) {
	for _, profile := range []Profile{ProfileLean, ProfileStandard, ProfileDetailed} {
		opts := PruneOptions{Profile: profile}
		once := PruneByProfile(fullContext(), opts)
		twice := PruneByProfile(once, opts)
		assert.Equal(t, once, twice, "profile %s", profile)
	}
}

func TestPruneDoesNotMutateInput(t *testing.T) {
	in := fullContext()
	PruneByProfile(in, PruneOptions{Profile: ProfileLean})
	assert.Equal(t, fullContext(), in)
}

func TestPruneDropsEmptyOptionals(t *testing.T) {
	in := fullContext()
	in["tracking"] = map[string]any{}
	in["glossary"] = []any{}

	out := PruneByProfile(in, PruneOptions{Profile: ProfileDetailed})
	_, hasTracking := out["tracking"]
	_, hasGlossary := out["glossary"]
	assert.False(t, hasTracking)
	assert.False(t, hasGlossary)
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
