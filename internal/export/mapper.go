package export

import (
	"strconv"
	"strings"
)

// MapInput carries everything the mapper needs. Language is explicit;
// there is no ambient locale.
type MapInput struct {
	DocumentID string
	UpdatedAt  string
	Fields     map[string]any
	Language   Language
	Source     Source
}

// MapDocument transforms raw document field data into the canonical export
// shape. Every missing section or field defaults to an empty string, array,
// or object; goals rows are normalized; journeys accept both the
// primaryJourney and primary spellings. No validation happens here;
// invalid data produces a best-effort context for the validator to reject.
func MapDocument(in MapInput) map[string]any {
	meta := section(in.Fields, "meta")
	problem := section(in.Fields, "problem")
	goals := section(in.Fields, "goals")
	scope := section(in.Fields, "scope")
	journeys := section(in.Fields, "journeys")
	requirements := section(in.Fields, "requirements")
	tracking := section(in.Fields, "tracking")
	nfr := section(in.Fields, "nfr")
	release := section(in.Fields, "release")
	glossary := section(in.Fields, "glossary")
	changeLog := section(in.Fields, "changeLog")

	metaOut := map[string]any{
		"id":        in.DocumentID,
		"title":     stringOr(meta["title"], ""),
		"language":  string(in.Language),
		"platform":  listOr(meta["platform"]),
		"updatedAt": in.UpdatedAt,
		"source":    string(in.Source),
	}
	if productType, ok := meta["productType"]; ok && productType != nil {
		metaOut["productType"] = productType
	}

	goalsRows, ok := goals["goalsTable"].([]any)
	if !ok {
		goalsRows, _ = goals["goals"].([]any)
	}

	primary, ok := journeys["primaryJourney"].([]any)
	if !ok {
		primary, _ = journeys["primary"].([]any)
	}
	if primary == nil {
		primary = []any{}
	}

	return map[string]any{
		"schemaVersion": SchemaVersion,
		"meta":          metaOut,
		"problem": map[string]any{
			"background":       stringOr(problem["background"], ""),
			"problemStatement": stringOr(problem["problemStatement"], ""),
			"targetUsers":      listOr(problem["targetUsers"]),
			"constraints":      listOr(problem["constraints"]),
		},
		"goals": map[string]any{
			"goals":    mapGoals(goalsRows),
			"nonGoals": listOr(goals["nonGoals"]),
		},
		"scope": map[string]any{
			"inScope":       listOr(scope["inScope"]),
			"outScope":      listOr(scope["outScope"]),
			"assumptions":   listOr(scope["assumptions"]),
			"openQuestions": listOr(scope["openQuestions"]),
		},
		"journeys": map[string]any{
			"primary":   primary,
			"secondary": listOr(journeys["secondary"]),
		},
		"requirements": listOr(requirements["requirements"]),
		"tracking": map[string]any{
			"events": listOr(tracking["events"]),
		},
		"nfr": map[string]any{
			"items": listOr(nfr["items"]),
		},
		"release": map[string]any{
			"plan":       listOr(release["plan"]),
			"monitoring": listOr(release["monitoring"]),
			"rollback":   listOr(release["rollback"]),
		},
		"glossary": map[string]any{
			"terms": listOr(glossary["terms"]),
		},
		"changeLog": map[string]any{
			"summary": stringOr(changeLog["summary"], ""),
			"changes": listOr(changeLog["changes"]),
		},
	}
}

// mapGoals normalizes goal rows: goal and metric are always present coerced
// to strings, the optional scalar fields are kept only when truthy.
func mapGoals(rows []any) []any {
	out := make([]any, 0, len(rows))
	for _, raw := range rows {
		row, _ := raw.(map[string]any)
		goal := map[string]any{
			"goal":   coerceString(row["goal"]),
			"metric": coerceString(row["metric"]),
		}
		for _, key := range []string{"baseline", "target", "timeWindow"} {
			if truthy(row[key]) {
				goal[key] = coerceString(row[key])
			}
		}
		out = append(out, goal)
	}
	return out
}

func section(fields map[string]any, key string) map[string]any {
	if m, ok := fields[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func listOr(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

// coerceString renders scalars the way the export contract expects strings.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// truthy mirrors loose emptiness: nil, empty/blank strings, zero numbers and
// false are not worth exporting.
func truthy(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(s) != ""
	case bool:
		return s
	case int:
		return s != 0
	case int64:
		return s != 0
	case float64:
		return s != 0
	default:
		return v != nil
	}
}
